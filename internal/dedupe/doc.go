// Package dedupe remembers recently seen keys for a fixed time so that
// redelivered events are processed once.
package dedupe
