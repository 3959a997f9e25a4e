// Package metrics exposes Prometheus metrics for the tutor front ends:
// calls made to the remote chat service, HTTP requests served, and the
// number of live conversations.
//
// Each Recorder owns its registry, so several can coexist in one process.
package metrics
