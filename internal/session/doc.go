// Package session keeps the web front end's visitor conversations in memory,
// one conversation.Manager per session id, and sweeps idle ones away.
// Sessions are lost on restart.
package session
