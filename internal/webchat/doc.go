// ABOUTME: Package webchat is the browser front end of the academic assistant
// ABOUTME: Server-rendered pages over the conversation manager, with SSE state updates

// Package webchat serves the chat page and its small JSON API.
//
// Every browser gets its own conversation, keyed by a session id carried in
// a signed cookie. Form posts start a manager operation and redirect back
// to the page once the user's message is visible; the page then follows
// the operation through /api/events or a meta refresh while busy.
//
// Routes:
//
//	GET  /                 chat page
//	POST /send             submit free text
//	POST /quick/{id}       run a quick action
//	POST /categories/{id}  list a category's questions
//	POST /reset            start over
//	POST /suggestions      refresh suggested questions
//	POST /api/feedback     rate an assistant message (JSON)
//	GET  /api/state        current snapshot (JSON)
//	GET  /api/events       snapshot stream (SSE)
//	GET  /health           liveness
//
// Templates are embedded using //go:embed for single-binary deployment.
package webchat
