// ABOUTME: Package devapi serves the chat service HTTP contract from a local knowledge base
// ABOUTME: It lets the chat clients run end to end without the production backend

// Package devapi exposes a knowledge base over the same routes, field
// names, and error payloads the production chat service uses. Public
// routes need no credentials. Question authoring, analytics, and exports
// require an admin bearer token obtained from /login.
package devapi
