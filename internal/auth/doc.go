// Package auth issues and verifies the HS256 tokens used by the tutor
// commands.
//
// Two audiences exist. Session tokens live in the web front end's cookie and
// name the visitor's conversation. Admin tokens are handed out by the
// development backend's /login and unlock its analytics and export routes.
// A Signer is bound to one audience, so a session cookie is never accepted
// as an admin bearer token and vice versa.
package auth
