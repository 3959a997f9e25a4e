// Package chatapi is a typed client for the academic assistant's remote chat
// service.
//
// The service speaks plain HTTP and JSON. Answers are requested with a form
// post to /get_response; everything else lives under /api:
//
//	c := chatapi.New("http://localhost:5002")
//	reply, err := c.GetResponse(ctx, "¿Qué es una base de datos?")
//
// The client never retries. A transport error, a non-2xx status, an "error"
// field in the payload, or an undecodable body is returned to the caller as
// is, wrapped with the call that produced it.
package chatapi
