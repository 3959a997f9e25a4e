// Package conversation holds the state of one chat with the academic
// assistant and every rule about how that state may change.
//
// # Manager
//
// A Manager owns the ordered message log and the busy flag:
//
//	m := conversation.NewManager(client, conversation.Options{SessionID: id})
//	m.SubmitText(ctx, "¿Qué es una base de datos?")
//
// Operations that call the service are busy-gated:
//
//   - SubmitText(ctx, text): free-text question
//   - ListCategories(ctx): selectable topic list
//   - SelectCategory(ctx, id, name): frequently asked questions of a topic
//   - InvokeQuickAction(ctx, action): dispatch on the action's Kind
//
// While a call is in flight every other gated operation returns false and
// changes nothing. Submissions are dropped, never queued. The caller's
// context is passed to the service as is; front ends hand in a detached
// context so that a call always finishes and clears busy.
//
// Local operations ignore the flag:
//
//   - HowItWorks(): fixed explanation
//   - Reset(): log becomes the two greeting messages again
//   - SubmitFeedback(ctx, id, rating, comment): rate a stored answer
//   - LoadSuggestions(ctx): refresh suggested questions, own loading flag
//
// # Failures
//
// A failed service call never surfaces as an error. It appends one fixed
// Spanish message (see text.go) and the session stays usable. Feedback is
// the exception because its form needs to show whether it was saved.
//
// # Snapshots
//
// State returns a deep copy. Subscribe streams a copy after every
// transition through a StateBroadcaster, which several managers may share.
package conversation
