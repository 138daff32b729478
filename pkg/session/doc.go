// Package session manages persistent per-session conversation history.
//
// Invariants:
// - A non-empty conversation begins with exactly one system message.
// - Conversations never exceed MaxMessages; on overflow the system
//   message is retained and only the newest turns are kept.
// - Load and Persist are best-effort: missing or corrupt state loads as
//   an empty conversation, and persist failures are logged, never
//   propagated.
// - Session ids are validated and path-safe.
//
// Usage:
//
//	store, _ := session.NewStore(session.DriverFile, session.WithDir("/tmp/sheetpilot/sessions"))
//	msgs := store.Append(ctx, "s1", session.RoleUser, "hello", nil)
//	_ = msgs
package session
