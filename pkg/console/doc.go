// Package console implements the realtime voice session controller.
//
// Session owns the connection state machine and is the sole component that
// calls into the remote API client and the audio devices. It composes the
// event log (eventlog), the persona binder (persona), the turn-taking
// policy, and the barge-in interruption handler.
//
// All state transitions are driven by operator actions and by the four
// client listeners acquired on connect; the listeners are released on every
// teardown path so repeated connect/disconnect cycles cannot accumulate
// duplicate handlers. Conversation items are always re-read wholesale from
// the client's conversation store after each update notification, never
// patched locally.
package console
