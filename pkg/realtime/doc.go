// Package realtime provides a client for a remote realtime speech API.
//
// The package exposes two layers:
//
//   - Client, the capability contract consumed by the session controller:
//     connection lifecycle, session configuration updates, audio and text
//     input, response control, and scoped event subscriptions.
//
//   - WSClient, a WebSocket implementation of Client speaking the realtime
//     wire protocol (session.update, input_audio_buffer.append,
//     conversation.item.create, response.create, response.cancel,
//     conversation.item.truncate).
//
// Conversation is the authoritative ordered item store. Items are created on
// the first event that references a new id and mutated in place as streaming
// deltas arrive; Items returns a consistent snapshot so readers never observe
// a half-applied patch.
package realtime
