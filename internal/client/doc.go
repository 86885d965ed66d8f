// Package client implements the session Client for the concept finder engine.
//
// A Client owns one engine process and its stdin/stdout pipe pair for the
// lifetime of a session. Requests are strictly sequential: each call writes a
// request and reads the complete response before the next call may touch the
// pipes. Concurrent callers are serialized with a mutex.
//
// The framing cannot be resynchronized mid-response. A protocol violation,
// a closed pipe, a timeout or a cancelled context therefore breaks the
// session; every later request fails with ErrSessionBroken and the caller
// must start a new Client.
package client
