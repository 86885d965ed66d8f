// Package subprocess provides the subprocess-based transport for the concept
// finder engine.
//
// This package implements the Transport interface by spawning the engine as a
// child process and exposing its stdin and stdout as byte streams. It handles
// process lifecycle management, stderr capture, exit detection and shutdown.
package subprocess
