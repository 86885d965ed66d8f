// Package enginetest provides a stub concept finder engine.
//
// The stub speaks the engine's side of the wire protocol with pluggable
// handlers, so sessions can be exercised without the real engine. It can
// serve any reader/writer pair (for example an io.Pipe) or run as a child
// process: a test binary re-executed with ModeEnv set serves its own stdin
// and stdout.
//
//	func TestMain(m *testing.M) {
//	    if mode := os.Getenv(enginetest.ModeEnv); mode != "" {
//	        os.Exit(enginetest.Run(mode, os.Stdin, os.Stdout, os.Stderr))
//	    }
//
//	    os.Exit(m.Run())
//	}
package enginetest
