// Package cli provides launcher discovery and command building for the
// concept finder engine.
//
// # Launcher Discovery
//
// The Discoverer interface locates the launcher executable and validates the
// engine's working directory:
//
//	discoverer := cli.NewDiscoverer(&cli.Config{
//	    Command: "dotnet",            // bare name, searched in PATH
//	    Dir:     "./conceptfinder",   // must exist and be a directory
//	    Logger:  slog.Default(),
//	})
//	launcher, err := discoverer.Discover(ctx)
//
// A Command containing a path separator is used as-is. A bare name is searched
// in the system PATH and then in the runtime's common installation
// directories. Every failure is reported as a ProcessLaunchError.
//
// # Command Building
//
//	cmd := cli.BuildCommand(launcher, options)
package cli
