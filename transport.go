package conceptfinder

import "github.com/wagiedev/conceptfinder-go/internal/config"

// Transport defines the interface to a running engine.
// Implement this to provide custom transports for testing, mocking,
// or alternative communication methods (e.g., an engine behind a socket).
//
// The default implementation launches the engine as a subprocess.
// Custom transports can be injected via WithTransport or WithTransportFactory.
type Transport = config.Transport
