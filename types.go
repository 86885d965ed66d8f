package conceptfinder

import (
	"github.com/wagiedev/conceptfinder-go/internal/config"
	"github.com/wagiedev/conceptfinder-go/internal/protocol"
)

// Options holds session configuration. Build it with Option functions.
type Options = config.Options

// Concept is one annotation returned by an extract request.
type Concept = protocol.Concept

// Concepts is an ordered extract response.
// Split returns the concept identifiers and span lengths as parallel slices.
type Concepts = protocol.Concepts

// Command selects the kind of request sent to the engine.
type Command = protocol.Command

// Request commands.
const (
	// CommandExtract finds concepts in sentences.
	CommandExtract = protocol.Extract
	// CommandEncode returns the engine's encoding of each sentence.
	CommandEncode = protocol.Encode
)

// Defaults applied to unset options.
const (
	DefaultCommand     = config.DefaultCommand
	DefaultDir         = config.DefaultDir
	DefaultStopTimeout = config.DefaultStopTimeout
	DefaultMaxLineSize = config.DefaultMaxLineSize
)
