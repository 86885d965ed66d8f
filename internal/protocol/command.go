package protocol

import (
	"fmt"

	"github.com/wagiedev/conceptfinder-go/internal/errors"
)

// Command selects the operation a request performs.
type Command byte

const (
	// Extract finds concepts in the sentences.
	Extract Command = 'x'
	// Encode rewrites each sentence with its concepts replaced by identifiers.
	Encode Command = 'e'
)

// ParseCommand maps a wire tag to its Command.
func ParseCommand(tag string) (Command, error) {
	switch tag {
	case "x":
		return Extract, nil
	case "e":
		return Encode, nil
	default:
		return 0, fmt.Errorf("%w: %q", errors.ErrUnknownCommand, tag)
	}
}

// Valid reports whether c is a known command.
func (c Command) Valid() bool {
	return c == Extract || c == Encode
}

// Tag returns the wire tag.
func (c Command) Tag() string {
	return string(rune(c))
}

func (c Command) String() string {
	switch c {
	case Extract:
		return "extract"
	case Encode:
		return "encode"
	default:
		return fmt.Sprintf("command(%q)", rune(c))
	}
}
