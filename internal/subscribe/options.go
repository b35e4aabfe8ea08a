package subscribe

import "errors"

// ErrConfiguration is matched by every *ConfigurationError.
var ErrConfiguration = errors.New("invalid options")

// ErrValidation marks a recoverable answer that must be asked again.
var ErrValidation = errors.New("invalid answer")

// ConfigurationError is a fatal problem with the requested options, detected
// before the store is touched.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// Policy decides what happens when a requested subscription already exists.
type Policy int

// Conflict policies.
const (
	PolicyAsk Policy = iota
	PolicyYes
	PolicyNo
)

// Options are the add request as supplied by the command line.
type Options struct {
	Interactive   bool
	Yes           bool
	No            bool
	Subscribables []string
	// Unkeywords is a delimited list appended to every raw subscribable.
	Unkeywords string
}

// Validate rejects contradictory or empty requests.
func (o Options) Validate() error {
	if o.Yes && o.No {
		return &ConfigurationError{Reason: "--yes and --no cannot be used together"}
	}
	if len(o.Subscribables) == 0 && !o.Interactive {
		return &ConfigurationError{Reason: "nothing to add: pass a subscription or use --interactive"}
	}
	return nil
}

// Policy returns the conflict policy implied by the yes/no flags.
func (o Options) Policy() Policy {
	switch {
	case o.Yes:
		return PolicyYes
	case o.No:
		return PolicyNo
	default:
		return PolicyAsk
	}
}
