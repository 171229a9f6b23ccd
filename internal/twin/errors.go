package twin

import (
	"errors"
	"fmt"
)

// #region sentinels
var (
	// ErrConfiguration matches every *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidInput is returned for empty interaction input or a non-finite reward.
	ErrInvalidInput = errors.New("invalid input")
)
// #endregion sentinels

// #region configuration-error
// ConfigurationError reports a configuration payload that is not valid JSON,
// names unknown sections, or fails shape validation. The held state is unchanged.
type ConfigurationError struct {
	Stage string // "decode" | "validate" | "persist"
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %v", e.Stage, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
// #endregion configuration-error
