package enhance

import "fmt"

// ConfigurationError reports an enhancement setting outside its valid domain.
//
// It is a caller programming error and is returned by New before any image is
// touched.
type ConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid enhancement config: %s", e.Reason)
	}
	return fmt.Sprintf("invalid enhancement config: %s=%v %s", e.Field, e.Value, e.Reason)
}
