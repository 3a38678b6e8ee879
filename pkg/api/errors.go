package api

import "fmt"

// LookupError reports a projected attribute that an outcome does not have.
type LookupError struct {
	Kind string
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s has no attribute %q", e.Kind, e.Name)
}
