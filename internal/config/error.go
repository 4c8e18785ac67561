package config

import "fmt"

// Error is a descriptor-level configuration error. All descriptor problems
// are fatal and reported before any container is touched.
type Error struct {
	Service string // offending service name, if the problem is service-scoped
	Field   string // offending field, if known (e.g. "depends_on", "ports")
	Msg     string
	Err     error // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Service != "" && e.Field != "":
		return fmt.Sprintf("service %q: %s: %s", e.Service, e.Field, msg)
	case e.Service != "":
		return fmt.Sprintf("service %q: %s", e.Service, msg)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error { return e.Err }
