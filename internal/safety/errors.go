package safety

// ErrorKind distinguishes policy rejection causes.
type ErrorKind string

const (
	KindEmptyCommand ErrorKind = "empty_command"
	KindDenied       ErrorKind = "denied"
	KindNotAllowed   ErrorKind = "not_allowed"
	KindMetachar     ErrorKind = "metachar"
)

// PolicyError is returned for any policy rejection, before any spawn.
type PolicyError struct {
	Kind   ErrorKind
	Detail string
}

func (e *PolicyError) Error() string {
	return "blocked by policy: " + e.Detail
}
