package chassis

import "strings"

// Sigils marking reference strings in argument trees.
const (
	ScalarSigil  = "$"
	ServiceSigil = "@"
)

// IsScalarRef reports whether token is a string naming a scalar, like "$port".
func IsScalarRef(token any) bool {
	s, ok := token.(string)
	return ok && strings.HasPrefix(s, ScalarSigil)
}

// IsServiceRef reports whether token is a string naming a service, like "@db".
func IsServiceRef(token any) bool {
	s, ok := token.(string)
	return ok && strings.HasPrefix(s, ServiceSigil)
}
