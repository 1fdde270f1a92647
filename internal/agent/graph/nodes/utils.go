package nodes

// DefaultMaxRetries bounds judge-triggered correction cycles: at most two
// full model/tool cycles per request.
const DefaultMaxRetries = 1

// NormalizeMaxRetries returns a sane default when the provided value is invalid.
func NormalizeMaxRetries(n int) int {
	if n < 0 {
		return DefaultMaxRetries
	}
	return n
}
