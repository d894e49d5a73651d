package keyderiver

import "crypto/rand"

// RandomBytes fills and returns n cryptographically secure random bytes,
// realizing the "random" external primitive of spec.md §6. crypto/rand.Read
// is safe for concurrent use by multiple worker goroutines, satisfying the
// "must be thread-safe and reentrant" requirement of spec.md §5.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
