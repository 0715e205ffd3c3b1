package domain

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// ClampPage returns the limit and offset a listing actually applies: a
// non-positive limit becomes DefaultPageLimit, larger limits are capped at
// MaxPageLimit and a negative offset becomes zero.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
