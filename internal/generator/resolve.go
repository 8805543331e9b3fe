package generator

// Precedence for every resolve helper: candidates are tried left to right and
// the first usable one wins; def is returned when none is usable.

// Resolve returns the first candidate that is not the zero value.
func Resolve[T comparable](def T, candidates ...T) T {
	var zero T
	for _, c := range candidates {
		if c != zero {
			return c
		}
	}
	return def
}

// ResolvePtr returns the value behind the first non-nil candidate.
func ResolvePtr[T any](def T, candidates ...*T) T {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return def
}

// ResolveSlice returns the first non-empty candidate.
func ResolveSlice[T any](def []T, candidates ...[]T) []T {
	for _, c := range candidates {
		if len(c) > 0 {
			return c
		}
	}
	return def
}
