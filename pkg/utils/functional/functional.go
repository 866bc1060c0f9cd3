package functional

// Option mutates an options struct. Packages expose typed With*
// helpers and resolve them at construction.
type Option[T any] func(T) T

// ResolveOptions folds a set of options over the zero value of T.
func ResolveOptions[T any](opts ...Option[T]) T {
	var options T
	for _, opt := range opts {
		if opt != nil {
			options = opt(options)
		}
	}
	return options
}
