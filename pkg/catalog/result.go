package catalog

// Result holds either a value or the error that prevented it.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps an error.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Unwrap returns the value and error as a pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

// OrEmpty returns the value, or the zero T on failure.
func (r Result[T]) OrEmpty() T {
	if r.Err != nil {
		var zero T
		return zero
	}
	return r.Value
}
