// Package callback provides partial application helpers for retry hooks.
//
// Retry policies accept zero-argument callbacks. When a hook needs a fixed
// payload bound at configuration time, Bind closes over the target function
// and its arguments and yields the zero-argument form the policy expects.
package callback

// Callback is a zero-argument hook invoked by the retry engine.
type Callback func()

// Bind returns a Callback that invokes fn with the given argument.
func Bind[T any](fn func(T), arg T) Callback {
	return func() { fn(arg) }
}

// Bind2 returns a Callback that invokes fn with the given two arguments.
func Bind2[A, B any](fn func(A, B), a A, b B) Callback {
	return func() { fn(a, b) }
}

// Bind3 returns a Callback that invokes fn with the given three arguments.
func Bind3[A, B, C any](fn func(A, B, C), a A, b B, c C) Callback {
	return func() { fn(a, b, c) }
}

// Chain returns a Callback that invokes the given callbacks in order,
// skipping nil entries.
func Chain(cbs ...Callback) Callback {
	return func() {
		for _, cb := range cbs {
			if cb != nil {
				cb()
			}
		}
	}
}
