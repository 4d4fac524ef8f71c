// Package failure classifies errors for retry decisions.
//
// A retry policy carries two matcher sets: the included set names the failures
// worth retrying, the excluded set names the failures that must surface
// immediately even if the included set would match them. Matching walks the
// error chain with errors.Is, so a wrapped (more specific) error matches the
// sentinel it wraps.
package failure

import "errors"

// Class is the verdict of classifying a failed attempt.
type Class int

const (
	// Retry means the failure matched the included set and may be retried.
	Retry Class = iota
	// Excluded means the failure matched the excluded set and must surface
	// immediately, exactly as raised.
	Excluded
	// Unmatched means the failure matched neither set and must surface
	// immediately, exactly as raised.
	Unmatched
)

// String returns the string representation of the Class.
func (c Class) String() string {
	switch c {
	case Retry:
		return "Retry"
	case Excluded:
		return "Excluded"
	case Unmatched:
		return "Unmatched"
	default:
		return "Unknown"
	}
}

// Matcher reports whether an error belongs to a category of failures.
type Matcher interface {
	Matches(err error) bool
}

type matcherFunc func(error) bool

func (f matcherFunc) Matches(err error) bool { return f(err) }

// Func adapts a predicate into a Matcher.
func Func(fn func(error) bool) Matcher {
	return matcherFunc(fn)
}

// Is returns a Matcher that matches any error whose chain contains one of the
// given targets, in the sense of errors.Is.
func Is(targets ...error) Matcher {
	return matcherFunc(func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	})
}

// Any returns a Matcher that matches every non-nil error.
func Any() Matcher {
	return matcherFunc(func(err error) bool {
		return err != nil
	})
}

// Set is a group of matchers combined with OR semantics.
type Set []Matcher

// Matches reports whether any matcher in the set matches err.
func (s Set) Matches(err error) bool {
	if err == nil {
		return false
	}
	for _, m := range s {
		if m != nil && m.Matches(err) {
			return true
		}
	}
	return false
}

// Classify decides what to do with a failed attempt. The excluded set takes
// precedence over the included set; an empty or nil included set matches all
// failures.
func Classify(err error, included, excluded Set) Class {
	if excluded.Matches(err) {
		return Excluded
	}
	if len(included) == 0 || included.Matches(err) {
		return Retry
	}
	return Unmatched
}
