package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataDomain matches any DataDomainError via errors.Is.
	ErrDataDomain = errors.New("data domain violation")
	// ErrUnknownCategory matches any UnknownCategoryError via errors.Is.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrModelUntrained is returned when scoring is requested before a model exists.
	ErrModelUntrained = errors.New("severity model has not been trained")
)

// DataDomainError reports a field whose value violates its declared domain.
type DataDomainError struct {
	Field  string
	Value  any
	Reason string
}

func (e *DataDomainError) Error() string {
	return fmt.Sprintf("%s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *DataDomainError) Is(target error) bool { return target == ErrDataDomain }

// UnknownCategoryError reports a categorical value outside its enumeration.
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Field, e.Value)
}

func (e *UnknownCategoryError) Is(target error) bool { return target == ErrUnknownCategory }

// UnknownCategories extracts every UnknownCategoryError from a (possibly joined) error.
func UnknownCategories(err error) []*UnknownCategoryError {
	var out []*UnknownCategoryError
	walkErrors(err, func(e error) {
		if u, ok := e.(*UnknownCategoryError); ok {
			out = append(out, u)
		}
	})
	return out
}

// HasDataDomainViolation reports whether err contains at least one DataDomainError.
func HasDataDomainViolation(err error) bool {
	found := false
	walkErrors(err, func(e error) {
		if _, ok := e.(*DataDomainError); ok {
			found = true
		}
	})
	return found
}

func walkErrors(err error, fn func(error)) {
	if err == nil {
		return
	}
	fn(err)
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			walkErrors(inner, fn)
		}
	case interface{ Unwrap() error }:
		walkErrors(x.Unwrap(), fn)
	}
}
