package utils

import (
	"reflect"
	"regexp"

	"github.com/pkg/errors"
)

// ValidNameRegex is the pattern that matches to a valid name.
// The name must begin with a letter or number i.e. [a-zA-Z0-9],
// and can only contain up to 60, letters, numbers, dashes, and underscores i.e. [-\w]*.
var ValidNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([-\w]){0,59}$`)

// ErrInvalidName returns a human-readable error for when ValidNameRegex doesn't match.
func ErrInvalidName(name string) error {
	if len(name) > 60 {
		// this is broken out to improve readability of the error msg
		return errors.Errorf("name %q must be 60 characters or fewer", name)
	}
	return errors.Errorf("name %q must start with a letter or number and must only contain letters, numbers, dashes, and underscores", name)
}

// typeStr names a value's type for an error message. Pass a nil pointer of
// the desired type, e.g. (*SomeInterface)(nil), to name an interface rather
// than whatever concrete value happens to implement it.
func typeStr(v interface{}) string {
	if v == nil {
		return "<unknown (nil interface)>"
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
		return t.Elem().String()
	}
	return t.String()
}

// DependencyTypeError is used when a dependency is not of the expected type.
func DependencyTypeError(name string, expected, actual interface{}) error {
	return errors.Errorf("dependency %q should be an implementation of %s but it was a %s",
		name, typeStr(expected), typeStr(actual))
}

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected, actual interface{}) error {
	return errors.Errorf("expected %s but got %s", typeStr(expected), typeStr(actual))
}

// NewUnimplementedInterfaceError is used when there is a failed interface check.
func NewUnimplementedInterfaceError(expected, actual interface{}) error {
	return errors.Errorf("expected implementation of %s but got %s", typeStr(expected), typeStr(actual))
}
