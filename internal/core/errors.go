package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrIDFNotFound     = errors.New("idf not found")
	ErrIDFExists       = errors.New("idf already exists")
	ErrClusterNotFound = errors.New("cluster not found")
	ErrProjectNotFound = errors.New("project not found")

	ErrNoTable     = errors.New("idf has no table")
	ErrTableExists = errors.New("idf already has a table")

	ErrAssetNotFound = errors.New("asset not found")
	ErrInvalidAsset  = errors.New("invalid asset")

	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrForbidden          = errors.New("admin access required")

	// ErrInvalidInput is the parent of every request validation failure.
	ErrInvalidInput = errors.New("invalid input")
)

// InputError is a validation failure on a single field.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalidInput(field, format string, args ...any) error {
	return &InputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AsInputError converts validator failures from a Validator into an
// *InputError. Other errors pass through.
func AsInputError(err error) error { return inputErrorFrom(err) }

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// inputErrorFrom converts validator failures into an InputError naming the
// first offending field. Other errors pass through.
func inputErrorFrom(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fieldPath(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return invalidInput(field, "is required")
	case "min":
		return invalidInput(field, "must be at least %s", fe.Param())
	case "max":
		return invalidInput(field, "must be at most %s characters", fe.Param())
	case "email":
		return invalidInput(field, "must be a valid email address")
	case "oneof":
		return invalidInput(field, "must be one of: %s", fe.Param())
	default:
		return invalidInput(field, "failed %q validation", fe.Tag())
	}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
