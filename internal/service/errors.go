package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrEmailExists           = errors.New("email already exists, please use a different one")
	ErrUserNotFound          = errors.New("user not found")
	ErrRecipientNotFound     = errors.New("recipient not found")
	ErrSelfRequest           = errors.New("you can't send friend request to yourself")
	ErrAlreadyFriends        = errors.New("you are already friends with this user")
	ErrDuplicateRequest      = errors.New("a friend request already exists between you and this user")
	ErrFriendRequestNotFound = errors.New("friend request not found")
	ErrNotRequestRecipient   = errors.New("you are not authorized to accept this request")
)

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Message       string
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// tagPriority orders malformed-field reports when several fields fail at once.
// Unlisted tags sort last.
var tagPriority = map[string]int{
	"min":   1,
	"email": 2,
}

// validateInput converts validator failures into a ValidationError. Missing
// fields win over malformed ones so the caller sees the full list at once.
func validateInput(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var missing []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Message: "All fields are required", MissingFields: missing}
	}

	fe := fieldErrs[0]
	for _, candidate := range fieldErrs[1:] {
		if priority(candidate.Tag()) < priority(fe.Tag()) {
			fe = candidate
		}
	}
	switch fe.Tag() {
	case "email":
		return &ValidationError{Message: "Invalid email format"}
	case "min":
		return &ValidationError{Message: fmt.Sprintf("%s must be at least %s characters", label(fe.Field()), fe.Param())}
	default:
		return &ValidationError{Message: fmt.Sprintf("%s is invalid", label(fe.Field()))}
	}
}

func priority(tag string) int {
	if p, ok := tagPriority[tag]; ok {
		return p
	}
	return len(tagPriority) + 1
}

func label(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
