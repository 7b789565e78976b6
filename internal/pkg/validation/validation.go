package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"roamstay-backend/internal/domain"
)

// ListingPayload is the client-supplied portion of a listing. The
// validate tags are the schema: Check enforces them and Describe serves
// them to form-rendering clients. Geometry and owner are never part of
// the payload; both are derived server-side.
type ListingPayload struct {
	Title       string  `json:"title" form:"title" validate:"required"`
	Description string  `json:"description" form:"description" validate:"required"`
	Price       float64 `json:"price" form:"price" validate:"gte=0"`
	Location    string  `json:"location" form:"location" validate:"required"`
	Country     string  `json:"country" form:"country" validate:"required"`
}

// ReviewPayload is the client-supplied portion of a review.
type ReviewPayload struct {
	Comment string `json:"comment" form:"comment" validate:"required"`
	Rating  int    `json:"rating" form:"rating" validate:"gte=1,lte=5"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report violations under the wire name, not the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Check evaluates every rule on the payload struct and returns all
// violations at once, so a client fixing a form sees the full picture
// rather than one error per round trip. A nil result means valid.
func Check(payload interface{}) []domain.FieldViolation {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []domain.FieldViolation{{Field: "payload", Message: "is not a valid object"}}
	}
	violations := make([]domain.FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, domain.FieldViolation{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return violations
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return "is invalid"
	}
}

// FieldRule describes one field of a payload schema. The form endpoints
// serve these so clients can render inputs from the same rules the
// server enforces.
type FieldRule struct {
	Field string `json:"field"`
	Type  string `json:"type"`
	Rules string `json:"rules"`
}

// Describe reads the payload struct's tags into a schema listing. Only
// fields with a validate tag are part of the schema.
func Describe(payload interface{}) []FieldRule {
	t := reflect.TypeOf(payload)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	rules := make([]FieldRule, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		fld := t.Field(i)
		tag := fld.Tag.Get("validate")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			name = fld.Name
		}
		rules = append(rules, FieldRule{
			Field: name,
			Type:  typeNameOf(fld.Type),
			Rules: tag,
		})
	}
	return rules
}

func typeNameOf(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	default:
		return t.Kind().String()
	}
}

// emailRe matches the signup form rule: /^[^\s@]+@[^\s@]+\.[^\s@]+$/
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidPassword enforces the signup password rule:
// - at least 8 characters
// - contains at least one letter
// - contains at least one number
// - contains at least one special character
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit, hasSpecial := false, false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}
