package gateway

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Roles accepted at signup.
var Roles = []string{
	"student",
	"teacher",
	"scientist",
	"journalist",
	"engineer",
	"healthcare_professional",
	"general_user",
}

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	specialChars    = `!@#$%^&*(),.?":{}|<>`
)

// Credentials are what a user types to sign in. Identifier is an email or
// a username.
type Credentials struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// SignupForm is the account creation form.
type SignupForm struct {
	Email           string `json:"email" validate:"omitempty,email"`
	Username        string `json:"username" validate:"omitempty,username"`
	Role            string `json:"role" validate:"required,role"`
	Language        string `json:"language" validate:"omitempty,oneof=en te hi"`
	Password        string `json:"password" validate:"required,min=8,max=128,strongpassword"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

// ProfileUpdate edits the signed-in user's profile.
type ProfileUpdate struct {
	Username  string `json:"username,omitempty" validate:"omitempty,username"`
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
	Language  string `json:"language,omitempty" validate:"omitempty,oneof=en te hi"`
}

// ReviewForm rates the service from 1 to 5.
type ReviewForm struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=1000"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	RegisterFormValidations(v)

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		f := sl.Current().Interface().(SignupForm)
		if f.Email == "" && f.Username == "" {
			sl.ReportError(f.Username, "username", "Username", "email_or_username", "")
		}
	}, SignupForm{})

	return v
}

// RegisterFormValidations adds the username, strongpassword and role tags
// to v and names fields by their json tag. The backend registers them on
// its request binder too.
func RegisterFormValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return len(PasswordProblems(fl.Field().String())) == 0
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return ValidRole(fl.Field().String())
	})
}

// ValidUsername reports whether s is 3-20 letters, digits or underscores.
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// ValidRole reports whether role is one of Roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PasswordProblems lists the unmet password requirements.
func PasswordProblems(pw string) []string {
	var problems []string
	if len(pw) < 8 {
		problems = append(problems, "at least 8 characters")
	}
	if len(pw) > 128 {
		problems = append(problems, "not more than 128 characters")
	}

	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}
	if !upper {
		problems = append(problems, "one uppercase letter")
	}
	if !lower {
		problems = append(problems, "one lowercase letter")
	}
	if !digit {
		problems = append(problems, "one number")
	}
	if !special {
		problems = append(problems, "one special character")
	}
	return problems
}

// Validate checks a form before it is sent. It returns a *ValidationError
// or nil.
func Validate(form any) error {
	if err := validate.Struct(form); err != nil {
		return FieldErrors(err)
	}
	return nil
}

// FieldErrors converts a validator error into a *ValidationError keyed by
// json field name.
func FieldErrors(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: map[string]string{"form": err.Error()}}
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "username":
		return "must be 3-20 characters of letters, numbers or _"
	case "email_or_username":
		return "enter either an email or a username"
	case "role":
		return "must be one of " + strings.Join(Roles, ", ")
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "strongpassword":
		return "needs " + strings.Join(PasswordProblems(fmt.Sprint(fe.Value())), ", ")
	case "eqfield":
		return "passwords do not match"
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
	}
	return "is invalid"
}
