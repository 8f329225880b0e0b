package utils

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// report json names so API errors match the request body
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("no_xss", validateNoXSS)
	})
	return validate
}

// ValidateStruct runs struct tag validation and flattens the first failure into
// (field, message). Returns ok=true when the struct is valid.
func ValidateStruct(s interface{}) (field, message string, ok bool) {
	err := Validator().Struct(s)
	if err == nil {
		return "", "", true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fe.Field(), "failed '" + fe.Tag() + "' validation", false
	}
	return "", err.Error(), false
}

// validateNoXSS rejects free text carrying obvious script injection
func validateNoXSS(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	for _, p := range []string{"<script", "javascript:", "onerror=", "onload=", "<iframe"} {
		if strings.Contains(value, p) {
			return false
		}
	}
	return true
}
