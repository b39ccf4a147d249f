// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// tokenIDRegex matches canonical token identifiers: lowercase
// alphanumerics and hyphens, e.g. "bitcoin" or "usd-coin".
var tokenIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// supportedCurrencies are the quote currencies the API can serve.
var supportedCurrencies = map[string]bool{
	"usd": true,
	"ngn": true,
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("token_id", validateTokenID)
		_ = v.RegisterValidation("supported_currency", validateSupportedCurrency)
	}
}

// Bound values are canonicalized before matching so "Bitcoin" and
// " usd " validate; handlers canonicalize again for lookups.
func validateTokenID(fl validator.FieldLevel) bool {
	return IsTokenID(Canonical(fl.Field().String()))
}

func validateSupportedCurrency(fl validator.FieldLevel) bool {
	return IsSupportedCurrency(Canonical(fl.Field().String()))
}

// Canonical normalizes a client-supplied identifier or currency code.
func Canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsSupportedCurrency reports whether the API can quote in the given currency.
func IsSupportedCurrency(code string) bool {
	return supportedCurrencies[code]
}

// IsTokenID reports whether s looks like a canonical token identifier.
func IsTokenID(s string) bool {
	return tokenIDRegex.MatchString(s)
}
