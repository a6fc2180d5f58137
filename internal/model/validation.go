package model

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Input limits for product fields
const (
	MaxNameLength = 200
	MaxImages     = 10
)

// MaxAmount bounds price and deposit
var MaxAmount = decimal.NewFromInt(999999)

// ValidationError is returned when input is rejected before any write
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = NewValidator()

// NewValidator returns a validator with the catalog's custom rules registered
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, ok := NormalizeCategory(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	return v
}

// StrongPassword reports whether pw mixes upper case, lower case and digits
func StrongPassword(pw string) bool {
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// Validator returns the shared validator instance
func Validator() *validator.Validate {
	return validate
}

// NormalizeName trims and checks a product name
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", NewValidationError("name", "name is too long")
	}
	return name, nil
}

// NormalizeSizes trims and uppercases size labels, drops empty entries and rejects duplicates
func NormalizeSizes(sizes []string) ([]string, error) {
	out := make([]string, 0, len(sizes))
	seen := make(map[string]bool, len(sizes))
	for _, s := range sizes {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if seen[s] {
			return nil, NewValidationError("sizes", fmt.Sprintf("duplicate size %q", s))
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, NewValidationError("sizes", "at least one size is required")
	}
	return out, nil
}

// ParseSizes splits a comma separated size list such as "xs, s,M"
func ParseSizes(list string) ([]string, error) {
	return NormalizeSizes(strings.Split(list, ","))
}

// ValidateImages checks the image list bounds
func ValidateImages(images []string) error {
	if len(images) == 0 {
		return NewValidationError("images", "at least one image is required")
	}
	if len(images) > MaxImages {
		return NewValidationError("images", fmt.Sprintf("at most %d images are allowed", MaxImages))
	}
	for _, img := range images {
		if strings.TrimSpace(img) == "" {
			return NewValidationError("images", "image references must not be empty")
		}
	}
	return nil
}

// ValidatePrice checks 0 < price <= MaxAmount
func ValidatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return NewValidationError("price", "price must be positive")
	}
	if price.GreaterThan(MaxAmount) {
		return NewValidationError("price", "price is too high")
	}
	return nil
}

// ValidateDeposit checks 0 <= deposit <= MaxAmount
func ValidateDeposit(deposit decimal.Decimal) error {
	if deposit.IsNegative() {
		return NewValidationError("deposit", "deposit must not be negative")
	}
	if deposit.GreaterThan(MaxAmount) {
		return NewValidationError("deposit", "deposit is too high")
	}
	return nil
}

// DefaultDeposit is half the price rounded to whole currency units
func DefaultDeposit(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromFloat(0.5)).Round(0)
}

// Normalize validates the input and returns the product to insert for brand
func (n NewProduct) Normalize(brand string) (Product, error) {
	name, err := NormalizeName(n.Name)
	if err != nil {
		return Product{}, err
	}
	n.Name = name

	sizes, err := NormalizeSizes(n.Sizes)
	if err != nil {
		return Product{}, err
	}
	n.Sizes = sizes

	if err := validate.Struct(n); err != nil {
		return Product{}, Translate(err)
	}
	if err := ValidatePrice(n.Price); err != nil {
		return Product{}, err
	}
	if n.Deposit != nil {
		if err := ValidateDeposit(*n.Deposit); err != nil {
			return Product{}, err
		}
	}

	category, _ := NormalizeCategory(n.Category)
	p := Product{
		Brand:    brand,
		Name:     n.Name,
		Category: category,
		Images:   append([]string(nil), n.Images...),
		Sizes:    n.Sizes,
		Price:    n.Price,
	}
	if n.Deposit != nil {
		d := *n.Deposit
		p.Deposit = &d
	}
	return p, nil
}

// Translate turns validator errors into a ValidationError for the first failing field
func Translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewValidationError("", err.Error())
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return NewValidationError(field, field+" is required")
	case "category":
		return NewValidationError(field, "invalid category")
	case "email":
		return NewValidationError(field, "invalid email address")
	case "password_strength":
		return NewValidationError(field, "password needs upper case, lower case and a digit")
	case "min":
		if fe.Kind() == reflect.String {
			return NewValidationError(field, fmt.Sprintf("%s needs at least %s characters", field, fe.Param()))
		}
		return NewValidationError(field, fmt.Sprintf("%s needs at least %s entries", field, fe.Param()))
	case "max":
		if fe.Kind() == reflect.String {
			return NewValidationError(field, fmt.Sprintf("%s allows at most %s characters", field, fe.Param()))
		}
		return NewValidationError(field, fmt.Sprintf("%s allows at most %s entries", field, fe.Param()))
	default:
		return NewValidationError(field, fmt.Sprintf("%s is invalid", field))
	}
}
