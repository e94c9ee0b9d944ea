// Package validation checks edit forms and API requests before anything
// reaches the network, using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/folioadmin/folio-admin/internal/domain"
	domainerrors "github.com/folioadmin/folio-admin/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		name, _, _ = strings.Cut(name, ",")
		return name
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// ValidateForm checks a flat form against the kind schema.
//
// Required scalars must be present. Required localized fields must be present
// for every language in create mode; in edit mode only for languages the form
// carries at all, since a language missing on load is left untouched.
func (v *Validator) ValidateForm(schema *domain.Schema, form domain.Form, langs []domain.LanguageCode, create bool) error {
	rules := make(map[string]any)
	data := make(map[string]any)

	for _, sc := range schema.Scalars {
		if rule := scalarRule(sc); rule != "" {
			rules[sc.Name] = rule
			data[sc.Name] = form[sc.Name]
		}
	}

	for _, lang := range langs {
		if !create && !carriesLanguage(schema, form, lang) {
			continue
		}
		for _, f := range schema.Localized {
			if !f.Required {
				continue
			}
			key := domain.SlotKey(lang, f.Name)
			rules[key] = "required"
			data[key] = strings.TrimSpace(form[key])
		}
	}

	errs := v.v.ValidateMap(data, rules)
	if len(errs) == 0 {
		return nil
	}

	fieldErrors := make(map[string]string, len(errs))
	for key, err := range errs {
		var ve validator.ValidationErrors
		if e, ok := err.(error); ok && errors.As(e, &ve) && len(ve) > 0 {
			fieldErrors[key] = v.friendlyMessage(ve[0])
			continue
		}
		fieldErrors[key] = "is invalid"
	}
	keys := slices.Sorted(maps.Keys(fieldErrors))
	return domainerrors.ValidationWithDetails("invalid fields: "+strings.Join(keys, ", "), fieldErrors)
}

func scalarRule(sc domain.Scalar) string {
	var tags []string
	if sc.Required {
		tags = append(tags, "required")
	} else {
		tags = append(tags, "omitempty")
	}
	switch sc.Type {
	case domain.ScalarInt:
		tags = append(tags, "number")
	case domain.ScalarBool:
		tags = append(tags, "boolean")
	}
	if sc.URL {
		tags = append(tags, "url")
	}
	if len(tags) == 1 && tags[0] == "omitempty" {
		return ""
	}
	return strings.Join(tags, ",")
}

func carriesLanguage(schema *domain.Schema, form domain.Form, lang domain.LanguageCode) bool {
	for _, f := range schema.Localized {
		if _, ok := form.Get(domain.SlotKey(lang, f.Name)); ok {
			return true
		}
	}
	return false
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string)
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = v.friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "number":
		return "must be an integer"
	case "boolean":
		return "must be true or false"
	case "url", "http_url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}
