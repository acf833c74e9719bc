// Package validation wraps go-playground/validator with the rules the media
// API needs and reports failures keyed by JSON field name.
package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

var mimeTypeRe = regexp.MustCompile(`^(image|video|audio|application|text)/[a-z0-9][a-z0-9.+-]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(jsonFieldName)

	// UUID is a byte array, rules apply to its text form
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if id, ok := f.Interface().(uuid.UUID); ok {
			return id.String()
		}
		return nil
	}, uuid.UUID{})

	rules := map[string]validator.Func{
		"mimetype": func(fl validator.FieldLevel) bool {
			return mimeTypeRe.MatchString(strings.ToLower(fl.Field().String()))
		},
		"suffix": func(fl validator.FieldLevel) bool {
			return slices.Contains(model.RenditionSuffixes, fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// FieldErrors maps a JSON field name to the rule it broke.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + fe[f]
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

// JSON is the response payload for a failed validation.
func (fe FieldErrors) JSON() ([]byte, error) {
	return json.Marshal(map[string]string(fe))
}

// Struct validates s. Rule violations come back as FieldErrors, anything
// else (e.g. a non-struct argument) is returned as is.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	fe := make(FieldErrors, len(ves))
	for _, ve := range ves {
		fe[ve.Field()] = ve.Tag()
	}
	return fe
}
