package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"form-intake/pkg/models"
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the list of field-level failures for one submission.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// Fields returns the names of the rejected fields in order.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for _, fe := range e {
		fields = append(fields, fe.Field)
	}
	return fields
}

// candidate holds the normalized string fields while the struct rules run.
type candidate struct {
	ID     string `json:"id" validate:"required,excludesall=/,docid"`
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Mobile string `json:"mobile" validate:"required,phone"`
}

var fieldOrder = []string{
	models.FieldID,
	models.FieldName,
	models.FieldEmail,
	models.FieldMobile,
	models.FieldCheckbox1,
}

// Digits with an optional leading plus, E.164 length bounds.
var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{6,14}$`)

// Firestore rejects longer document ids.
const maxIDBytes = 1500

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

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

	// registration only fails on an empty tag or a nil func
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("docid", func(fl validator.FieldLevel) bool {
		return validDocumentID(fl.Field().String())
	})

	return v
}

// Validate turns a raw submission into a UserRecord, or returns Errors
// listing every field that failed. It performs no I/O.
func Validate(raw models.RawSubmission) (models.UserRecord, error) {
	failed := map[string]string{}
	fail := func(field, msg string) {
		if _, seen := failed[field]; !seen {
			failed[field] = msg
		}
	}

	c := candidate{}
	for _, f := range []struct {
		key string
		dst *string
	}{
		{models.FieldID, &c.ID},
		{models.FieldName, &c.Name},
		{models.FieldEmail, &c.Email},
		{models.FieldMobile, &c.Mobile},
	} {
		s, ok := stringField(raw, f.key)
		switch {
		case !ok:
			fail(f.key, "must be a string")
		case !utf8.ValidString(s):
			// checked before normalizing, which would replace the bad bytes
			fail(f.key, "must be valid UTF-8")
		default:
			*f.dst = s
		}
	}

	c.Email = NormalizeEmail(c.Email)
	c.Mobile = NormalizeMobile(c.Mobile)

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !asValidationErrors(err, &verrs) {
			return models.UserRecord{}, fmt.Errorf("error running validator: %w", err)
		}
		for _, fe := range verrs {
			fail(fe.Field(), messageFor(fe))
		}
	}

	consent, present := raw[models.FieldCheckbox1]
	checked, parsed := parseBool(consent)
	switch {
	case !present || consent == nil:
		fail(models.FieldCheckbox1, "is required")
	case !parsed:
		fail(models.FieldCheckbox1, "must be a boolean")
	}

	if len(failed) > 0 {
		errs := make(Errors, 0, len(failed))
		for _, field := range fieldOrder {
			if msg, ok := failed[field]; ok {
				errs = append(errs, FieldError{Field: field, Message: msg})
			}
		}
		return models.UserRecord{}, errs
	}

	return models.UserRecord{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Mobile:    c.Mobile,
		Checkbox1: checked,
	}, nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeMobile strips the usual separators from a phone number.
func NormalizeMobile(mobile string) string {
	return phoneSeparators.Replace(strings.TrimSpace(mobile))
}

// validDocumentID rejects the ids Firestore refuses as document names:
// "." and "..", ids of the form __name__, and ids over maxIDBytes.
func validDocumentID(id string) bool {
	if id == "." || id == ".." || len(id) > maxIDBytes {
		return false
	}
	return !(len(id) >= 4 && strings.HasPrefix(id, "__") && strings.HasSuffix(id, "__"))
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	case "excludesall":
		return "must not contain '" + fe.Param() + "'"
	case "docid":
		return "is reserved or longer than 1500 bytes"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// stringField returns the trimmed string at key. A missing key yields ""
// and true so the required rule reports it.
func stringField(raw models.RawSubmission, key string) (string, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", true
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	case []string:
		if len(s) == 0 {
			return "", true
		}
		return strings.TrimSpace(s[len(s)-1]), true
	default:
		return "", false
	}
}

func parseBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "on", "yes":
			return true, true
		case "false", "0", "off", "no":
			return false, true
		}
	case []string:
		if len(b) > 0 {
			return parseBool(b[len(b)-1])
		}
	case float64:
		switch b {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	}
	return false, false
}
