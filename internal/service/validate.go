package service

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/klaape/klaape-api/internal/apperr"
	"github.com/klaape/klaape-api/internal/domain/profile"
)

// validate checks the same `binding` tags gin applies at the HTTP edge, so
// services stay safe when called from anywhere else.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	v.RegisterTagNameFunc(JSONFieldName)
	_ = v.RegisterValidation("username", ValidUsername)
	_ = v.RegisterValidation("maxbytes", MaxBytes)
	v.RegisterStructValidation(ProfilePatchRules, profile.UpdateRequest{})
	return v
}

// JSONFieldName reports fields by their JSON key so error paths match the
// request body.
func JSONFieldName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return sf.Name
	}
	return name
}

// ValidUsername allows letters, digits and @ . + - _ like the original accounts.
func ValidUsername(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '@', r == '.', r == '+', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// MaxBytes limits the encoded length of a string, for values such as bcrypt
// input where multibyte characters count more than once.
func MaxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// ProfilePatchRules checks hourly_rate as NUMERIC(10, 2): non-negative, at
// most eight integer digits and two decimal places. An explicit null passes.
func ProfilePatchRules(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(profile.UpdateRequest)
	if !ok {
		return
	}

	rate := req.HourlyRate
	if !rate.Set || rate.Null {
		return
	}

	switch {
	case rate.Value < 0:
		sl.ReportError(rate.Value, "hourly_rate", "HourlyRate", "gte", "0")
	case rate.Value > profile.MaxHourlyRate:
		sl.ReportError(rate.Value, "hourly_rate", "HourlyRate", "lte", profile.MaxHourlyRateText)
	case rate.Places() > profile.RatePlaces:
		sl.ReportError(rate.Value, "hourly_rate", "HourlyRate", "decimal_places", strconv.Itoa(profile.RatePlaces))
	}
}

func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &apperr.ValidationError{Fields: make([]apperr.FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, apperr.FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: ValidationMessage(fe.Tag(), fe.Param()),
		})
	}
	return out
}

func ValidationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "username":
		return "may contain only letters, numbers, and @/./+/-/_ characters"
	case "maxbytes":
		return "must be at most " + param + " bytes"
	case "decimal_places":
		return "must have no more than " + param + " decimal places"
	case "min", "gte":
		return "must be at least " + param
	case "max", "lte":
		return "must be at most " + param
	case "gt":
		return "must be greater than " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return "failed " + rule + " validation (" + param + ")"
		}
		return "failed " + rule + " validation"
	}
}
