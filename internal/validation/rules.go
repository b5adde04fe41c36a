package validation

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vietddude/itinerary/internal/core/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	for tag, fn := range map[string]validator.Func{
		"notblank": notBlank,
		"isodate":  isoDate,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	v.RegisterStructValidation(tripRules, domain.Trip{})
	v.RegisterStructValidation(requestRules, domain.ItineraryRequest{})
	return v
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func isoDate(fl validator.FieldLevel) bool {
	_, ok := domain.ParseDate(fl.Field().String())
	return ok
}

// tripRules reports an end date that does not follow the start date. Missing
// or malformed dates are left to the field tags.
func tripRules(sl validator.StructLevel) {
	trip := sl.Current().Interface().(domain.Trip)
	start, okS := domain.ParseDate(trip.StartDate)
	end, okE := domain.ParseDate(trip.EndDate)
	if okS && okE && !start.Before(end) {
		sl.ReportError(trip.EndDate, "endDate", "EndDate", "gtfield", "startDate")
	}
}

func requestRules(sl validator.StructLevel) {
	req := sl.Current().Interface().(domain.ItineraryRequest)
	if days := NumberOfDays(&req); days < 1 {
		sl.ReportError(days, "numberOfDays", "NumberOfDays", "gte", "1")
	}
}

// formFields maps request paths to the form field names used in issues.
var formFields = map[string]string{
	"trip.title":       "tripTitle",
	"trip.destination": "destination",
	"trip.startDate":   "startDate",
	"trip.endDate":     "endDate",
	"trip.travelers":   "numberOfTravellers",
	"customer.name":    "customerName",
	"customer.email":   "customerEmail",
	"customer.phone":   "customerPhone",
	"itinerary.days":   "days",
}

// fieldOrder is the order fields appear on the form.
var fieldOrder = []string{
	"tripTitle", "destination", "startDate", "endDate", "numberOfDays",
	"numberOfTravellers", "customerName", "customerEmail", "customerPhone", "days",
}

func formField(namespace string) string {
	_, path, ok := strings.Cut(namespace, ".")
	if !ok {
		return namespace
	}
	if f, ok := formFields[path]; ok {
		return f
	}
	return strings.TrimPrefix(path, "itinerary.")
}

func fieldRank(field string) int {
	base, _, _ := strings.Cut(field, "[")
	if i := slices.Index(fieldOrder, base); i >= 0 {
		return i
	}
	return len(fieldOrder)
}

func sortIssues(issues []FieldIssue) {
	slices.SortStableFunc(issues, func(a, b FieldIssue) int {
		return cmp.Compare(fieldRank(a.Field), fieldRank(b.Field))
	})
}

// structIssues runs the tag rules on req.
func structIssues(req *domain.ItineraryRequest) []FieldIssue {
	var verrs validator.ValidationErrors
	if err := validate.Struct(req); !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldIssue, 0, len(verrs))
	for _, fe := range verrs {
		field := formField(fe.Namespace())
		out = append(out, FieldIssue{
			Field:    field,
			Message:  message(fe, field),
			Value:    fe.Value(),
			Severity: SeverityError,
			Code:     code(fe),
		})
	}
	return out
}

func code(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return CodeRequired
	}
	return CodeInvalid
}

// message renders fe for the form, in the manner of the document service's
// per-tag messages.
func message(fe validator.FieldError, field string) string {
	label, suffix := describe(field)
	var msg string
	switch fe.Tag() {
	case "required", "notblank":
		msg = label + " is required"
	case "email":
		msg = "Please enter a valid email address"
	case "isodate":
		msg = label + " must be a valid date"
	case "gtfield":
		msg = label + " must be after " + strings.ToLower(DisplayName(fe.Param()))
	case "min":
		switch fe.Kind() {
		case reflect.String:
			msg = fmt.Sprintf("%s must be at least %s characters long", label, fe.Param())
		case reflect.Slice:
			msg = "At least one day must be defined"
		default:
			msg = fmt.Sprintf("%s must be at least %s", label, fe.Param())
		}
	case "gte":
		if fe.Param() == "0" {
			msg = label + " cannot be negative"
		} else {
			msg = fmt.Sprintf("%s must be at least %s", label, fe.Param())
		}
	default:
		msg = "Invalid value for " + strings.ToLower(label)
	}
	return msg + suffix
}

// describe returns the sentence label of a field and, for activity fields,
// the day it belongs to.
func describe(field string) (label, suffix string) {
	var day, activity int
	var leaf string
	if n, _ := fmt.Sscanf(field, "days[%d].activities[%d].%s", &day, &activity, &leaf); n == 3 {
		return "Activity " + leaf, fmt.Sprintf(" for Day %d", day+1)
	}
	name := DisplayName(field)
	if len(name) < 2 {
		return name, ""
	}
	return name[:1] + strings.ToLower(name[1:]), ""
}
