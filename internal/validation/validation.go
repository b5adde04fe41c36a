// Package validation checks itinerary requests before they reach a pathway.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/classify"
	"github.com/vietddude/itinerary/internal/recovery/failure"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// FieldIssue is one problem found in a request. Code is set on blocking issues.
type FieldIssue struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Value    any      `json:"value,omitempty"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code,omitempty"`
}

// Result is the outcome of ValidateItinerary. Warnings never make it invalid.
type Result struct {
	Valid   bool         `json:"valid"`
	Errors  []FieldIssue `json:"errors"`
	Summary string       `json:"summary"`
}

// Count returns the number of issues with the given severity.
func (r Result) Count(sev Severity) int {
	n := 0
	for _, e := range r.Errors {
		if e.Severity == sev {
			n++
		}
	}
	return n
}

// FirstError returns the first blocking issue.
func (r Result) FirstError() (FieldIssue, bool) {
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			return e, true
		}
	}
	return FieldIssue{}, false
}

// Issue codes of blocking issues.
const (
	CodeRequired = "REQUIRED"
	CodeInvalid  = "INVALID"
)

var leadingNr = regexp.MustCompile(`^\s*(\d+)`)

const (
	maxDays        = 30
	maxTravellers  = 20
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

// ValidateItinerary checks req. Blocking rules are the validate tags on the
// request types; the warnings below never make a request invalid. now decides
// whether the start date is in the past.
func ValidateItinerary(req *domain.ItineraryRequest, now time.Time) Result {
	if req == nil {
		req = &domain.ItineraryRequest{}
	}

	issues := append(structIssues(req), warnings(req, now)...)
	sortIssues(issues)

	res := Result{Errors: issues}
	res.Valid = res.Count(SeverityError) == 0
	res.Summary = summarize(res.Count(SeverityError), res.Count(SeverityWarning))
	return res
}

func warnings(req *domain.ItineraryRequest, now time.Time) []FieldIssue {
	var out []FieldIssue
	warn := func(field, msg string, value any) {
		out = append(out, FieldIssue{Field: field, Message: msg, Value: value, Severity: SeverityWarning})
	}

	if start, ok := domain.ParseDate(req.Trip.StartDate); ok {
		y, m, d := now.Date()
		if start.Before(time.Date(y, m, d, 0, 0, 0, 0, now.Location())) {
			warn("startDate", "Start date is in the past", req.Trip.StartDate)
		}
	}
	if days := NumberOfDays(req); days > maxDays {
		warn("numberOfDays", fmt.Sprintf("Number of days cannot exceed %d", maxDays), days)
	}
	if t := req.Trip.Travelers; t > maxTravellers {
		warn("numberOfTravellers", fmt.Sprintf("Number of travellers cannot exceed %d", maxTravellers), t)
	}
	if phone := strings.TrimSpace(req.Customer.Phone); phone != "" && !ValidPhone(phone) {
		warn("customerPhone", "Please enter a valid phone number", req.Customer.Phone)
	}
	for i, day := range req.Itinerary.Days {
		if len(day.Activities) > 0 {
			continue
		}
		label := day.DayNumber
		if label == 0 {
			label = i + 1
		}
		warn(fmt.Sprintf("days[%d].activities", i), fmt.Sprintf("Day %d must have at least one activity", label), nil)
	}
	return out
}

// NumberOfDays reads the leading number of trip.duration ("5 Days"),
// falling back to the number of itinerary days.
func NumberOfDays(req *domain.ItineraryRequest) int {
	if m := leadingNr.FindStringSubmatch(req.Trip.Duration); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return len(req.Itinerary.Days)
}

// ValidPhone accepts 7 to 15 digits, ignoring any formatting.
func ValidPhone(phone string) bool {
	n := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n >= minPhoneDigits && n <= maxPhoneDigits
}

func summarize(errs, warns int) string {
	switch {
	case errs > 0 && warns > 0:
		return plural(errs, "error") + " found and " + plural(warns, "warning")
	case errs > 0:
		return plural(errs, "error") + " found"
	case warns > 0:
		return plural(warns, "warning") + " found"
	default:
		return "Form validation passed"
	}
}

func plural(n int, word string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss", n, word)
	}
	return fmt.Sprintf("%d %s", n, word)
}

var displayNames = map[string]string{
	"tripTitle":          "Trip Title",
	"destination":        "Destination",
	"startDate":          "Start Date",
	"endDate":            "End Date",
	"numberOfDays":       "Number of Days",
	"numberOfTravellers": "Number of Travellers",
	"customerName":       "Customer Name",
	"customerEmail":      "Customer Email",
	"customerPhone":      "Customer Phone",
}

// DisplayName maps a field path such as "days[0].activities" to a label.
func DisplayName(path string) string {
	base := strings.SplitN(strings.SplitN(path, "[", 2)[0], ".", 2)[0]
	if name, ok := displayNames[base]; ok {
		return name
	}
	return classify.FormatFieldName(path)
}

// ToInfo converts an invalid result into a VALIDATION failure.Info.
func ToInfo(r Result) failure.Info {
	var fields []failure.FieldError
	for _, e := range r.Errors {
		if e.Severity != SeverityError {
			continue
		}
		fields = append(fields, failure.FieldError{Field: DisplayName(e.Field), Message: e.Message, Value: e.Value})
	}
	entry := classify.Lookup(classify.CondValidation)
	return failure.Info{
		Category:    failure.CategoryValidation,
		Severity:    entry.Severity,
		Message:     r.Summary,
		UserMessage: "Form validation failed: " + r.Summary,
		Suggestions: []string{
			"Please fix all required fields",
			"Verify email addresses are valid",
			"Ensure all required information is provided",
		},
		ErrorCode:   "VALIDATION_ERROR",
		FieldErrors: fields,
	}
}

// AsError returns nil for a valid result, else a ValidationError carrying the
// blocking fields under their request paths.
func AsError(r Result) error {
	if r.Valid {
		return nil
	}
	var fields []failure.FieldError
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			fields = append(fields, failure.FieldError{Field: e.Field, Message: e.Message, Value: e.Value})
		}
	}
	return &failure.ValidationError{Message: "Form validation failed: " + r.Summary, Fields: fields}
}

// Validator adapts ValidateItinerary to the recovery coordinator's re-check.
func Validator(now func() time.Time) func(*domain.ItineraryRequest) (bool, string) {
	if now == nil {
		now = time.Now
	}
	return func(req *domain.ItineraryRequest) (bool, string) {
		r := ValidateItinerary(req, now())
		return r.Valid, r.Summary
	}
}
