package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/failure"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func validRequest() *domain.ItineraryRequest {
	return &domain.ItineraryRequest{
		Customer: domain.Customer{Name: "Rahul Sharma", Email: "rahul@example.com", Phone: "+91 98765 43210"},
		Trip: domain.Trip{
			Title:       "Singapore Escape",
			Destination: "Singapore",
			StartDate:   "2026-04-10",
			EndDate:     "2026-04-14",
			Duration:    "5 Days",
			Travelers:   2,
		},
		Itinerary: domain.Itinerary{Days: []domain.Day{
			{DayNumber: 1, Activities: []domain.Activity{{Name: "Gardens by the Bay", Price: 40}}},
			{DayNumber: 2, Activities: []domain.Activity{{Name: "Sentosa", Price: 0}}},
		}},
	}
}

func TestValidateItineraryPasses(t *testing.T) {
	res := ValidateItinerary(validRequest(), now)
	if !res.Valid {
		t.Fatalf("expected valid, got %+v", res.Errors)
	}
	if res.Summary != "Form validation passed" {
		t.Errorf("summary = %q", res.Summary)
	}
	if err := AsError(res); err != nil {
		t.Errorf("AsError = %v", err)
	}
}

func TestValidateItineraryErrorsAndWarnings(t *testing.T) {
	req := validRequest()
	req.Trip.Title = "SG"
	req.Customer.Email = "not-an-email"
	req.Customer.Phone = "12345"
	req.Trip.StartDate = "2026-02-01"
	req.Trip.EndDate = "2026-02-05"
	req.Itinerary.Days[1].Activities = nil

	res := ValidateItinerary(req, now)
	if res.Valid {
		t.Fatal("expected invalid")
	}
	if got := res.Count(SeverityError); got != 2 {
		t.Errorf("errors = %d, want 2: %+v", got, res.Errors)
	}
	if got := res.Count(SeverityWarning); got != 3 {
		t.Errorf("warnings = %d, want 3: %+v", got, res.Errors)
	}
	if res.Summary != "2 errors found and 3 warnings" {
		t.Errorf("summary = %q", res.Summary)
	}

	first, ok := res.FirstError()
	if !ok || first.Field != "tripTitle" {
		t.Errorf("first error = %+v", first)
	}
}

func TestValidateItineraryWarningsOnly(t *testing.T) {
	req := validRequest()
	req.Trip.Travelers = 25

	res := ValidateItinerary(req, now)
	if !res.Valid {
		t.Fatalf("warnings must not invalidate: %+v", res.Errors)
	}
	if res.Summary != "1 warning found" {
		t.Errorf("summary = %q", res.Summary)
	}
}

func TestValidateItineraryEmpty(t *testing.T) {
	res := ValidateItinerary(nil, now)
	if res.Valid {
		t.Fatal("empty request must be invalid")
	}
	fields := map[string]bool{}
	for _, e := range res.Errors {
		fields[e.Field] = true
	}
	for _, f := range []string{"tripTitle", "destination", "startDate", "endDate", "numberOfDays", "numberOfTravellers", "customerName", "customerEmail", "customerPhone", "days"} {
		if !fields[f] {
			t.Errorf("missing error for %s", f)
		}
	}
}

func TestValidateItineraryDateOrder(t *testing.T) {
	req := validRequest()
	req.Trip.EndDate = "2026-04-10"

	res := ValidateItinerary(req, now)
	first, ok := res.FirstError()
	if !ok || first.Message != "End date must be after start date" {
		t.Errorf("first error = %+v", first)
	}
}

func TestActivityChecks(t *testing.T) {
	req := validRequest()
	req.Itinerary.Days[0].Activities = []domain.Activity{{Name: " ", Price: -5}}

	res := ValidateItinerary(req, now)
	if res.Count(SeverityError) != 2 {
		t.Fatalf("errors = %+v", res.Errors)
	}
	if res.Errors[0].Field != "days[0].activities[0].name" || res.Errors[1].Field != "days[0].activities[0].price" {
		t.Errorf("fields = %s, %s", res.Errors[0].Field, res.Errors[1].Field)
	}
}

func TestTagRuleMessages(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.ItineraryRequest)
		field   string
		message string
		code    string
	}{
		{"blank title", func(r *domain.ItineraryRequest) { r.Trip.Title = "   " },
			"tripTitle", "Trip title is required", CodeRequired},
		{"short title", func(r *domain.ItineraryRequest) { r.Trip.Title = "SG" },
			"tripTitle", "Trip title must be at least 3 characters long", CodeInvalid},
		{"bad email", func(r *domain.ItineraryRequest) { r.Customer.Email = "rahul@" },
			"customerEmail", "Please enter a valid email address", CodeInvalid},
		{"missing phone", func(r *domain.ItineraryRequest) { r.Customer.Phone = "" },
			"customerPhone", "Customer phone is required", CodeRequired},
		{"bad date", func(r *domain.ItineraryRequest) { r.Trip.StartDate = "next friday" },
			"startDate", "Start date must be a valid date", CodeInvalid},
		{"no travellers", func(r *domain.ItineraryRequest) { r.Trip.Travelers = 0 },
			"numberOfTravellers", "Number of travellers must be at least 1", CodeInvalid},
		{"no days", func(r *domain.ItineraryRequest) { r.Itinerary.Days = nil },
			"days", "At least one day must be defined", CodeInvalid},
		{"unnamed activity", func(r *domain.ItineraryRequest) { r.Itinerary.Days[1].Activities[0].Name = "" },
			"days[1].activities[0].name", "Activity name is required for Day 2", CodeRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			first, ok := ValidateItinerary(req, now).FirstError()
			if !ok {
				t.Fatal("expected a blocking issue")
			}
			if first.Field != tt.field || first.Message != tt.message || first.Code != tt.code {
				t.Errorf("issue = %+v, want %s %q %s", first, tt.field, tt.message, tt.code)
			}
		})
	}
}

func TestNumberOfDaysRule(t *testing.T) {
	req := validRequest()
	req.Trip.Duration = "0 Days"

	res := ValidateItinerary(req, now)
	first, ok := res.FirstError()
	if !ok || first.Field != "numberOfDays" || first.Value != 0 {
		t.Errorf("first error = %+v", first)
	}

	req.Trip.Duration = "45 Days"
	res = ValidateItinerary(req, now)
	if !res.Valid || res.Count(SeverityWarning) != 1 {
		t.Errorf("long trip = %+v", res)
	}
}

func TestIssuesFollowFormOrder(t *testing.T) {
	req := validRequest()
	req.Customer.Name = ""
	req.Trip.Destination = ""
	req.Itinerary.Days[0].Activities[0].Price = -1

	res := ValidateItinerary(req, now)
	want := []string{"destination", "customerName", "days[0].activities[0].price"}
	if len(res.Errors) != len(want) {
		t.Fatalf("issues = %+v", res.Errors)
	}
	for i, f := range want {
		if res.Errors[i].Field != f {
			t.Errorf("issue %d = %s, want %s", i, res.Errors[i].Field, f)
		}
	}
}

func TestToInfoAndAsError(t *testing.T) {
	req := validRequest()
	req.Customer.Email = ""
	res := ValidateItinerary(req, now)

	info := ToInfo(res)
	if info.Category != failure.CategoryValidation || info.CanRetry || info.FallbackAvailable {
		t.Errorf("info = %+v", info)
	}
	if len(info.FieldErrors) != 1 || info.FieldErrors[0].Field != "Customer Email" {
		t.Errorf("field errors = %+v", info.FieldErrors)
	}
	if info.UserMessage != "Form validation failed: 1 error found" {
		t.Errorf("user message = %q", info.UserMessage)
	}

	var ve *failure.ValidationError
	if !errors.As(AsError(res), &ve) {
		t.Fatal("AsError did not return a ValidationError")
	}
	if len(ve.Fields) != 1 || ve.Fields[0].Field != "customerEmail" {
		t.Errorf("fields = %+v", ve.Fields)
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"customerEmail":      "Customer Email",
		"numberOfTravellers": "Number of Travellers",
		"visaType":           "Visa Type",
	}
	for in, want := range tests {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidPhone(t *testing.T) {
	if !ValidPhone("+1 (555) 123-4567") {
		t.Error("formatted phone rejected")
	}
	if ValidPhone("12345") || ValidPhone("1234567890123456") {
		t.Error("phone length bounds not enforced")
	}
}

func TestValidatorAdapter(t *testing.T) {
	ok, summary := Validator(func() time.Time { return now })(validRequest())
	if !ok || summary != "Form validation passed" {
		t.Errorf("Validator = %v, %q", ok, summary)
	}
}
