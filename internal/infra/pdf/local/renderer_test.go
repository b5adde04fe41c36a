package local

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/classify"
	"github.com/vietddude/itinerary/internal/recovery/failure"
)

func newTestRenderer() *Renderer {
	r := NewRenderer(nil)
	r.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return r
}

func fullRequest() *domain.ItineraryRequest {
	return &domain.ItineraryRequest{
		Customer: domain.Customer{Name: "Rahul Sharma", Email: "rahul@example.com", Phone: "+91 98765 43210"},
		Trip: domain.Trip{
			Title: "Singapore Escape", Destination: "Singapore", DepartureFrom: "Mumbai",
			StartDate: "2026-04-10", EndDate: "2026-04-12", Duration: "3 Days", Travelers: 2,
		},
		Itinerary: domain.Itinerary{Days: []domain.Day{
			{DayNumber: 1, Date: "2026-04-10", Title: "Arrival",
				Activities: []domain.Activity{{Name: "Marina Bay Sands", Time: "18:00", Price: 1200}},
				Transfers:  []domain.Transfer{{Type: "Private", From: "Changi", To: "Hotel", PickupTime: "14:00"}}},
			{DayNumber: 2, Activities: []domain.Activity{{Name: "Sentosa Island", Location: "Sentosa"}},
				Timeline: []domain.Timeline{{Time: "Morning", Activities: []string{"Cable car"}}}},
		}},
		Flights: []domain.Flight{{Date: "2026-04-10", Airline: "Singapore Airlines", FlightNumber: "SQ421", From: "BOM", To: "SIN"}},
		Hotels:  []domain.Hotel{{City: "Singapore", CheckIn: "2026-04-10", CheckOut: "2026-04-12", Nights: 2, HotelName: "Parkroyal"}},
		Payment: domain.Payment{TotalAmount: "INR 1,20,000", Installments: []domain.Installment{{Name: "Installment 1", Amount: "INR 60,000", DueDate: "Initial"}}},
		Config: domain.DocumentConfig{
			PageFormat: "Letter", Orientation: "landscape",
			CustomBranding: domain.CustomBranding{PrimaryColor: "#0a7cff", CompanyName: "Wander Co"},
		},
		ImportantNotes: []domain.ImportantNote{{Point: "Passport", Details: "Valid for six months"}},
		ScopeOfService: []domain.ServiceScope{{Service: "Support", Details: "24x7"}},
		Inclusions:     []domain.Inclusion{{Category: "Hotel", Count: 2, Details: "Breakfast", Status: "Included"}},
		VisaDetails:    domain.VisaDetails{VisaType: "Tourist", Validity: "30 days", ProcessingDate: "2026-03-20"},
		CompanyInfo: domain.CompanyInfo{
			Contact:          domain.ContactInfo{Phone: "+91 22 1234 5678", Email: "hello@wander.example"},
			RegisteredOffice: domain.RegisteredOffice{City: "Mumbai", Country: "India"},
		},
	}
}

func TestRenderer_Generate(t *testing.T) {
	r := newTestRenderer()
	doc, err := r.Generate(context.Background(), fullRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(doc.Data, []byte("%PDF-")) {
		t.Errorf("payload does not look like a PDF: %q", doc.Data[:min(len(doc.Data), 16)])
	}
	if doc.Pathway != domain.PathwayLocal || doc.ContentType != domain.ContentTypePDF {
		t.Errorf("document = %+v", doc)
	}
	if doc.Filename != "Singapore-Rahul-Sharma-2026-04-10.pdf" {
		t.Errorf("filename = %q", doc.Filename)
	}
}

func TestRenderer_ValidationFailure(t *testing.T) {
	req := fullRequest()
	req.Customer.Email = "nope"

	_, err := newTestRenderer().Generate(context.Background(), req)
	var ve *failure.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	info := classify.Classify(err)
	if info.Category != failure.CategoryValidation || info.FallbackAvailable {
		t.Errorf("info = %+v", info)
	}
	if len(info.FieldErrors) != 1 || info.FieldErrors[0].Field != "Customer Email" {
		t.Errorf("field errors = %+v", info.FieldErrors)
	}
}

func TestRenderer_PanicIsClassified(t *testing.T) {
	tests := []struct {
		name     string
		section  section
		category failure.Category
		details  string
	}{
		{"runtime error", func(*document, *domain.ItineraryRequest) {
			var days []domain.Day
			_ = days[3]
		}, failure.CategoryClient, "index out of range"},
		{"plain value", func(*document, *domain.ItineraryRequest) {
			panic("font table missing")
		}, failure.CategoryUnknown, "font table missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRenderer()
			r.sections = append(r.sections, tt.section)

			doc, err := r.Generate(context.Background(), fullRequest())
			if doc != nil {
				t.Error("document returned alongside panic")
			}
			var ie *failure.InfoError
			if !errors.As(err, &ie) {
				t.Fatalf("expected InfoError, got %v", err)
			}
			info := classify.Classify(err)
			if info.Category != tt.category {
				t.Errorf("category = %s, want %s", info.Category, tt.category)
			}
			if !strings.Contains(info.TechnicalDetails, tt.details) {
				t.Errorf("technical details = %q", info.TechnicalDetails)
			}
		})
	}
}

func TestRenderer_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestRenderer().Generate(ctx, fullRequest()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestIncludeFlags(t *testing.T) {
	d := &document{}
	if !d.include(false) {
		t.Error("no flags set should include every section")
	}
	d.cfg.IncludeHotels = true
	if d.include(d.cfg.IncludeFlights) || !d.include(d.cfg.IncludeHotels) {
		t.Error("explicit flags not honoured")
	}
}

func TestParseHex(t *testing.T) {
	if got := parseHex("#0a7cff", defaultPrimary); got != (rgb{10, 124, 255}) {
		t.Errorf("parseHex = %+v", got)
	}
	if got := parseHex("blue", defaultPrimary); got != defaultPrimary {
		t.Errorf("invalid colour = %+v", got)
	}
}
