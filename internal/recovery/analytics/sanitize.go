package analytics

import (
	"regexp"

	"github.com/vietddude/itinerary/internal/core/domain"
)

var (
	emailMask = regexp.MustCompile(`^(.{2}).*@`)
	phoneMask = regexp.MustCompile(`(\d{3}).*(\d{3})`)
)

// Sanitize returns a copy of req with customer contact details masked.
func Sanitize(req *domain.ItineraryRequest) *domain.ItineraryRequest {
	if req == nil {
		return nil
	}
	out := *req
	if out.Customer.Email != "" {
		out.Customer.Email = emailMask.ReplaceAllString(out.Customer.Email, "$1***@")
	}
	if out.Customer.Phone != "" {
		out.Customer.Phone = phoneMask.ReplaceAllString(out.Customer.Phone, "$1***$2")
	}
	return &out
}
