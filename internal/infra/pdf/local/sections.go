package local

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vietddude/itinerary/internal/core/domain"
)

func drawHeader(d *document, req *domain.ItineraryRequest) {
	d.pdf.SetFont("Helvetica", "B", 22)
	d.color(d.primary)
	d.pdf.CellFormat(d.width, 12, d.tr(companyName(req)), "", 1, "C", false, 0, "")

	d.pdf.SetFont("Helvetica", "B", 16)
	d.color(textColor)
	d.pdf.MultiCell(d.width, 8, d.tr(req.Trip.Title), "", "C", false)

	if req.Trip.Duration != "" {
		d.pdf.SetFont("Helvetica", "", 11)
		d.color(mutedColor)
		d.pdf.CellFormat(d.width, 6, d.tr(req.Trip.Duration), "", 1, "C", false, 0, "")
	}
}

func drawTripDetails(d *document, req *domain.ItineraryRequest) {
	d.heading("Trip Details")
	d.field("Customer", req.Customer.Name)
	d.field("Email", req.Customer.Email)
	d.field("Phone", req.Customer.Phone)
	d.field("Destination", req.Trip.Destination)
	d.field("Departure From", req.Trip.DepartureFrom)
	d.field("Dates", displayDate(req.Trip.StartDate)+" - "+displayDate(req.Trip.EndDate))
	d.field("Travellers", strconv.Itoa(req.Trip.Travelers))
}

func drawDays(d *document, req *domain.ItineraryRequest) {
	if len(req.Itinerary.Days) == 0 {
		return
	}
	d.heading("Itinerary")
	for i, day := range req.Itinerary.Days {
		n := day.DayNumber
		if n == 0 {
			n = i + 1
		}
		title := fmt.Sprintf("Day %d", n)
		if day.Date != "" {
			title += " - " + displayDate(day.Date)
		}
		if day.Title != "" {
			title += ": " + day.Title
		}
		d.subheading(title)

		for _, t := range day.Timeline {
			d.text(t.Time + "  " + strings.Join(t.Activities, ", "))
		}
		if d.include(d.cfg.IncludeActivities) {
			for _, a := range day.Activities {
				line := a.Name
				if a.Time != "" {
					line = a.Time + "  " + line
				}
				if a.Location != "" {
					line += " (" + a.Location + ")"
				}
				d.text(line + " - " + money(a.Price))
				d.text(a.Description)
			}
		}
		for _, t := range day.Transfers {
			d.text(fmt.Sprintf("Transfer: %s from %s to %s, pickup %s - %s", t.Type, t.From, t.To, t.PickupTime, money(t.Price)))
		}
		if d.include(d.cfg.IncludeFlights) {
			for _, f := range day.Flights {
				d.text(fmt.Sprintf("Flight: %s %s %s to %s, departs %s", f.Airline, f.FlightNumber, f.From, f.To, f.Departure))
			}
		}
		d.pdf.Ln(2)
	}
}

func drawFlights(d *document, req *domain.ItineraryRequest) {
	if len(req.Flights) == 0 || !d.include(d.cfg.IncludeFlights) {
		return
	}
	d.heading("Flight Summary")
	widths := []float64{0.15, 0.25, 0.15, 0.3, 0.15}
	d.row([]string{"Date", "Airline", "Flight", "Route", "Class"}, widths, true)
	for _, f := range req.Flights {
		route := f.Route
		if route == "" {
			route = f.From + " - " + f.To
		}
		d.row([]string{displayDate(f.Date), f.Airline, f.FlightNumber, route, f.Class}, widths, false)
	}
}

func drawHotels(d *document, req *domain.ItineraryRequest) {
	if len(req.Hotels) == 0 || !d.include(d.cfg.IncludeHotels) {
		return
	}
	d.heading("Hotel Bookings")
	widths := []float64{0.15, 0.15, 0.15, 0.1, 0.45}
	d.row([]string{"City", "Check In", "Check Out", "Nights", "Hotel"}, widths, true)
	for _, h := range req.Hotels {
		name := h.HotelName
		if h.RoomType != "" {
			name += " (" + h.RoomType + ")"
		}
		d.row([]string{h.City, displayDate(h.CheckIn), displayDate(h.CheckOut), strconv.Itoa(h.Nights), name}, widths, false)
	}
}

func drawPayment(d *document, req *domain.ItineraryRequest) {
	p := req.Payment
	if p.TotalAmount == "" && len(p.Installments) == 0 || !d.include(d.cfg.IncludePayments) {
		return
	}
	d.heading("Payment Plan")
	d.field("Total Amount", p.TotalAmount)
	d.field("TCS", p.TCS)
	d.field("Advance", p.AdvanceAmount)
	d.field("Balance", p.BalanceAmount)
	d.field("Status", p.Status)
	if len(p.Installments) == 0 {
		return
	}
	widths := []float64{0.4, 0.3, 0.3}
	d.row([]string{"Installment", "Amount", "Due Date"}, widths, true)
	for _, in := range p.Installments {
		d.row([]string{in.Name, in.Amount, in.DueDate}, widths, false)
	}
}

func drawNotes(d *document, req *domain.ItineraryRequest) {
	if len(req.ImportantNotes) == 0 {
		return
	}
	d.heading("Important Notes")
	for _, n := range req.ImportantNotes {
		d.field(n.Point, n.Details)
	}
}

func drawScope(d *document, req *domain.ItineraryRequest) {
	if len(req.ScopeOfService) == 0 {
		return
	}
	d.heading("Scope of Service")
	for _, s := range req.ScopeOfService {
		d.field(s.Service, s.Details)
	}
}

func drawInclusions(d *document, req *domain.ItineraryRequest) {
	if len(req.Inclusions) == 0 {
		return
	}
	d.heading("Inclusion Summary")
	widths := []float64{0.25, 0.1, 0.45, 0.2}
	d.row([]string{"Category", "Count", "Details", "Status"}, widths, true)
	for _, in := range req.Inclusions {
		d.row([]string{in.Category, strconv.Itoa(in.Count), in.Details, in.Status}, widths, false)
	}
}

func drawVisa(d *document, req *domain.ItineraryRequest) {
	v := req.VisaDetails
	if v.VisaType == "" && v.Validity == "" && v.ProcessingDate == "" {
		return
	}
	d.heading("Visa Details")
	d.field("Visa Type", v.VisaType)
	d.field("Validity", v.Validity)
	d.field("Processing Date", displayDate(v.ProcessingDate))
}
