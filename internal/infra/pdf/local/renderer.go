// Package local renders itinerary documents in process.
package local

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/classify"
	"github.com/vietddude/itinerary/internal/recovery/failure"
	"github.com/vietddude/itinerary/internal/validation"
)

// section draws one part of the document.
type section func(d *document, req *domain.ItineraryRequest)

// Renderer implements the local generation pathway.
type Renderer struct {
	logger   *slog.Logger
	now      func() time.Time
	sections []section
}

func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		logger: logger.With("pathway", domain.PathwayLocal),
		now:    time.Now,
		sections: []section{
			drawHeader,
			drawTripDetails,
			drawDays,
			drawFlights,
			drawHotels,
			drawPayment,
			drawNotes,
			drawScope,
			drawInclusions,
			drawVisa,
		},
	}
}

func (r *Renderer) Name() domain.PathwayName { return domain.PathwayLocal }

// Generate validates req and renders it. A panic while assembling the
// document is classified and returned as a failure.InfoError.
func (r *Renderer) Generate(ctx context.Context, req *domain.ItineraryRequest) (doc *domain.Document, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := validation.ValidateItinerary(req, r.now())
	if !res.Valid {
		return nil, validation.AsError(res)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Document assembly panicked", "panic", rec)
			doc = nil
			err = &failure.InfoError{Info: classify.ClassifyValue(rec)}
		}
	}()

	start := r.now()
	data, err := r.Render(req)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Document generated", "bytes", len(data), "latency", r.now().Sub(start))
	return &domain.Document{
		Data:        data,
		ContentType: domain.ContentTypePDF,
		Filename:    domain.Filename(req, r.now()),
		Pathway:     domain.PathwayLocal,
		GeneratedAt: r.now(),
	}, nil
}

// Render draws req without validating it.
func (r *Renderer) Render(req *domain.ItineraryRequest) ([]byte, error) {
	d := newDocument(req, r.now())
	for _, s := range r.sections {
		s(d, req)
	}

	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, &failure.TypedError{Name: failure.TypeError, Err: fmt.Errorf("write pdf: %w", err)}
	}
	return buf.Bytes(), nil
}

type rgb struct{ r, g, b int }

var (
	defaultPrimary = rgb{84, 28, 156}
	defaultAccent  = rgb{147, 103, 212}
	textColor      = rgb{33, 33, 33}
	mutedColor     = rgb{110, 110, 110}
)

// parseHex reads "#RRGGBB", returning def when s is not a colour.
func parseHex(s string, def rgb) rgb {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return def
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return def
	}
	return rgb{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}
}

type document struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	primary rgb
	accent  rgb
	width   float64
	cfg     domain.DocumentConfig
}

func pageSize(format string) string {
	switch strings.ToLower(format) {
	case "letter":
		return "Letter"
	case "legal":
		return "Legal"
	default:
		return "A4"
	}
}

func orientation(o string) string {
	if strings.EqualFold(o, "landscape") {
		return "L"
	}
	return "P"
}

func companyName(req *domain.ItineraryRequest) string {
	switch {
	case req.Config.CustomBranding.CompanyName != "":
		return req.Config.CustomBranding.CompanyName
	case req.CompanyInfo.Name != "":
		return req.CompanyInfo.Name
	default:
		return "Itinerary"
	}
}

func newDocument(req *domain.ItineraryRequest, now time.Time) *document {
	pdf := fpdf.New(orientation(req.Config.Orientation), "mm", pageSize(req.Config.PageFormat), "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle(req.Trip.Title, true)
	pdf.SetAuthor(companyName(req), true)
	pdf.SetCreationDate(now)
	pdf.AliasNbPages("")

	w, _ := pdf.GetPageSize()
	d := &document{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		primary: parseHex(req.Config.CustomBranding.PrimaryColor, defaultPrimary),
		accent:  parseHex(req.Config.CustomBranding.AccentColor, defaultAccent),
		width:   w - 30,
		cfg:     req.Config,
	}
	pdf.SetFooterFunc(func() { d.footer(req) })
	pdf.AddPage()
	return d
}

// include reports whether an optional section is rendered. With no flag set
// every section is.
func (d *document) include(flag bool) bool {
	c := d.cfg
	if !c.IncludeFlights && !c.IncludeHotels && !c.IncludeActivities && !c.IncludePayments {
		return true
	}
	return flag
}

func (d *document) color(c rgb) { d.pdf.SetTextColor(c.r, c.g, c.b) }

func (d *document) heading(title string) {
	d.pdf.Ln(4)
	d.pdf.SetFont("Helvetica", "B", 14)
	d.color(d.primary)
	d.pdf.CellFormat(d.width, 8, d.tr(title), "B", 1, "L", false, 0, "")
	d.pdf.Ln(2)
}

func (d *document) subheading(title string) {
	d.pdf.SetFont("Helvetica", "B", 11)
	d.color(d.accent)
	d.pdf.CellFormat(d.width, 6, d.tr(title), "", 1, "L", false, 0, "")
}

func (d *document) text(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	d.pdf.SetFont("Helvetica", "", 10)
	d.color(textColor)
	d.pdf.MultiCell(d.width, 5, d.tr(s), "", "L", false)
}

func (d *document) field(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	d.pdf.SetFont("Helvetica", "B", 10)
	d.color(mutedColor)
	d.pdf.CellFormat(40, 6, d.tr(label+":"), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 10)
	d.color(textColor)
	d.pdf.MultiCell(d.width-40, 6, d.tr(value), "", "L", false)
}

// row draws a table row; widths are fractions of the content width.
func (d *document) row(cells []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
		d.pdf.SetFillColor(d.primary.r, d.primary.g, d.primary.b)
		d.pdf.SetTextColor(255, 255, 255)
	} else {
		d.color(textColor)
	}
	d.pdf.SetFont("Helvetica", style, 9)
	for i, c := range cells {
		d.pdf.CellFormat(d.width*widths[i], 7, d.tr(c), "1", 0, "L", header, 0, "")
	}
	d.pdf.Ln(-1)
}

func (d *document) footer(req *domain.ItineraryRequest) {
	d.pdf.SetY(-15)
	d.pdf.SetFont("Helvetica", "", 8)
	d.color(mutedColor)

	parts := []string{companyName(req)}
	if c := req.CompanyInfo.Contact; c.Phone != "" || c.Email != "" {
		parts = append(parts, strings.TrimSpace(c.Phone+"  "+c.Email))
	}
	if o := req.CompanyInfo.RegisteredOffice; o.City != "" {
		parts = append(parts, strings.Join(nonEmpty(o.Address, o.City, o.State, o.Country), ", "))
	}
	d.pdf.CellFormat(d.width*0.8, 5, d.tr(strings.Join(parts, " | ")), "T", 0, "L", false, 0, "")
	d.pdf.CellFormat(d.width*0.2, 5, fmt.Sprintf("Page %d/{nb}", d.pdf.PageNo()), "T", 0, "R", false, 0, "")
}

func nonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func money(v float64) string {
	if v == 0 {
		return "Included"
	}
	return "INR " + strconv.FormatFloat(v, 'f', 2, 64)
}

// displayDate renders a request date as "2 Jan 2006", or as given when unparseable.
func displayDate(s string) string {
	if t, ok := domain.ParseDate(s); ok {
		return t.Format("2 Jan 2006")
	}
	return s
}
