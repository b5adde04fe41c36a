package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/vietddude/itinerary/internal/recovery/failure"
)

type fieldTemplate struct {
	re     *regexp.Regexp
	format func(name string) string
}

// Ordered; every template is applied to the whole message.
var fieldTemplates = []fieldTemplate{
	{regexp.MustCompile(`(?i)(\w+)\s+is\s+required`), func(n string) string { return n + " is required" }},
	{regexp.MustCompile(`(?i)(\w+)\s+must\s+be\s+a\s+valid\s+email`), func(n string) string { return n + " must be a valid email address" }},
	{regexp.MustCompile(`(?i)(\w+)\s+must\s+be\s+a\s+valid\s+date`), func(n string) string { return n + " must be a valid date" }},
	{regexp.MustCompile(`(?i)(\w+)\s+must\s+be\s+a\s+number`), func(n string) string { return n + " must be a valid number" }},
	{regexp.MustCompile(`(?i)(\w+)\s+is\s+too\s+short`), func(n string) string { return n + " is too short" }},
	{regexp.MustCompile(`(?i)(\w+)\s+is\s+too\s+long`), func(n string) string { return n + " is too long" }},
}

// ExtractFieldErrors scans a validation message for per-field problems.
func ExtractFieldErrors(message string) []failure.FieldError {
	var out []failure.FieldError
	for _, t := range fieldTemplates {
		for _, m := range t.re.FindAllStringSubmatch(message, -1) {
			name := FormatFieldName(m[1])
			out = append(out, failure.FieldError{Field: name, Message: t.format(name)})
		}
	}
	return out
}

// normalizeFields reformats structured field errors attached to a validation
// failure. A message that matches a template is rewritten with the display
// name; anything else is kept as reported.
func normalizeFields(fields []failure.FieldError) []failure.FieldError {
	out := make([]failure.FieldError, 0, len(fields))
	for _, f := range fields {
		name := FormatFieldName(f.Field)
		msg := f.Message
		for _, t := range fieldTemplates {
			if t.re.MatchString(f.Message) {
				msg = t.format(name)
				break
			}
		}
		if msg == "" {
			msg = name + " has an invalid value"
		}
		out = append(out, failure.FieldError{Field: name, Message: msg, Value: f.Value})
	}
	return out
}

// FormatFieldName turns a camelCase identifier into Title Case words:
// "customerEmail" becomes "Customer Email".
func FormatFieldName(field string) string {
	field = strings.TrimSpace(field)
	if field == "" {
		return field
	}
	var b strings.Builder
	prev := ' '
	for _, r := range field {
		if unicode.IsUpper(r) && !unicode.IsSpace(prev) && !unicode.IsUpper(prev) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	s := strings.TrimSpace(b.String())
	first := []rune(s)
	first[0] = unicode.ToUpper(first[0])
	return string(first)
}
