package sessions

import (
	"strings"
	"time"
)

// DefaultDateLayout renders dates like the en-US locale string, e.g.
// "1/1/2024, 12:00:00 PM".
const DefaultDateLayout = "1/2/2006, 3:04:05 PM"

// localeSpaces maps the no-break spaces browsers put in locale strings
// ("12:00:00\u202fPM") to plain spaces.
var localeSpaces = strings.NewReplacer("\u202f", " ", "\u00a0", " ")

// fallbackLayouts are tried when a header does not match the configured layout.
var fallbackLayouts = []string{
	DefaultDateLayout,
	"1/2/2006, 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
	time.ANSIC,
}

// DateFormatter turns session timestamps into header strings and back.
// Export and import must share one formatter or round trips duplicate sessions.
type DateFormatter struct {
	Layout   string
	Location *time.Location
}

// NewDateFormatter returns a formatter for layout in loc. Empty values use
// the defaults.
func NewDateFormatter(layout string, loc *time.Location) DateFormatter {
	if layout == "" {
		layout = DefaultDateLayout
	}
	if loc == nil {
		loc = time.Local
	}
	return DateFormatter{Layout: layout, Location: loc}
}

// Format renders an epoch-millisecond instant.
func (f DateFormatter) Format(ms int64) string {
	f = f.withDefaults()
	return time.UnixMilli(ms).In(f.Location).Format(f.Layout)
}

// Parse reads a header date back into epoch milliseconds.
func (f DateFormatter) Parse(s string) (int64, bool) {
	f = f.withDefaults()
	s = strings.TrimSpace(localeSpaces.Replace(s))
	if s == "" {
		return 0, false
	}
	if t, err := time.ParseInLocation(f.Layout, s, f.Location); err == nil {
		return t.UnixMilli(), true
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, f.Location); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

func (f DateFormatter) withDefaults() DateFormatter {
	if f.Layout == "" {
		f.Layout = DefaultDateLayout
	}
	if f.Location == nil {
		f.Location = time.Local
	}
	return f
}
