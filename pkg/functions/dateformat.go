package functions

import (
	"strings"
	"time"
)

// formatTokens maps moment-style tokens to Go layout fragments, longest
// first so that YYYY wins over YY.
var formatTokens = []struct {
	token  string
	layout string
}{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dddd", "Monday"},
	{"ddd", "Mon"},
	{"DD", "02"},
	{"D", "2"},
	{"HH", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"SSS", "000"},
	{"A", "PM"},
	{"a", "pm"},
	{"Z", "-07:00"},
}

// GoLayout converts a format such as "DD/MM/YYYY HH:mm" into a Go layout.
// Text between square brackets is copied literally.
func GoLayout(format string) string {
	var b strings.Builder
	for i := 0; i < len(format); {
		if format[i] == '[' {
			if end := strings.IndexByte(format[i:], ']'); end > 0 {
				b.WriteString(format[i+1 : i+end])
				i += end + 1
				continue
			}
		}
		matched := false
		for _, tok := range formatTokens {
			if strings.HasPrefix(format[i:], tok.token) {
				b.WriteString(tok.layout)
				i += len(tok.token)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(format[i])
			i++
		}
	}
	return b.String()
}

// FormatDate renders t with a moment-style format; invalid dates render "".
func FormatDate(t time.Time, format string) string {
	if t.IsZero() {
		return ""
	}
	if format == "" {
		return FormatTime(t)
	}
	return t.Format(GoLayout(format))
}

// ParseDate parses text with a moment-style format in loc.
func ParseDate(text, format string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	if format == "" {
		return ToTime(text, loc)
	}
	t, err := time.ParseInLocation(GoLayout(format), strings.TrimSpace(text), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
