package chronologue

import (
	"regexp"
	"strings"
	"time"
)

// TimeBucket is a named time of day mapped to a fixed hour.
type TimeBucket int

// Time buckets.
const (
	Morning TimeBucket = iota
	Afternoon
	Evening
	Night
)

// Hour returns the hour of day the bucket maps to.
func (b TimeBucket) Hour() int {
	switch b {
	case Afternoon:
		return 14
	case Evening:
		return 19
	case Night:
		return 22
	default:
		return 8
	}
}

// String returns the bucket name.
func (b TimeBucket) String() string {
	switch b {
	case Afternoon:
		return "afternoon"
	case Evening:
		return "evening"
	case Night:
		return "night"
	default:
		return "morning"
	}
}

// AtBucket returns t's calendar day at the bucket hour with minutes and
// seconds zeroed.
func AtBucket(t time.Time, b TimeBucket) time.Time {
	return atHour(t, b.Hour(), 0)
}

func atHour(t time.Time, hour, minute int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, t.Location())
}

// WhenLayout is the canonical layout used when writing When values.
const WhenLayout = "2006-01-02 15:04"

// FormatWhen renders t in the canonical When layout.
func FormatWhen(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(WhenLayout)
}

// whenLayouts lists the accepted When layouts, most specific first.
var whenLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 3:04 PM",
	"2006-01-02 3:04PM",
	"2006-01-02 3PM",
	"2006-01-02 3 PM",
	"2006-01-02",
	"January 2, 2006 3:04 PM",
	"January 2, 2006 15:04",
	"January 2, 2006",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
	"2 January 2006 15:04",
	"2 January 2006",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"1/2/2006",
}

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	meridiemRe = regexp.MustCompile(`(?i)([\d ])([ap])\.?m\.?$`)
)

// DefaultWhenParser understands the frontmatter When grammar. Values are
// interpreted in Location, or time.Local when nil.
type DefaultWhenParser struct {
	Location *time.Location
}

// Parse implements WhenParser.
func (p DefaultWhenParser) Parse(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	if s == "" {
		return time.Time{}, false
	}
	s = spaceRun.ReplaceAllString(s, " ")
	s = meridiemRe.ReplaceAllStringFunc(s, func(m string) string {
		return m[:1] + strings.ToUpper(m[1:2]) + "M"
	})

	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	// Full RFC 3339 values keep their own offset.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), true
	}
	return time.Time{}, false
}

func normalizeWord(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
