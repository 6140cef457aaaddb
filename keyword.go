package chronologue

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// CueCategory classifies a temporal cue found in scene text.
type CueCategory string

// Cue categories, highest priority first.
const (
	CueAbsolute    CueCategory = "absolute"
	CueDayJump     CueCategory = "dayJump"
	CueSameDayTime CueCategory = "sameDayTime"
	CueContinuity  CueCategory = "continuity"
)

func (c CueCategory) priority() int {
	switch c {
	case CueAbsolute:
		return 3
	case CueDayJump:
		return 2
	case CueSameDayTime:
		return 1
	default:
		return 0
	}
}

// Cue is one temporal signal extracted from scene text.
type Cue struct {
	Category   CueCategory `json:"category"`
	Confidence Confidence  `json:"confidence"`
	Match      string      `json:"match"`
	Offset     int         `json:"offset"` // Byte offset of Match in the excerpt

	// Absolute: Year is zero when the text names no year.
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`

	// DayJump.
	Days   int `json:"days,omitempty"`
	Months int `json:"months,omitempty"`
	Years  int `json:"years,omitempty"`

	// SameDayTime.
	Hour   int `json:"hour,omitempty"`
	Minute int `json:"minute,omitempty"`

	// Continuity offset from the previous scene.
	Minutes int `json:"minutes,omitempty"`
}

// DefaultKeywordExcerpt is the number of characters scanned per scene.
const DefaultKeywordExcerpt = 1000

// KeywordOptions configures Level 2.
type KeywordOptions struct {
	ExcerptLength   int  // Characters of body text scanned; DefaultKeywordExcerpt when <= 0
	IncludeSynopsis bool // Scan the synopsis ahead of the body
	Logger          *slog.Logger
}

// SweepKeywords is Level 2: it refines entries in place from temporal
// cues in each scene's opening text and returns how many entries it
// refined. Entries without cues keep their Level-1 value. Text accessor
// failures count as "no cues" for that scene.
func SweepKeywords(ctx context.Context, entries []Entry, text TextAccessor, opts KeywordOptions) int {
	logger := loggerOrDiscard(opts.Logger)
	limit := opts.ExcerptLength
	if limit <= 0 {
		limit = DefaultKeywordExcerpt
	}

	refined := 0
	for i := range entries {
		e := &entries[i]
		if e.Source == SourceOriginal || e.Source == SourceManual {
			continue
		}

		excerpt := keywordExcerpt(ctx, e.Scene, text, limit, opts.IncludeSynopsis, logger)
		cues := ExtractCues(excerpt)
		if len(cues) == 0 {
			continue
		}

		ref := e.ProposedWhen
		if i > 0 {
			ref = entries[i-1].EffectiveWhen()
		}
		when, primary, ok := ResolveCues(cues, ref)
		if !ok {
			continue
		}

		e.ProposedWhen = when
		e.Source = SourceKeyword
		e.Confidence = primary.Confidence
		e.Cues = append(e.Cues, cues...)
		refined++
	}

	DetectIssues(entries)
	return refined
}

func keywordExcerpt(ctx context.Context, scene Scene, text TextAccessor, limit int, synopsis bool, logger *slog.Logger) string {
	var sb strings.Builder
	if synopsis && scene.Synopsis != "" {
		sb.WriteString(scene.Synopsis)
		sb.WriteString("\n")
	}
	if text != nil {
		body, err := text.SceneText(ctx, scene)
		if err != nil {
			logger.Debug("keyword sweep: scene text unavailable", "path", scene.Path, "err", err)
		} else {
			sb.WriteString(truncateRunes(body, limit))
		}
	}
	return sb.String()
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// ResolveCues applies the priority policy to cues found in one scene and
// returns the resolved time and the primary cue. ref is the previous
// scene's effective time, or the scene's own proposal for the first scene.
func ResolveCues(cues []Cue, ref time.Time) (time.Time, Cue, bool) {
	if len(cues) == 0 {
		return time.Time{}, Cue{}, false
	}
	sorted := SortCues(cues)
	primary := sorted[0]

	var clock *Cue
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Category == CueSameDayTime {
			clock = &sorted[i]
			break
		}
	}

	switch primary.Category {
	case CueAbsolute:
		year := primary.Year
		if year == 0 {
			year = ref.Year()
		}
		hour, minute := ref.Hour(), ref.Minute()
		if clock != nil {
			hour, minute = clock.Hour, clock.Minute
		}
		return time.Date(year, time.Month(primary.Month), primary.Day, hour, minute, 0, 0, ref.Location()), primary, true

	case CueDayJump:
		day := ref.AddDate(primary.Years, primary.Months, primary.Days)
		if clock != nil {
			return atHour(day, clock.Hour, clock.Minute), primary, true
		}
		return AtBucket(day, Morning), primary, true

	case CueSameDayTime:
		return atHour(ref, primary.Hour, primary.Minute), primary, true

	case CueContinuity:
		return ref.Add(time.Duration(primary.Minutes) * time.Minute), primary, true
	}
	return time.Time{}, Cue{}, false
}

// SortCues returns cues ordered by category priority, then confidence,
// then position in the text.
func SortCues(cues []Cue) []Cue {
	sorted := slices.Clone(cues)
	slices.SortStableFunc(sorted, func(a, b Cue) int {
		if d := b.Category.priority() - a.Category.priority(); d != 0 {
			return d
		}
		if d := b.Confidence.Rank() - a.Confidence.Rank(); d != 0 {
			return d
		}
		return a.Offset - b.Offset
	})
	return sorted
}

// ExtractCues finds every temporal cue in text. Rules are tried from most
// to least specific; text claimed by an earlier rule is not matched again.
func ExtractCues(text string) []Cue {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var (
		cues    []Cue
		claimed [][2]int
	)
	overlaps := func(start, end int) bool {
		for _, span := range claimed {
			if start < span[1] && span[0] < end {
				return true
			}
		}
		return false
	}

	for _, rule := range cueRules {
		for _, loc := range rule.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[0], loc[1]
			if overlaps(start, end) {
				continue
			}
			groups := make([]string, len(loc)/2)
			for g := range groups {
				if loc[2*g] >= 0 {
					groups[g] = strings.ToLower(text[loc[2*g]:loc[2*g+1]])
				}
			}
			found := rule.build(groups)
			if len(found) == 0 {
				continue
			}
			claimed = append(claimed, [2]int{start, end})
			for _, c := range found {
				c.Match = text[start:end]
				c.Offset = start
				cues = append(cues, c)
			}
		}
	}

	slices.SortStableFunc(cues, func(a, b Cue) int { return a.Offset - b.Offset })
	return cues
}

type cueRule struct {
	re    *regexp.Regexp
	build func(groups []string) []Cue
}

const (
	monthPattern  = `(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`
	countPattern  = `(\d+|a|an|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|a couple of|a few|several)`
	hourPattern   = `(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)`
	bucketPattern = `(morning|afternoon|evening|night)`
)

var monthNumbers = map[string]int{
	"january": 1, "jan": 1, "february": 2, "feb": 2, "march": 3, "mar": 3,
	"april": 4, "apr": 4, "may": 5, "june": 6, "jun": 6, "july": 7, "jul": 7,
	"august": 8, "aug": 8, "september": 9, "sept": 9, "sep": 9,
	"october": 10, "oct": 10, "november": 11, "nov": 11, "december": 12, "dec": 12,
}

var countWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11,
	"twelve": 12, "a couple of": 2, "a few": 3, "several": 3,
}

// vagueCounts are counts that lower a cue's confidence.
var vagueCounts = map[string]bool{"a couple of": true, "a few": true, "several": true}

var bucketWords = map[string]TimeBucket{
	"morning": Morning, "dawn": Morning, "daybreak": Morning, "sunrise": Morning, "breakfast": Morning,
	"afternoon": Afternoon, "lunch": Afternoon, "lunchtime": Afternoon,
	"evening": Evening, "dusk": Evening, "sunset": Evening, "twilight": Evening, "dinner": Evening, "supper": Evening,
	"night": Night, "tonight": Night, "nightfall": Night, "midnight": Night, "bedtime": Night,
}

func parseCount(s string) (int, bool) {
	if n, ok := countWords[s]; ok {
		return n, true
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	y := year
	if y == 0 {
		y = 2000 // leap year, so Feb 29 passes when the year is unknown
	}
	t := time.Date(y, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day
}

func absoluteCue(year, month, day int, conf Confidence) []Cue {
	if !validDate(year, month, day) {
		return nil
	}
	return []Cue{{Category: CueAbsolute, Confidence: conf, Year: year, Month: month, Day: day}}
}

func clockCue(hour, minute int, meridiem string, conf Confidence) []Cue {
	switch strings.TrimSpace(strings.ReplaceAll(meridiem, ".", "")) {
	case "am", "a":
		if hour == 12 {
			hour = 0
		}
	case "pm", "p":
		if hour < 12 {
			hour += 12
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil
	}
	return []Cue{{Category: CueSameDayTime, Confidence: conf, Hour: hour, Minute: minute}}
}

func bucketCue(word string, conf Confidence) []Cue {
	b, ok := bucketWords[word]
	if !ok {
		return nil
	}
	return []Cue{{Category: CueSameDayTime, Confidence: conf, Hour: b.Hour()}}
}

func jumpCue(n int, unit string, conf Confidence) Cue {
	c := Cue{Category: CueDayJump, Confidence: conf}
	switch unit {
	case "week":
		c.Days = 7 * n
	case "month":
		c.Months = n
	case "year":
		c.Years = n
	default:
		c.Days = n
	}
	return c
}

func continuityCue(minutes int, conf Confidence) []Cue {
	return []Cue{{Category: CueContinuity, Confidence: conf, Minutes: minutes}}
}

func rx(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

var cueRules = []cueRule{
	// Absolute dates.
	{rx(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`), func(g []string) []Cue {
		y, _ := strconv.Atoi(g[1])
		m, _ := strconv.Atoi(g[2])
		d, _ := strconv.Atoi(g[3])
		return absoluteCue(y, m, d, ConfidenceHigh)
	}},
	{rx(`\b` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`), func(g []string) []Cue {
		d, _ := strconv.Atoi(g[2])
		y, _ := strconv.Atoi(g[3])
		return absoluteCue(y, monthNumbers[g[1]], d, ConfidenceHigh)
	}},
	{rx(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthPattern + `,?\s+(\d{4})\b`), func(g []string) []Cue {
		d, _ := strconv.Atoi(g[1])
		y, _ := strconv.Atoi(g[3])
		return absoluteCue(y, monthNumbers[g[2]], d, ConfidenceHigh)
	}},
	{rx(`\b` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`), func(g []string) []Cue {
		d, _ := strconv.Atoi(g[2])
		return absoluteCue(0, monthNumbers[g[1]], d, ConfidenceMed)
	}},

	// Continuity with an explicit minute or hour count.
	{rx(`\bhalf an hour later\b`), func(g []string) []Cue {
		return continuityCue(30, ConfidenceHigh)
	}},
	{rx(`\b` + countPattern + `\s+(minute|hour)s?\s+later\b`), func(g []string) []Cue {
		n, ok := parseCount(g[1])
		if !ok {
			return nil
		}
		if g[2] == "hour" {
			n *= 60
		}
		conf := ConfidenceHigh
		if vagueCounts[g[1]] {
			conf = ConfidenceMed
		}
		return continuityCue(n, conf)
	}},

	// Day jumps.
	{rx(`\b` + countPattern + `\s+(day|week|month|year)s?\s+(later|after(?:wards?)?|passed|went by|had passed)\b`), func(g []string) []Cue {
		n, ok := parseCount(g[1])
		if !ok {
			return nil
		}
		conf := ConfidenceHigh
		if vagueCounts[g[1]] {
			conf = ConfidenceLow
		}
		return []Cue{jumpCue(n, g[2], conf)}
	}},
	{rx(`\b(?:the\s+)?(?:next|following)\s+(day|morning|afternoon|evening|night|week|month|year)\b`), func(g []string) []Cue {
		switch g[1] {
		case "week", "month", "year":
			return []Cue{jumpCue(1, g[1], ConfidenceHigh)}
		case "day":
			return []Cue{jumpCue(1, "day", ConfidenceHigh)}
		}
		return append([]Cue{jumpCue(1, "day", ConfidenceHigh)}, bucketCue(g[1], ConfidenceHigh)...)
	}},
	{rx(`\b(?:the\s+)?day\s+after\b`), func(g []string) []Cue {
		return []Cue{jumpCue(1, "day", ConfidenceHigh)}
	}},
	{rx(`\btomorrow\b`), func(g []string) []Cue {
		return []Cue{jumpCue(1, "day", ConfidenceMed)}
	}},
	{rx(`\b(?:the\s+)?(?:day\s+before|previous\s+day|night\s+before)\b`), func(g []string) []Cue {
		return []Cue{jumpCue(-1, "day", ConfidenceMed)}
	}},
	{rx(`\byesterday\b`), func(g []string) []Cue {
		return []Cue{jumpCue(-1, "day", ConfidenceLow)}
	}},
	{rx(`\b(day|week|month|year)s\s+later\b`), func(g []string) []Cue {
		return []Cue{jumpCue(2, g[1], ConfidenceLow)}
	}},

	// Same-day clock times and named times of day.
	{rx(`\b(\d{1,2}):(\d{2})\s*([ap]\.?m\.?)?`), func(g []string) []Cue {
		h, _ := strconv.Atoi(g[1])
		m, _ := strconv.Atoi(g[2])
		return clockCue(h, m, g[3], ConfidenceHigh)
	}},
	{rx(`\b(\d{1,2})\s*([ap])\.?m\b\.?`), func(g []string) []Cue {
		h, _ := strconv.Atoi(g[1])
		if h < 1 || h > 12 {
			return nil
		}
		return clockCue(h, 0, g[2], ConfidenceHigh)
	}},
	{rx(`\b` + hourPattern + `\s+o'?clock\b`), func(g []string) []Cue {
		h, ok := parseCount(g[1])
		if !ok || h < 1 || h > 12 {
			return nil
		}
		// Unqualified small hours read as afternoon.
		if h < 7 {
			h += 12
		}
		return clockCue(h, 0, "", ConfidenceMed)
	}},
	{rx(`\b(?:noon|midday)\b`), func(g []string) []Cue {
		return clockCue(12, 0, "", ConfidenceHigh)
	}},
	{rx(`\b(?:this|that|the|in\s+the|early|late|later\s+that|later\s+this)\s+` + bucketPattern + `\b`), func(g []string) []Cue {
		return bucketCue(g[1], ConfidenceMed)
	}},
	{rx(`\b(tonight|midnight)\b`), func(g []string) []Cue {
		return bucketCue(g[1], ConfidenceMed)
	}},
	{rx(`\b(dawn|daybreak|sunrise|breakfast|lunchtime|lunch|dusk|sunset|twilight|dinner|supper|nightfall|bedtime)\b`), func(g []string) []Cue {
		return bucketCue(g[1], ConfidenceLow)
	}},
	{rx(`\b` + bucketPattern + `\b`), func(g []string) []Cue {
		return bucketCue(g[1], ConfidenceLow)
	}},

	// Continuity without a count.
	{rx(`\b(?:immediately|right)\s+after(?:wards?)?\b`), func(g []string) []Cue {
		return continuityCue(5, ConfidenceHigh)
	}},
	{rx(`\b(?:a\s+moment|moments|seconds)\s+later\b`), func(g []string) []Cue {
		return continuityCue(5, ConfidenceHigh)
	}},
	{rx(`\b(?:minutes|a\s+few\s+minutes)\s+later\b`), func(g []string) []Cue {
		return continuityCue(10, ConfidenceMed)
	}},
	{rx(`\b(?:shortly|soon)\s+(?:after(?:wards?)?|thereafter)\b`), func(g []string) []Cue {
		return continuityCue(30, ConfidenceMed)
	}},
	{rx(`\blater\s+that\s+day\b`), func(g []string) []Cue {
		return continuityCue(120, ConfidenceLow)
	}},
	{rx(`\b(?:meanwhile|in\s+the\s+meantime|at\s+the\s+same\s+time|simultaneously)\b`), func(g []string) []Cue {
		return continuityCue(0, ConfidenceMed)
	}},
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
