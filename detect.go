package chronologue

import (
	"slices"
	"time"
)

// LargeGapFactor is the multiple of the median gap above which a
// transition counts as a large gap.
const LargeGapFactor = 5

// LargeGapThreshold returns median(gaps) × LargeGapFactor over the
// consecutive effective timestamps of entries. It is zero for fewer than
// two entries.
func LargeGapThreshold(entries []Entry) time.Duration {
	if len(entries) < 2 {
		return 0
	}
	gaps := make([]time.Duration, 0, len(entries)-1)
	for i := 1; i < len(entries); i++ {
		gaps = append(gaps, entries[i].EffectiveWhen().Sub(entries[i-1].EffectiveWhen()))
	}
	slices.Sort(gaps)

	mid := len(gaps) / 2
	median := gaps[mid]
	if len(gaps)%2 == 0 {
		median = (gaps[mid-1] + gaps[mid]) / 2
	}
	return median * LargeGapFactor
}

// DetectIssues recomputes the derived flags of every entry in place and
// returns the large-gap threshold it used.
//
// NeedsReview is ReviewRequested or HasBackwardTime; a review request
// set by an inference tier is never cleared here.
func DetectIssues(entries []Entry) time.Duration {
	threshold := LargeGapThreshold(entries)
	for i := range entries {
		flagEntry(entries, i, threshold)
	}
	return threshold
}

// flagEntry derives the flags of entries[i] against its predecessor.
func flagEntry(entries []Entry, i int, threshold time.Duration) {
	e := &entries[i]
	e.HasBackwardTime = false
	e.HasLargeGap = false
	if i > 0 {
		gap := e.EffectiveWhen().Sub(entries[i-1].EffectiveWhen())
		e.HasBackwardTime = gap < 0
		e.HasLargeGap = threshold > 0 && gap > threshold
	}
	e.NeedsReview = e.ReviewRequested || e.HasBackwardTime
	e.IsChanged = e.changed()
}
