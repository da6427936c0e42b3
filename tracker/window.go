package tracker

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// window is an inclusive range of civil time of day, at one-second resolution.
type window struct {
	start, end time.Duration
}

var (
	planWindow  = window{start: 5 * time.Hour, end: 9 * time.Hour}
	proofWindow = window{start: 21 * time.Hour, end: 23 * time.Hour}
)

func (w window) contains(t time.Time, loc *time.Location) bool {
	local := t.In(loc)
	sinceMidnight := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second
	return sinceMidnight >= w.start && sinceMidnight <= w.end
}

var proofPhrases = []string{
	"today target completed",
	"today target complete",
	"target completed",
}

// isProofCaption reports whether caption contains one of the proof phrases, ignoring case.
func isProofCaption(caption string) bool {
	// Casers carry state, so each call gets its own
	folded := cases.Fold().String(caption)
	for _, p := range proofPhrases {
		if strings.Contains(folded, p) {
			return true
		}
	}
	return false
}
