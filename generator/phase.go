package generator

import "strings"

// Phase is a coarse progress stage inferred from partial generation output.
type Phase string

const (
	PhaseDeck      Phase = "deck"
	PhaseTalkTrack Phase = "talktrack"
	PhaseFAQ       Phase = "faq"
)

var phaseMessages = map[Phase]string{
	PhaseDeck:      "Building deck outline...",
	PhaseTalkTrack: "Writing talk track...",
	PhaseFAQ:       "Generating FAQ...",
}

// Message is the progress text shown for p.
func (p Phase) Message() string {
	return phaseMessages[p]
}

const (
	talkTrackMarker = `"talkTrack"`
	faqMarker       = `"faq"`
)

// phaseTracker watches streamed text for JSON key markers. Each phase fires at most once and
// phases only move forward. Only a short tail of earlier text is kept, so markers split across
// chunks are still found without rescanning the whole accumulation.
type phaseTracker struct {
	tail      string
	talkTrack bool
	faq       bool
}

// observe feeds one chunk and returns the phases that start because of it, in order.
func (t *phaseTracker) observe(chunk string) []Phase {
	if t.faq {
		return nil
	}
	window := t.tail + chunk

	var out []Phase
	if strings.Contains(window, faqMarker) {
		if !t.talkTrack {
			t.talkTrack = true
			out = append(out, PhaseTalkTrack)
		}
		t.faq = true
		out = append(out, PhaseFAQ)
		return out
	}
	if !t.talkTrack && strings.Contains(window, talkTrackMarker) {
		t.talkTrack = true
		out = append(out, PhaseTalkTrack)
	}

	keep := len(talkTrackMarker) - 1
	if len(window) > keep {
		window = window[len(window)-keep:]
	}
	t.tail = window
	return out
}
