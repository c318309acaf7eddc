// Package export renders a generated proposal into downloadable documents.
package export

import (
	"fmt"
	"strings"
	"time"

	"proposal_agent/generator"
)

// Artifact is one downloadable part of a proposal.
type Artifact string

const (
	Deck      Artifact = "deck"
	TalkTrack Artifact = "talktrack"
	FAQ       Artifact = "faq"
)

// Artifacts lists every artifact in download order.
var Artifacts = []Artifact{Deck, TalkTrack, FAQ}

var fileStems = map[Artifact]string{
	Deck:      "deck-outline",
	TalkTrack: "talk-track",
	FAQ:       "faq",
}

const rule = "============================================================"

func ParseArtifact(s string) (Artifact, error) {
	a := Artifact(strings.ToLower(s))
	if _, ok := fileStems[a]; !ok {
		return "", fmt.Errorf("unknown artifact %q", s)
	}
	return a, nil
}

// Filename builds "<client>-<artifact>-<yyyy-mm-dd>.<ext>".
func Filename(a Artifact, brief *generator.Brief, now time.Time, ext string) string {
	client := ""
	if brief != nil && brief.Client != nil {
		client = slug(*brief.Client)
	}
	if client == "" {
		client = "client"
	}
	return fmt.Sprintf("%s-%s-%s.%s", client, fileStems[a], now.Format("2006-01-02"), ext)
}

// slug keeps [a-z0-9] and collapses every other run of runes into one dash, so the result is
// always a single path element.
func slug(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(sb.String(), "-")
}

// Text renders a plain-text document for a.
func Text(a Artifact, p generator.Proposal, brief *generator.Brief, now time.Time) (string, error) {
	var lines []string
	switch a {
	case Deck:
		lines = header("PROPOSAL DECK OUTLINE", brief, true, now)
		for i, s := range p.DeckOutline {
			lines = append(lines, fmt.Sprintf("Slide %d: %s", i+1, s.Title))
			for _, b := range s.Bullets {
				lines = append(lines, "  • "+b)
			}
			if s.SpeakerNote != "" {
				lines = append(lines, "  [Speaker note] "+s.SpeakerNote)
			}
			lines = append(lines, "")
		}
	case TalkTrack:
		lines = append(header("TALK TRACK", brief, false, now), p.TalkTrack)
	case FAQ:
		lines = header("FREQUENTLY ASKED QUESTIONS", brief, false, now)
		for i, item := range p.FAQ {
			lines = append(lines, fmt.Sprintf("Q%d: %s", i+1, item.Question), "A: "+item.Answer, "")
		}
	default:
		return "", fmt.Errorf("unknown artifact %q", a)
	}
	return strings.Join(lines, "\n"), nil
}

func header(title string, brief *generator.Brief, withIndustry bool, now time.Time) []string {
	lines := []string{title, "Client: " + field(brief, generator.FieldClient)}
	if withIndustry {
		lines = append(lines, "Industry: "+field(brief, generator.FieldIndustry))
	}
	return append(lines, "Generated: "+now.Format("2006-01-02"), "", rule, "")
}

func field(brief *generator.Brief, f generator.BriefField) string {
	if brief == nil {
		return "Unknown"
	}
	if v := *brief.Value(f); v != nil {
		return *v
	}
	return "Unknown"
}
