package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"proposal_agent/generator"
)

// Markdown renders a as a markdown document. The talk track is already markdown-ish prose with
// section headers and is passed through.
func Markdown(a Artifact, p generator.Proposal, brief *generator.Brief, now time.Time) (string, error) {
	var b strings.Builder
	client := field(brief, generator.FieldClient)
	switch a {
	case Deck:
		fmt.Fprintf(&b, "# Proposal Deck Outline: %s\n\n", client)
		fmt.Fprintf(&b, "*Industry: %s. Generated %s.*\n\n", field(brief, generator.FieldIndustry), now.Format("2006-01-02"))
		for i, s := range p.DeckOutline {
			fmt.Fprintf(&b, "## Slide %d: %s\n\n", i+1, s.Title)
			for _, bullet := range s.Bullets {
				fmt.Fprintf(&b, "- %s\n", bullet)
			}
			if s.SpeakerNote != "" {
				fmt.Fprintf(&b, "\n> Speaker note: %s\n", s.SpeakerNote)
			}
			b.WriteString("\n")
		}
	case TalkTrack:
		fmt.Fprintf(&b, "# Talk Track: %s\n\n", client)
		fmt.Fprintf(&b, "*Generated %s.*\n\n", now.Format("2006-01-02"))
		b.WriteString(p.TalkTrack)
		b.WriteString("\n")
	case FAQ:
		fmt.Fprintf(&b, "# Frequently Asked Questions: %s\n\n", client)
		fmt.Fprintf(&b, "*Generated %s.*\n\n", now.Format("2006-01-02"))
		for i, item := range p.FAQ {
			fmt.Fprintf(&b, "### Q%d: %s\n\n%s\n\n", i+1, item.Question, item.Answer)
		}
	default:
		return "", fmt.Errorf("unknown artifact %q", a)
	}
	return b.String(), nil
}

// HTML renders a as an HTML fragment.
func HTML(a Artifact, p generator.Proposal, brief *generator.Brief, now time.Time) (string, error) {
	md, err := Markdown(a, p, brief, now)
	if err != nil {
		return "", err
	}
	return mdToHTML(md)
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
