package generator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripFence removes a surrounding markdown code fence, with or without a "json" tag.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimPrefix(s, "JSON")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// extractObject returns the span from the first '{' to the last '}'.
func extractObject(raw string) (string, bool) {
	s := stripFence(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func parseFailure(reason string, err error) *Error {
	if err != nil {
		return NewError(KindResponseShape, reason, fmt.Errorf("%w: %v", ErrParseFailure, err))
	}
	return NewError(KindResponseShape, reason, ErrParseFailure)
}

// ParseBrief decodes the extraction response. Empty or blank values become nil.
func ParseBrief(raw string) (Brief, error) {
	doc, ok := extractObject(raw)
	if !ok {
		return Brief{}, parseFailure("model response contains no JSON object", nil)
	}
	if err := validateDocument(briefSchema, doc); err != nil {
		return Brief{}, parseFailure("model response is not a valid brief", err)
	}

	var b Brief
	if err := json.Unmarshal([]byte(doc), &b); err != nil {
		return Brief{}, parseFailure("model response is not a valid brief", err)
	}
	for _, f := range BriefFields() {
		slot := b.Value(f)
		if *slot == nil {
			continue
		}
		v := strings.TrimSpace(**slot)
		if v == "" {
			*slot = nil
			continue
		}
		*slot = &v
	}
	return b, nil
}

// ParseProposal decodes the generation response. LibraryReferences is left empty for the caller to fill.
func ParseProposal(raw string) (Proposal, error) {
	doc, ok := extractObject(raw)
	if !ok {
		return Proposal{}, parseFailure("model response contains no JSON object", nil)
	}
	if err := validateDocument(proposalSchema, doc); err != nil {
		return Proposal{}, parseFailure("model response is not a valid proposal", err)
	}

	var p Proposal
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return Proposal{}, parseFailure("model response is not a valid proposal", err)
	}
	if p.DeckOutline == nil {
		p.DeckOutline = []Slide{}
	}
	for i := range p.DeckOutline {
		if p.DeckOutline[i].Bullets == nil {
			p.DeckOutline[i].Bullets = []string{}
		}
	}
	if p.FAQ == nil {
		p.FAQ = []FAQItem{}
	}
	p.LibraryReferences = nil
	return p, nil
}
