package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"proposal_agent/generator"
)

// Format selects the document encoding.
type Format string

const (
	FormatText Format = "txt"
	FormatHTML Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatHTML:
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// ContentType is the HTTP media type for f.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Render produces the document body and its download filename.
func Render(a Artifact, f Format, p generator.Proposal, brief *generator.Brief, now time.Time) (body, filename string, err error) {
	switch f {
	case FormatHTML:
		body, err = HTML(a, p, brief, now)
	default:
		body, err = Text(a, p, brief, now)
	}
	if err != nil {
		return "", "", err
	}
	return body, Filename(a, brief, now, string(f)), nil
}

// WriteAll writes every artifact into dir and returns the written paths.
func WriteAll(dir string, f Format, p generator.Proposal, brief *generator.Brief, now time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	paths := make([]string, 0, len(Artifacts))
	for _, a := range Artifacts {
		body, name, err := Render(a, f, p, brief, now)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

var (
	timelineRe   = regexp.MustCompile(`Q[1-4]\s*\d{4}|20\d{2}`)
	painKeywords = []string{"data", "reporting", "analytics", "compliance", "ai", "cloud", "infrastructure"}
)

const maxTags = 5

// Tags derives up to five filing tags from the brief: the industry slug, a quarter or year from
// the timeline, then pain point keywords.
func Tags(brief *generator.Brief) []string {
	tags := []string{}
	if brief == nil {
		return tags
	}
	seen := map[string]bool{}
	add := func(tag string) {
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	if brief.Industry != nil {
		add(strings.ToLower(spaceRe.ReplaceAllString(*brief.Industry, "-")))
	}
	if brief.Timeline != nil {
		if m := timelineRe.FindString(*brief.Timeline); m != "" {
			add(strings.ToLower(spaceRe.ReplaceAllString(m, "-")))
		}
	}
	if brief.PainPoints != nil {
		lower := strings.ToLower(*brief.PainPoints)
		for _, k := range painKeywords {
			if strings.Contains(lower, k) {
				add(k)
			}
		}
	}
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}
