// Package library holds the static reference proposals and the lexical retriever over them.
package library

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed corpus.yaml
var corpusYAML []byte

// Entry is a past proposal used to ground generation. Entries are never mutated after load.
type Entry struct {
	ID       string   `yaml:"id" json:"id"`
	Title    string   `yaml:"title" json:"title"`
	Industry string   `yaml:"industry" json:"industry"`
	Tags     []string `yaml:"tags" json:"tags"`
	Summary  string   `yaml:"summary" json:"summary"`
	Content  string   `yaml:"content" json:"content,omitempty"`
}

// Reference links a generation run back to an Entry.
type Reference struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Similarity int    `json:"similarity"`
}

// Corpus is the versioned, read-only reference set.
type Corpus struct {
	Version int     `yaml:"version"`
	Entries []Entry `yaml:"entries"`
}

// Parse decodes a corpus document and checks ids are present and unique.
func Parse(data []byte) (*Corpus, error) {
	var c Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	if len(c.Entries) == 0 {
		return nil, errors.New("corpus has no entries")
	}
	seen := make(map[string]bool, len(c.Entries))
	for i := range c.Entries {
		e := &c.Entries[i]
		if e.ID == "" {
			return nil, fmt.Errorf("corpus entry %d has no id", i)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("duplicate corpus entry id %q", e.ID)
		}
		seen[e.ID] = true
		e.Content = strings.TrimSpace(e.Content)
		e.Summary = strings.TrimSpace(e.Summary)
	}
	return &c, nil
}

// Default returns the embedded corpus. It panics on a malformed embed, which is a build defect.
func Default() *Corpus {
	c, err := Parse(corpusYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Summaries returns the entries without their content bodies.
func (c *Corpus) Summaries() []Entry {
	out := make([]Entry, len(c.Entries))
	for i, e := range c.Entries {
		e.Content = ""
		e.Tags = append([]string(nil), e.Tags...)
		out[i] = e
	}
	return out
}
