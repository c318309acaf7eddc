package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal_agent/generator"
)

var day = time.Date(2025, 3, 14, 16, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func testBrief() *generator.Brief {
	return &generator.Brief{
		Client:     strPtr("Northwind  Bank"),
		Industry:   strPtr("Financial Services"),
		Timeline:   strPtr("Kick off in Q3 2025"),
		PainPoints: strPtr("Slow regulatory reporting, compliance risk, legacy data warehouse"),
	}
}

func testProposal() generator.Proposal {
	return generator.Proposal{
		DeckOutline: []generator.Slide{
			{Title: "Situation", Bullets: []string{"36-hour reporting", "Manual reconciliation"}, SpeakerNote: "Lead with their numbers."},
			{Title: "Next Steps", Bullets: []string{"Discovery workshop"}},
		},
		TalkTrack: "## Opening\nThanks for your time.",
		FAQ: []generator.FAQItem{
			{Question: "What does it cost?", Answer: "Fixed fee per phase."},
		},
	}
}

func TestText_Deck(t *testing.T) {
	got, err := Text(Deck, testProposal(), testBrief(), day)
	require.NoError(t, err)

	want := strings.Join([]string{
		"PROPOSAL DECK OUTLINE",
		"Client: Northwind  Bank",
		"Industry: Financial Services",
		"Generated: 2025-03-14",
		"",
		rule,
		"",
		"Slide 1: Situation",
		"  • 36-hour reporting",
		"  • Manual reconciliation",
		"  [Speaker note] Lead with their numbers.",
		"",
		"Slide 2: Next Steps",
		"  • Discovery workshop",
		"",
	}, "\n")
	assert.Equal(t, want, got)
	assert.Len(t, rule, 60)
}

func TestText_TalkTrackAndFAQ(t *testing.T) {
	tt, err := Text(TalkTrack, testProposal(), nil, day)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tt, "TALK TRACK\nClient: Unknown\nGenerated: 2025-03-14\n"))
	assert.True(t, strings.HasSuffix(tt, "## Opening\nThanks for your time."))
	assert.NotContains(t, tt, "Industry:")

	faq, err := Text(FAQ, testProposal(), testBrief(), day)
	require.NoError(t, err)
	assert.Contains(t, faq, "FREQUENTLY ASKED QUESTIONS\n")
	assert.Contains(t, faq, "Q1: What does it cost?\nA: Fixed fee per phase.\n")
}

func TestText_UnknownArtifact(t *testing.T) {
	_, err := Text(Artifact("memo"), testProposal(), nil, day)
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "northwind-bank-deck-outline-2025-03-14.txt", Filename(Deck, testBrief(), day, "txt"))
	assert.Equal(t, "client-talk-track-2025-03-14.html", Filename(TalkTrack, nil, day, "html"))
	assert.Equal(t, "client-faq-2025-03-14.txt", Filename(FAQ, &generator.Brief{}, day, "txt"))
}

func TestHTML(t *testing.T) {
	p := testProposal()
	p.FAQ = append(p.FAQ, generator.FAQItem{Question: "Safe?", Answer: "<script>alert(1)</script>"})

	deck, err := HTML(Deck, p, testBrief(), day)
	require.NoError(t, err)
	assert.Contains(t, deck, "<h1>Proposal Deck Outline: Northwind")
	assert.Contains(t, deck, "<li>36-hour reporting</li>")
	assert.Contains(t, deck, "<blockquote>")

	faq, err := HTML(FAQ, p, testBrief(), day)
	require.NoError(t, err)
	assert.Contains(t, faq, "<h3>Q1: What does it cost?</h3>")
	assert.NotContains(t, faq, "<script>", "raw HTML from the model is not rendered")

	talk, err := HTML(TalkTrack, p, testBrief(), day)
	require.NoError(t, err)
	assert.Contains(t, talk, "<h2>Opening</h2>")
}

func TestRender(t *testing.T) {
	body, name, err := Render(FAQ, FormatHTML, testProposal(), testBrief(), day)
	require.NoError(t, err)
	assert.Equal(t, "northwind-bank-faq-2025-03-14.html", name)
	assert.Contains(t, body, "<h3>")
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteAll(dir, FormatText, testProposal(), testBrief(), day)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	for _, p := range paths {
		b, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.NotEmpty(t, b)
	}
	assert.Equal(t, "northwind-bank-deck-outline-2025-03-14.txt", filepath.Base(paths[0]))
}

func TestFilename_UnsafeClientNames(t *testing.T) {
	tests := []struct {
		client string
		want   string
	}{
		{client: "../escaped/Acme", want: "escaped-acme-faq-2025-03-14.txt"},
		{client: "Acme/Corp", want: "acme-corp-faq-2025-03-14.txt"},
		{client: `Acme "Labs"; x=1`, want: "acme-labs-x-1-faq-2025-03-14.txt"},
		{client: "..", want: "client-faq-2025-03-14.txt"},
		{client: "銀行", want: "client-faq-2025-03-14.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.client, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(FAQ, &generator.Brief{Client: strPtr(tt.client)}, day, "txt"))
		})
	}
}

func TestWriteAll_StaysInsideDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "escaped"), 0o755))

	for _, client := range []string{"../escaped/Acme", "Acme/Corp", "/etc/passwd"} {
		paths, err := WriteAll(dir, FormatText, testProposal(), &generator.Brief{Client: strPtr(client)}, day)
		require.NoError(t, err, client)
		for _, p := range paths {
			assert.Equal(t, dir, filepath.Dir(p), client)
		}
	}
	entries, err := os.ReadDir(filepath.Join(root, "escaped"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseArtifactAndFormat(t *testing.T) {
	a, err := ParseArtifact("FAQ")
	require.NoError(t, err)
	assert.Equal(t, FAQ, a)
	_, err = ParseArtifact("slides")
	assert.Error(t, err)

	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)
	f, err = ParseFormat("html")
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", f.ContentType())
	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestTags(t *testing.T) {
	assert.Equal(t, []string{"financial-services", "q3-2025", "data", "reporting", "compliance"}, Tags(testBrief()))
	assert.Equal(t, []string{}, Tags(nil))
	assert.Equal(t, []string{"2026"}, Tags(&generator.Brief{Timeline: strPtr("sometime in 2026")}))
}
