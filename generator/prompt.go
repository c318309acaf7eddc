package generator

import (
	"fmt"
	"strings"

	"proposal_agent/library"
)

// Prompt is one request to the model. System carries fixed instructions, User carries data.
type Prompt struct {
	System string
	User   string
}

const extractionSystemPrompt = `You are a sales intelligence analyst at a technology consulting firm.
You read discovery call transcripts and extract the facts needed to write a proposal brief.

Return ONLY a JSON object with exactly these eight keys and no others. Do not wrap it in markdown and do not add any explanation:
{
  "client": string | null,
  "industry": string | null,
  "painPoints": string | null,
  "budget": string | null,
  "timeline": string | null,
  "stakeholders": string | null,
  "successCriteria": string | null,
  "competitiveContext": string | null
}

Field meanings:
- client: the company or organization name
- industry: the primary industry or vertical, e.g. "Financial Services", "Healthcare", "Retail"
- painPoints: the specific business problems and frustrations raised, keeping their business context
- budget: budget ranges, investment appetite or financial constraints mentioned
- timeline: desired start or go-live dates, urgency signals, expected project duration
- stakeholders: names, titles and roles of decision makers or people mentioned on the call
- successCriteria: how the client will measure success: KPIs, outcomes, goals
- competitiveContext: other vendors under evaluation, incumbent solutions, competitive dynamics

If a field is not mentioned and cannot reasonably be inferred, set it to null. Never use an empty string.`

const generationSystemPrompt = `You are a senior proposal strategist at a technology consulting firm specializing in data, AI and digital transformation.
Your proposals are executive-ready, tailored to the client's situation, grounded in demonstrated outcomes and built as a clear narrative.

You will receive a client brief and reference content from past winning proposals. Use the references for style, structure and proof points, but tailor everything to this client.

Return ONLY a JSON object in exactly this shape. Do not wrap it in markdown fences:
{
  "deckOutline": [
    {"title": "slide title", "bullets": ["bullet 1", "bullet 2", "bullet 3"], "speakerNote": "what to say on this slide"}
  ],
  "talkTrack": "the full talk track as flowing prose with section headers",
  "faq": [
    {"question": "anticipated client question", "answer": "concise, confident answer"}
  ]
}

Requirements:
- deckOutline has 10 to 12 slides covering: situation and context, challenges, our approach, team and expertise, relevant case studies, proposed solution, timeline and phasing, investment, next steps.
- talkTrack is 600 to 900 words: a complete narrative a seller can use to walk through the proposal.
- faq has exactly 10 items covering: pricing, timeline, team, risk, implementation, success metrics, competitive differentiation, support, scalability, references.`

// BuildExtractionPrompt wraps a raw transcript for brief extraction.
func BuildExtractionPrompt(transcript string) Prompt {
	return Prompt{
		System: extractionSystemPrompt,
		User:   "Analyze this discovery call transcript and extract the proposal brief:\n\n" + transcript,
	}
}

// BuildGenerationPrompt renders the brief and reference block for proposal generation.
func BuildGenerationPrompt(brief Brief, referenceContent string) Prompt {
	var sb strings.Builder
	sb.WriteString("## Client Brief\n")
	writeBriefLine(&sb, "Client", brief.Client, "Unknown")
	writeBriefLine(&sb, "Industry", brief.Industry, "Unknown")
	writeBriefLine(&sb, "Key Pain Points", brief.PainPoints, "Not specified")
	writeBriefLine(&sb, "Budget Signal", brief.Budget, "Not discussed")
	writeBriefLine(&sb, "Timeline", brief.Timeline, "Not specified")
	writeBriefLine(&sb, "Key Stakeholders", brief.Stakeholders, "Not specified")
	writeBriefLine(&sb, "Success Criteria", brief.SuccessCriteria, "Not specified")
	writeBriefLine(&sb, "Competitive Context", brief.CompetitiveContext, "Not mentioned")
	sb.WriteString("\n## Reference Proposals (use for style, structure, and proof points)\n")
	sb.WriteString(referenceContent)
	sb.WriteString("\n\nGenerate a complete proposal package (deck outline, talk track, FAQ) for this client.")

	return Prompt{
		System: generationSystemPrompt,
		User:   sb.String(),
	}
}

// referenceDivider separates entries in the reference block.
const referenceDivider = "\n\n---\n\n"

// RenderReferenceContent concatenates the matched entries as "### title\ncontent" blocks.
func RenderReferenceContent(matches []library.Match) string {
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = fmt.Sprintf("### %s\n%s", m.Entry.Title, m.Entry.Content)
	}
	return strings.Join(parts, referenceDivider)
}

func writeBriefLine(sb *strings.Builder, label string, value *string, fallback string) {
	v := fallback
	if value != nil {
		v = *value
	}
	fmt.Fprintf(sb, "- **%s:** %s\n", label, v)
}
