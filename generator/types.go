package generator

import "proposal_agent/library"

// Brief is the structured summary extracted from a call transcript. A nil field was not found.
type Brief struct {
	Client             *string `json:"client"`
	Industry           *string `json:"industry"`
	PainPoints         *string `json:"painPoints"`
	Budget             *string `json:"budget"`
	Timeline           *string `json:"timeline"`
	Stakeholders       *string `json:"stakeholders"`
	SuccessCriteria    *string `json:"successCriteria"`
	CompetitiveContext *string `json:"competitiveContext"`
}

// BriefField names a Brief field by its JSON key.
type BriefField string

const (
	FieldClient             BriefField = "client"
	FieldIndustry           BriefField = "industry"
	FieldPainPoints         BriefField = "painPoints"
	FieldBudget             BriefField = "budget"
	FieldTimeline           BriefField = "timeline"
	FieldStakeholders       BriefField = "stakeholders"
	FieldSuccessCriteria    BriefField = "successCriteria"
	FieldCompetitiveContext BriefField = "competitiveContext"
)

// MissingField explains why an absent brief field matters.
type MissingField struct {
	Field  BriefField `json:"field"`
	Label  string     `json:"label"`
	Reason string     `json:"reason"`
}

// briefFields is the per-field metadata table, in display order.
var briefFields = []MissingField{
	{Field: FieldClient, Label: "Client Name", Reason: "Required to personalize every section of the proposal."},
	{Field: FieldIndustry, Label: "Industry", Reason: "Determines which reference proposals and messaging frameworks to use."},
	{Field: FieldPainPoints, Label: "Pain Points", Reason: "Core of the value proposition; without it the proposal cannot be tailored."},
	{Field: FieldBudget, Label: "Budget Signal", Reason: "Critical for scoping the engagement and selecting the right offer tier."},
	{Field: FieldTimeline, Label: "Timeline", Reason: "Needed to frame urgency and phasing in the proposal."},
	{Field: FieldStakeholders, Label: "Key Stakeholders", Reason: "Determines who the talk track should address and what objections to anticipate."},
	{Field: FieldSuccessCriteria, Label: "Success Criteria", Reason: "Defines how the client will measure ROI and anchors the narrative."},
	{Field: FieldCompetitiveContext, Label: "Competitive Context", Reason: "Needed to position against alternatives the client is evaluating."},
}

// BriefFields lists every field in display order.
func BriefFields() []BriefField {
	out := make([]BriefField, len(briefFields))
	for i, f := range briefFields {
		out[i] = f.Field
	}
	return out
}

// Value returns a pointer to the named field's value slot.
func (b *Brief) Value(f BriefField) **string {
	switch f {
	case FieldClient:
		return &b.Client
	case FieldIndustry:
		return &b.Industry
	case FieldPainPoints:
		return &b.PainPoints
	case FieldBudget:
		return &b.Budget
	case FieldTimeline:
		return &b.Timeline
	case FieldStakeholders:
		return &b.Stakeholders
	case FieldSuccessCriteria:
		return &b.SuccessCriteria
	case FieldCompetitiveContext:
		return &b.CompetitiveContext
	}
	return nil
}

// MissingFields lists every nil field of b with its label and rationale.
func MissingFields(b Brief) []MissingField {
	out := []MissingField{}
	for _, meta := range briefFields {
		if *b.Value(meta.Field) == nil {
			out = append(out, meta)
		}
	}
	return out
}

// Query is the retrieval view of the brief.
func (b Brief) Query() library.Query {
	return library.Query{Industry: b.Industry, PainPoints: b.PainPoints}
}

type Slide struct {
	Title       string   `json:"title"`
	Bullets     []string `json:"bullets"`
	SpeakerNote string   `json:"speakerNote"`
}

type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Proposal is the generated package. LibraryReferences is set by the generator, never the model.
type Proposal struct {
	DeckOutline       []Slide             `json:"deckOutline"`
	TalkTrack         string              `json:"talkTrack"`
	FAQ               []FAQItem           `json:"faq"`
	LibraryReferences []library.Reference `json:"libraryReferences"`
}
