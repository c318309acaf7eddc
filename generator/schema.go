package generator

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

const briefSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "client":             {"type": ["string", "null"]},
    "industry":           {"type": ["string", "null"]},
    "painPoints":         {"type": ["string", "null"]},
    "budget":             {"type": ["string", "null"]},
    "timeline":           {"type": ["string", "null"]},
    "stakeholders":       {"type": ["string", "null"]},
    "successCriteria":    {"type": ["string", "null"]},
    "competitiveContext": {"type": ["string", "null"]}
  }
}`

const proposalSchemaJSON = `{
  "type": "object",
  "required": ["deckOutline", "talkTrack", "faq"],
  "properties": {
    "deckOutline": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "bullets", "speakerNote"],
        "properties": {
          "title":       {"type": "string"},
          "bullets":     {"type": "array", "items": {"type": "string"}},
          "speakerNote": {"type": "string"}
        }
      }
    },
    "talkTrack": {"type": "string"},
    "faq": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "answer"],
        "properties": {
          "question": {"type": "string"},
          "answer":   {"type": "string"}
        }
      }
    }
  }
}`

var (
	briefSchema    = mustSchema(briefSchemaJSON)
	proposalSchema = mustSchema(proposalSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return s
}

// validateDocument checks doc against schema and flattens violations into one error.
func validateDocument(schema *gojsonschema.Schema, doc string) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("document validation failed: %v", errs)
	}
	return nil
}
