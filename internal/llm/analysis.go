package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"careersync/internal/models"
)

// AnalysisPayload is the structured result the model must return.
type AnalysisPayload struct {
	CVRating        int                   `json:"cvRating"`
	Skills          []string              `json:"skills"`
	ExperienceLevel string                `json:"experienceLevel"`
	MissingSkills   []string              `json:"missingSkills"`
	LearningRoadmap []models.RoadmapEntry `json:"learningRoadmap"`
	JobMatches      []models.JobMatch     `json:"jobMatches"`
}

// analysisSchema is the contract the model's JSON must satisfy before any
// of it is persisted. Malformed output is rejected so the caller can retry
// instead of storing garbage.
const analysisSchema = `{
  "type": "object",
  "required": ["cvRating", "skills", "experienceLevel", "missingSkills", "learningRoadmap", "jobMatches"],
  "properties": {
    "cvRating": {"type": "integer", "minimum": 0, "maximum": 100},
    "skills": {"type": "array", "items": {"type": "string"}, "minItems": 1},
    "experienceLevel": {"type": "string", "minLength": 1},
    "missingSkills": {"type": "array", "items": {"type": "string"}},
    "learningRoadmap": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["week", "skill", "course", "platform", "hours", "link"],
        "properties": {
          "week": {"type": "integer", "minimum": 1},
          "skill": {"type": "string"},
          "course": {"type": "string"},
          "platform": {"type": "string"},
          "hours": {"type": "number", "minimum": 0},
          "link": {"type": "string"},
          "tips": {"type": "string"},
          "practiceExercises": {"type": "string"}
        }
      }
    },
    "jobMatches": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "company", "matchScore", "salary", "location"],
        "properties": {
          "title": {"type": "string"},
          "company": {"type": "string"},
          "companyWebsite": {"type": "string"},
          "companyLogo": {"type": "string"},
          "matchScore": {"type": "integer", "minimum": 0, "maximum": 100},
          "salary": {"type": "string"},
          "location": {"type": "string"}
        }
      }
    }
  }
}`

var analysisSchemaLoader = gojsonschema.NewStringLoader(analysisSchema)

// ParseAnalysis extracts the JSON object from the model's free-text reply
// and validates it against the analysis schema.
func ParseAnalysis(content string) (*AnalysisPayload, error) {
	raw, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}

	result, err := gojsonschema.Validate(analysisSchemaLoader, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("analysis response is not valid JSON: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("analysis response failed schema validation: %s", strings.Join(problems, "; "))
	}

	var payload AnalysisPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	return &payload, nil
}

// extractJSONObject returns the outermost {...} block of the reply, after
// stripping any markdown code fences the model wrapped it in.
func extractJSONObject(content string) (string, error) {
	content = CleanJSONBlock(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in analysis response")
	}
	return content[start : end+1], nil
}

// CleanJSONBlock removes markdown code block wrappers. Models often wrap
// JSON in ```json ... ``` fences even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}
