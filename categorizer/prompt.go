package categorizer

import (
	"encoding/json"
	"fmt"
	"strings"
)

var instructions = fmt.Sprintf(`You are an AI assistant that categorizes civic issues reported by citizens.
Based on the provided caption and image (if available), determine the most appropriate category for the issue.
The available categories are: %s.

Rules:
1. If an image is provided, what the image shows takes priority. Use the caption only to disambiguate.
2. If several distinct problems are visible or described, pick the most prominent or urgent one.
3. Select exactly one category from the list.
4. If you are unsure, or the issue does not clearly match garbage, drainage, potholes or streetlights, answer "other".

Respond with a JSON object of the form {"category": "<category>"} and nothing else.`, strings.Join(Names(), ", "))

// Instructions returns the fixed instruction block sent with every request.
func Instructions() string { return instructions }

func captionText(caption string) string {
	return "Issue Caption: " + caption
}

type output struct {
	Category string `json:"category"`
}

// decodeOutput extracts the category field from a model's JSON answer.
// Markdown code fences around the JSON are tolerated. A missing field decodes
// to "", which the service rejects as an invalid label.
func decodeOutput(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty model output")
	}

	var out output
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return "", fmt.Errorf("failed to parse model output as JSON: %w (content: %q)", err, text)
	}
	return out.Category, nil
}
