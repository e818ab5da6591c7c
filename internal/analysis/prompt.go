package analysis

import (
	"strings"
)

// SchemaVersion tags the output contract embedded in every prompt. Bump it
// whenever the schema below changes shape.
const SchemaVersion = "2"

// Prompt renders the instruction for r. A liked item that also appears in
// DislikedItems is treated as disliked.
func (r Request) Prompt() string {
	liked := make([]string, 0, len(r.LikedItems))
	for _, item := range r.LikedItems {
		if !containsFold(r.DislikedItems, item) {
			liked = append(liked, item)
		}
	}
	return BuildPrompt(r.DietaryPreferences, liked, r.DislikedItems)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}

// BuildPrompt renders the instruction sent alongside the menu photo.
// The learned-preferences clause appears only when feedback exists.
func BuildPrompt(preferences, liked, disliked []string) string {
	var b strings.Builder

	b.WriteString("Analyze this restaurant menu image based on the following dietary preferences: ")
	b.WriteString(strings.Join(preferences, ", "))
	b.WriteString("\n\n")

	if len(liked) > 0 || len(disliked) > 0 {
		b.WriteString("Learned preferences from this diner's past feedback:\n")
		if len(liked) > 0 {
			b.WriteString("- They enjoyed: ")
			b.WriteString(strings.Join(liked, ", "))
			b.WriteString(". Rate similar dishes higher.\n")
		}
		if len(disliked) > 0 {
			b.WriteString("- They did not enjoy: ")
			b.WriteString(strings.Join(disliked, ", "))
			b.WriteString(". Rate similar dishes lower.\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(instructions)
	return b.String()
}

const instructions = `Please provide:
1. A short summary of how well this menu fits the preferences, and an overall compatibility score from 1.0 to 5.0.
2. Every readable menu item rated from 1 (avoid) to 5 (ideal):
   - rating 4-5 goes in "suitableItems"
   - rating 3 goes in "neutralItems"
   - rating 1-2 goes in "unsuitableItems"
3. Your top 3 recommendations from the suitable items with brief explanations.
4. Each menu section with its compatibility (high, medium or low) and a one-line description.

For each item give its approximate location on the menu. If you can locate it
precisely, add "bbox" with x, y, width and height as percentages (0-100) of the
image; otherwise omit "bbox".

Respond with JSON only. No markdown, no comments, no extra text.
The JSON MUST follow this schema (schemaVersion ` + SchemaVersion + `):
{
  "schemaVersion": "` + SchemaVersion + `",
  "summary": "string",
  "overallCompatibility": 4.2,
  "suitableItems": [
    {"name": "item name", "rating": 5, "reason": "why it fits", "location": "top left, Starters", "bbox": {"x": 10, "y": 12, "width": 30, "height": 4}}
  ],
  "neutralItems": [
    {"name": "item name", "rating": 3, "reason": "what to ask the server", "location": "approximate location"}
  ],
  "unsuitableItems": [
    {"name": "item name", "rating": 1, "reason": "why to avoid it", "location": "approximate location"}
  ],
  "recommendations": [
    {"name": "item name", "rating": 5, "reason": "why recommended"}
  ],
  "menuSections": [
    {"section": "Starters", "compatibility": "high", "description": "mostly plant based"}
  ]
}`
