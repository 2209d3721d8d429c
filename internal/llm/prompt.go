package llm

import (
	"encoding/json"
	"strings"
)

// BuildPrompt assembles the single extraction prompt: an explicit JSON-only
// instruction, the canonical schema serialized for the model to mirror, and
// the combined email/attachment text.
func BuildPrompt(content string) string {
	schema, _ := json.MarshalIndent(PromptSchema(), "", "  ")

	var b strings.Builder
	b.WriteString("Extract invoice data from the following email and its attachments.\n")
	b.WriteString("Return ONLY valid JSON matching this schema:\n")
	b.Write(schema)
	b.WriteString("\n\n=== CONTENT ===\n")
	if strings.TrimSpace(content) == "" {
		b.WriteString("[No content]")
	} else {
		b.WriteString(strings.TrimSpace(content))
	}
	return b.String()
}
