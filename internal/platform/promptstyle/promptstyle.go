package promptstyle

import "strings"

const marker = "LESSON_PROMPT_STYLE_V1"

// ApplySystem prepends a short output-discipline block to a persona's system prompt.
// Applying it twice has no further effect.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" || strings.Contains(base, marker) {
		return base
	}

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou are one agent inside a Korean language-learning pipeline.")
	b.WriteString("\nFollow the persona and task below precisely.")
	b.WriteString("\nWrite Korean in Hangul and keep it suitable for the stated learner level.")
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "json":
		b.WriteString("\nReturn a single JSON object that conforms to the schema and contains no extra keys.")
		b.WriteString("\nUse empty strings or empty arrays instead of omitting required fields.")
	case "html":
		b.WriteString("\nReturn only the HTML document, no markdown fences and no commentary.")
	default:
		b.WriteString("\nReturn only the requested text, no preamble.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return b.String()
}
