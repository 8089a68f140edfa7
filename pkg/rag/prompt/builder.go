package prompt

import (
	"fmt"
	"strings"
)

// Passage is one retrieved chunk as it appears in the system prompt.
type Passage struct {
	Title   string
	Section string
	Content string
}

// ContextBuilder assembles the generation system prompt from retrieved passages.
type ContextBuilder struct {
	passages []Passage
}

// NewContextBuilder keeps passages in the order given (best first).
func NewContextBuilder(passages []Passage) *ContextBuilder {
	return &ContextBuilder{passages: passages}
}

// Build creates the grounded system prompt. With no passages it degrades to PlainSystemPrompt.
func (b *ContextBuilder) Build() string {
	if len(b.passages) == 0 {
		return PlainSystemPrompt()
	}

	var prompt strings.Builder

	b.writeReferenceMaterial(&prompt)
	b.writeTask(&prompt)
	b.writeGuidelines(&prompt)

	return prompt.String()
}

func (b *ContextBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	prompt.WriteString("<reference_material>\n")
	for i, p := range b.passages {
		header := p.Title
		if p.Section != "" && p.Section != header {
			header = fmt.Sprintf("%s / %s", p.Title, p.Section)
		}
		fmt.Fprintf(prompt, "[%d] %s\n", i+1, header)
		prompt.WriteString(strings.TrimSpace(p.Content))
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</reference_material>\n\n")
}

func (b *ContextBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a knowledgeable assistant answering questions about the organisation's documentation.\n")
	prompt.WriteString("Answer the user's question using the reference material above.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *ContextBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base your answer on the reference material; do not invent facts it does not support\n")
	prompt.WriteString("2. Answer directly, as if you already knew the information\n")
	prompt.WriteString("3. Be complete but concise, and use lists for steps or enumerations\n")
	prompt.WriteString("4. If the material does not cover the question, say so honestly\n")
	prompt.WriteString("</guidelines>\n")
}

// PlainSystemPrompt is used when nothing relevant was retrieved.
func PlainSystemPrompt() string {
	var prompt strings.Builder
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a knowledgeable assistant. Answer the user's question clearly and concisely.\n")
	prompt.WriteString("If you are not sure about something, say so rather than guessing.\n")
	prompt.WriteString("</task>\n")
	return prompt.String()
}
