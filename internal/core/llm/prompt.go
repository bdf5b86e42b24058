package llm

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/inventory-scanner/constants"
)

// maxContextChars bounds the inventory context sent with a question.
const maxContextChars = 6000

// ExtractionSystemPrompt composes the system message for document extraction.
func ExtractionSystemPrompt(docType constants.DocumentType) string {
	parts := []string{
		"You read photographed inventory paperwork from a metal sheet and module workshop.",
		"Return ONLY JSON that matches the JSON Schema provided. Never output null; omit absent fields.",
		"Quantities are positive integers. Skip rows whose quantity or product name is unreadable.",
		"Copy product names as printed, including model codes such as 'JC 250'. Do not invent products.",
		"Watch for OCR confusions: O vs 0, l vs 1, S vs 5, B vs 8 inside model codes and quantities.",
	}
	if docType == constants.DocControlSheet {
		parts = append(parts,
			"The document is a control sheet: a table of deliveries with date, destination, model and quantity columns.",
			"Return {\"rows\": [...]} with one entry per table row.",
		)
	} else {
		parts = append(parts,
			"The document is a delivery note or receipt for a single "+directionWord(docType)+" movement.",
			"Return {\"destination\": \"...\", \"items\": [...]}; itemType is 'chapa' for sheets, 'modulo' for modules, otherwise 'otro'.",
		)
	}
	return strings.Join(parts, " ")
}

// ExtractionUserPrompt is the user message sent with the document image.
func ExtractionUserPrompt(docType constants.DocumentType) string {
	return "Extract the " + strings.ToLower(string(docType)) + " data from this image.\n\nJSON Schema:\n" + mustJSON(SchemaFor(docType))
}

// AnswerSystemPrompt instructs providers to answer only from the given context.
const AnswerSystemPrompt = "You are an inventory assistant. Answer in the language of the question, briefly, " +
	"using only the inventory context provided. If the context does not contain the answer, say so."

// AnswerUserPrompt renders context, history and question as one message.
func AnswerUserPrompt(req AnswerRequest) string {
	var b strings.Builder
	b.WriteString("Inventory context:\n")
	b.WriteString(truncateUTF8(req.Context, maxContextChars))
	if len(req.History) > 0 {
		b.WriteString("\n\nConversation so far:\n")
		for _, t := range req.History {
			b.WriteString(t.Role)
			b.WriteString(": ")
			b.WriteString(t.Text)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n\nQuestion: ")
	b.WriteString(req.Question)
	return b.String()
}

func directionWord(docType constants.DocumentType) string {
	if docType == constants.DocTransactionIncome {
		return "incoming (purchase)"
	}
	return "outgoing (sale)"
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
