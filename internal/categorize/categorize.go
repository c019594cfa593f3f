// Package categorize suggests categories for uncategorized transactions
// using Gemini. It is invoked from the CLI only and never touches the
// reconciliation path.
package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/aguilartradesfx/financetracker/internal/domain"
)

const (
	// DefaultModelName is the default Gemini model used for suggestions.
	DefaultModelName = "gemini-2.5-flash"
)

// Categories the model may choose from. client_payment is reserved for the
// reconciliation engine and deliberately absent.
var knownCategories = []string{
	"food",
	"transport",
	"housing",
	"services",
	"software",
	"entertainment",
	"health",
	"other",
}

// Suggestion is one model-proposed category assignment.
type Suggestion struct {
	TransactionID string `json:"transaction_id"`
	Category      string `json:"category"`
}

// buildPrompt lists the uncategorized transactions and constrains the model
// to the known category set and a strict JSON response shape.
func buildPrompt(transactions []*domain.Transaction) string {
	var b strings.Builder
	b.WriteString("You are a personal-finance assistant. Assign a category to each transaction below.\n\n")
	b.WriteString("Use ONLY the following categories:\n")
	for _, c := range knownCategories {
		b.WriteString("  - " + c + "\n")
	}
	b.WriteString("\nTransactions:\n")
	for _, t := range transactions {
		fmt.Fprintf(&b, "  id=%s type=%s amount=%.2f description=%q\n", t.ID, t.Type, t.Amount, t.Description)
	}
	b.WriteString("\nRules:\n")
	b.WriteString("- Category must be EXACTLY one of the names shown above (case-sensitive).\n")
	b.WriteString("- If you are unsure, use \"other\".\n")
	b.WriteString("- Output STRICT JSON only: a JSON array of objects with fields \"transaction_id\" and \"category\".\n")
	b.WriteString("- Do NOT wrap the response in code fences.\n")
	b.WriteString("- Output must begin with \"[\" and end with \"]\".\n")
	return b.String()
}

// Suggest asks the model for a category per transaction. Transactions that
// already have a category are skipped; reconciliation-owned client payments
// are never sent to the model.
func Suggest(ctx context.Context, transactions []*domain.Transaction) ([]Suggestion, error) {
	var pending []*domain.Transaction
	for _, t := range transactions {
		if t.Category == "" {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("Suggest: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(pending)},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, DefaultModelName, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("Suggest: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("Suggest: empty response from model")
	}

	suggestions, err := parseSuggestions(rawText)
	if err != nil {
		return nil, fmt.Errorf("Suggest: %w", err)
	}
	return suggestions, nil
}

// parseSuggestions decodes the model output, tolerating Markdown fences and
// stray text around the JSON array, and drops entries outside the known
// category set.
func parseSuggestions(raw string) ([]Suggestion, error) {
	clean := cleanModelJSON(raw)

	var all []Suggestion
	if err := json.Unmarshal([]byte(clean), &all); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w\nraw response: %s", err, raw)
	}

	valid := make(map[string]bool, len(knownCategories))
	for _, c := range knownCategories {
		valid[c] = true
	}

	out := all[:0]
	for _, s := range all {
		if s.TransactionID == "" || !valid[s.Category] {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only from the first '[' to the last ']' when the model added
	// prose around the array anyway.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = s[start : end+1]
			s = strings.TrimSpace(s)
		}
	}

	return s
}
