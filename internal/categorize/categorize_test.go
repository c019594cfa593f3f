package categorize

import (
	"strings"
	"testing"

	"github.com/aguilartradesfx/financetracker/internal/domain"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain array",
			raw:  `[{"transaction_id":"t1","category":"food"}]`,
			want: `[{"transaction_id":"t1","category":"food"}]`,
		},
		{
			name: "json code fence",
			raw:  "```json\n[{\"transaction_id\":\"t1\",\"category\":\"food\"}]\n```",
			want: `[{"transaction_id":"t1","category":"food"}]`,
		},
		{
			name: "bare code fence",
			raw:  "```\n[]\n```",
			want: "[]",
		},
		{
			name: "prose around array",
			raw:  "Here are the categories:\n[{\"transaction_id\":\"t1\",\"category\":\"food\"}]\nHope this helps!",
			want: `[{"transaction_id":"t1","category":"food"}]`,
		},
		{
			name: "leading whitespace",
			raw:  "  \n\t[]",
			want: "[]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseSuggestionsFiltersUnknown(t *testing.T) {
	raw := `[
		{"transaction_id":"t1","category":"food"},
		{"transaction_id":"t2","category":"client_payment"},
		{"transaction_id":"","category":"food"},
		{"transaction_id":"t3","category":"made-up"}
	]`
	got, err := parseSuggestions(raw)
	if err != nil {
		t.Fatalf("parseSuggestions: %v", err)
	}
	if len(got) != 1 || got[0].TransactionID != "t1" || got[0].Category != "food" {
		t.Errorf("suggestions = %+v, want only t1/food", got)
	}
}

func TestParseSuggestionsRejectsGarbage(t *testing.T) {
	if _, err := parseSuggestions("the model refused"); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestBuildPromptListsTransactionsAndCategories(t *testing.T) {
	prompt := buildPrompt([]*domain.Transaction{
		{ID: "t1", Type: domain.TypeExpense, Amount: 12.5, Description: "UBER TRIP"},
	})

	for _, want := range []string{"id=t1", "UBER TRIP", "- transport", "- other", "begin with \"[\""} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "client_payment") {
		t.Error("prompt offers the reserved client_payment category")
	}
}
