package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePairings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"json array", `["Beef","Lamb"]`, []string{"Beef", "Lamb"}},
		{"python style list", `['Beef', 'Game meat']`, []string{"Beef", "Game meat"}},
		{"semicolons", "Beef; Lamb; Hard cheese", []string{"Beef", "Lamb", "Hard cheese"}},
		{"commas", "Beef, Lamb", []string{"Beef", "Lamb"}},
		{"single value", "Seafood", []string{"Seafood"}},
		{"quotes stripped", `"Beef", 'Lamb'`, []string{"Beef", "Lamb"}},
		{"empty", "", nil},
		{"only separators", " ; ; ", nil},
		{"empty brackets", "[]", nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParsePairings(tt.in))
		})
	}
}
