package menuscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCandidatesHeaderContext(t *testing.T) {
	t.Parallel()

	lines := []string{
		"Cabernet Sauvignon",
		"Château Ducru 2015",
		"Opus One 2018",
		"Chardonnay",
		"Domaine Leflaive Puligny",
		"Kistler, Les Noisetiers",
	}

	got := ExtractCandidates(lines)

	require.Len(t, got, 4)
	// headers are context, never entries
	assert.Equal(t, Candidate{Name: "Château Ducru 2015", Variety: "cabernet sauvignon"}, got[0])
	assert.Equal(t, Candidate{Name: "Opus One 2018", Variety: "cabernet sauvignon"}, got[1])
	assert.Equal(t, Candidate{Name: "Domaine Leflaive Puligny", Variety: "chardonnay"}, got[2])
	assert.Equal(t, Candidate{Name: "Kistler, Les Noisetiers", Variety: "chardonnay"}, got[3])
}

func TestExtractCandidatesDedupe(t *testing.T) {
	t.Parallel()

	lines := []string{
		"Malbec",
		"Opus One 2018",
		"Riesling",
		"opus one 2018", // folds to the same name, first tag wins
	}

	got := ExtractCandidates(lines)

	require.Len(t, got, 1)
	assert.Equal(t, "Opus One 2018", got[0].Name)
	assert.Equal(t, "malbec", got[0].Variety)
}

func TestExtractCandidatesRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
	}{
		{name: "too short", line: "Red"},
		{name: "too long", line: "Our award-winning selection spans twelve countries and four decades of celebrated vintages from around the world"},
		{name: "noise phrase english", line: "Wines by the glass"},
		{name: "noise phrase spanish", line: "Carta de Vinos"},
		{name: "website", line: "www.vinoteca.com"},
		{name: "dollar anywhere", line: "Caymus Cabernet $45"},
		{name: "currency price", line: "€ 12.50"},
		{name: "peruvian soles", line: "S/ 1,200"},
		{name: "grouped thousands", line: "28,500"},
		{name: "plain decimal", line: "45.00"},
		{name: "numeric noise", line: "12 345 678"},
		{name: "short digit-led token", line: "12ml"},
		{name: "item code", line: "gl-45"},
		{name: "standalone region", line: "Mendoza"},
		{name: "standalone region accented", line: "Rhône"},
		{name: "prose without markers", line: "A lovely companion to grilled meats"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Empty(t, ExtractCandidates([]string{tt.line}))
		})
	}
}

func TestExtractCandidatesAccepts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
	}{
		{name: "winery keyword", line: "Bodegas Muga Reserva"},
		{name: "winery keyword accented", line: "Château Margaux"},
		{name: "vintage year", line: "Cloudy Bay 2021"},
		{name: "comma convention", line: "Catena, Malbec Clásico"},
		{name: "year inside text", line: "Barolo Riserva 2016 Piemonte"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractCandidates([]string{tt.line})
			require.Len(t, got, 1)
			assert.Equal(t, tt.line, got[0].Name)
			assert.Empty(t, got[0].Variety)
		})
	}
}

func TestExtractCandidatesTrimsAndKeepsOrder(t *testing.T) {
	t.Parallel()

	lines := []string{
		"   Quinta do Noval 2017   ",
		"",
		"Weingut Keller Riesling",
	}

	got := ExtractCandidates(lines)

	require.Len(t, got, 2)
	assert.Equal(t, "Quinta do Noval 2017", got[0].Name)
	assert.Equal(t, "Weingut Keller Riesling", got[1].Name)
}

func TestFold(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "chateau margaux", fold("Château Margaux"))
	assert.Equal(t, "rhone", fold("  Rhône "))
	assert.Equal(t, "vina errazuriz", fold("Viña Errázuriz"))
}

func TestCleanName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Château Ducru 2015", cleanName("Château Ducru 2015!"))
	assert.Equal(t, "Opus One", cleanName("  Opus   One  "))
	assert.Equal(t, "Catena Malbec", cleanName("Catena, Malbec."))
	assert.Equal(t, "", cleanName("***"))
}
