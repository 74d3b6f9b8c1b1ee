package classifier

import (
	"testing"

	"github.com/leadpilot/backend/internal/models"
)

func testPersonas() []models.Persona {
	return []models.Persona{
		{ID: "mkt", DisplayName: "Marketing", Priority: 1},
		{ID: "sales", DisplayName: "Sales", Priority: 2},
		{ID: "mateo", DisplayName: "Mateo", Priority: 99, IsCatchAll: true},
	}
}

func testKeywords() []models.Keyword {
	return []models.Keyword{
		{ID: "k1", Text: "director de marketing", PersonaID: "mkt"},
		{ID: "k2", Text: "director comercial", PersonaID: "sales"},
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Director de Marketing Digital ": "director de marketing digital",
		"CMO / Head of Growth":             "cmo head of growth",
		"VP, Sales":                        "vp sales",
		"":                                 "",
		"---":                              "",
	}
	for input, want := range cases {
		if got := Normalize(input); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestClassifyMatchWins(t *testing.T) {
	d := Classify("Director de Marketing Digital", testKeywords(), testPersonas())
	if d.NormalizedInput != "director de marketing digital" {
		t.Fatalf("unexpected normalized input %q", d.NormalizedInput)
	}
	if len(d.Matches) != 1 || d.Matches[0].Keyword != "director de marketing" {
		t.Fatalf("expected single match on marketing keyword, got %+v", d.Matches)
	}
	if d.WinningPersonaID != "mkt" || d.IsDefault {
		t.Fatalf("expected mkt to win without default, got %+v", d)
	}
}

func TestClassifyLowestPriorityWins(t *testing.T) {
	keywords := append(testKeywords(), models.Keyword{ID: "k3", Text: "director", PersonaID: "sales"})
	d := Classify("Director de Marketing", keywords, testPersonas())
	if len(d.Matches) != 2 {
		t.Fatalf("expected two matches, got %+v", d.Matches)
	}
	if d.WinningPersonaID != "mkt" {
		t.Fatalf("expected lowest priority persona to win, got %s", d.WinningPersonaID)
	}
	if d.Matches[0].Priority != 1 {
		t.Fatalf("expected matches sorted by priority, got %+v", d.Matches)
	}
}

func TestClassifyFallsBackToCatchAll(t *testing.T) {
	d := Classify("Recepcionista", testKeywords(), testPersonas())
	if len(d.Matches) != 0 {
		t.Fatalf("expected no matches, got %+v", d.Matches)
	}
	if d.WinningPersonaID != "mateo" || !d.IsDefault {
		t.Fatalf("expected catch-all default, got %+v", d)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	first := Classify("Director de Marketing Digital", testKeywords(), testPersonas())
	for i := 0; i < 10; i++ {
		again := Classify("Director de Marketing Digital", testKeywords(), testPersonas())
		if again.WinningPersonaID != first.WinningPersonaID {
			t.Fatalf("classification not deterministic: %s vs %s", again.WinningPersonaID, first.WinningPersonaID)
		}
	}
}

func TestClassifyIgnoresCatchAllKeywords(t *testing.T) {
	keywords := append(testKeywords(), models.Keyword{ID: "k4", Text: "recepcionista", PersonaID: "mateo"})
	d := Classify("Recepcionista", keywords, testPersonas())
	if len(d.Matches) != 0 || !d.IsDefault {
		t.Fatalf("catch-all keywords must not match, got %+v", d)
	}
}

func TestSortPersonasCatchAllLast(t *testing.T) {
	personas := []models.Persona{
		{ID: "mateo", Priority: 0, IsCatchAll: true},
		{ID: "sales", Priority: 2},
		{ID: "mkt", Priority: 1},
	}
	sorted := SortPersonas(personas)
	if sorted[0].ID != "mkt" || sorted[1].ID != "sales" {
		t.Fatalf("expected priority order, got %+v", sorted)
	}
	if !sorted[len(sorted)-1].IsCatchAll {
		t.Fatalf("expected catch-all last even with lower stored priority, got %+v", sorted)
	}
}

func TestSplitKeywordListKeepsRepeats(t *testing.T) {
	parts := SplitKeywordList("CMO; CMO; Head of Marketing")
	if len(parts) != 3 {
		t.Fatalf("expected 3 entries including the repeat, got %v", parts)
	}
	if parts[0] != "cmo" || parts[1] != "cmo" || parts[2] != "head of marketing" {
		t.Fatalf("unexpected normalization: %v", parts)
	}
}

func TestSplitKeywordListSeparators(t *testing.T) {
	parts := SplitKeywordList("CMO,VP Marketing\nGrowth Lead; ;\n")
	if len(parts) != 3 {
		t.Fatalf("expected 3 entries, got %v", parts)
	}
}
