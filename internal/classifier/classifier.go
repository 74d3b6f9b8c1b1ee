package classifier

import (
	"sort"
	"strings"
	"unicode"

	"github.com/leadpilot/backend/internal/models"
)

// Normalize prepares a job title for matching: lowercase, trimmed,
// punctuation stripped, runs of whitespace collapsed to a single space.
func Normalize(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	lastSpace := true
	for _, r := range strings.ToLower(input) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Classify runs the priority-ordered keyword match. Every keyword whose
// normalized text is a substring of the normalized input is a match; the
// persona with the lowest priority among matched personas wins. With no
// match the catch-all persona wins and IsDefault is set.
func Classify(input string, keywords []models.Keyword, personas []models.Persona) models.Diagnosis {
	normalized := Normalize(input)

	priorities := map[string]int{}
	var catchAll *models.Persona
	for i := range personas {
		p := personas[i]
		if p.IsCatchAll {
			catchAll = &personas[i]
			continue
		}
		priorities[p.ID] = p.Priority
	}

	d := models.Diagnosis{
		Input:           input,
		NormalizedInput: normalized,
		Matches:         []models.KeywordMatch{},
	}

	for _, k := range keywords {
		prio, ok := priorities[k.PersonaID]
		if !ok {
			// keywords assigned to the catch-all (or an unknown persona)
			// never participate in matching
			continue
		}
		text := Normalize(k.Text)
		if text == "" || !strings.Contains(normalized, text) {
			continue
		}
		d.Matches = append(d.Matches, models.KeywordMatch{
			Keyword:   k.Text,
			PersonaID: k.PersonaID,
			Priority:  prio,
		})
	}

	if len(d.Matches) == 0 {
		if catchAll != nil {
			d.WinningPersonaID = catchAll.ID
		}
		d.IsDefault = true
		return d
	}

	sort.Slice(d.Matches, func(i, j int) bool {
		if d.Matches[i].Priority == d.Matches[j].Priority {
			if d.Matches[i].PersonaID == d.Matches[j].PersonaID {
				return d.Matches[i].Keyword < d.Matches[j].Keyword
			}
			return d.Matches[i].PersonaID < d.Matches[j].PersonaID
		}
		return d.Matches[i].Priority < d.Matches[j].Priority
	})
	d.WinningPersonaID = d.Matches[0].PersonaID
	return d
}

// SortPersonas orders personas by priority ascending with the catch-all
// persona last regardless of its stored priority value.
func SortPersonas(personas []models.Persona) []models.Persona {
	out := make([]models.Persona, len(personas))
	copy(out, personas)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsCatchAll != out[j].IsCatchAll {
			return !out[i].IsCatchAll
		}
		if out[i].Priority == out[j].Priority {
			return out[i].ID < out[j].ID
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}

// SplitKeywordList splits a bulk keyword submission on comma, semicolon
// and newline, normalizing each entry and dropping empties. Repeats are
// kept so the registry can count them as skipped duplicates.
func SplitKeywordList(raw string) []string {
	raw = strings.ReplaceAll(raw, ";", ",")
	raw = strings.ReplaceAll(raw, "\n", ",")
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		p = Normalize(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
