package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: "   \t ", want: ""},
		{name: "upper case", in: "MERCADO", want: "mercado"},
		{name: "acute accent", in: "mércado", want: "mercado"},
		{name: "cedilla and tilde", in: "Calção de Banho", want: "calcao de banho"},
		{name: "circumflex", in: "Ônibus", want: "onibus"},
		{name: "keeps punctuation", in: "  Café, pão & leite!  ", want: "cafe, pao & leite!"},
		{name: "keeps inner spacing", in: "stand  up", want: "stand  up"},
		{name: "compatibility ligature", in: "ﬁlme", want: "filme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_CaseAndAccentInsensitive(t *testing.T) {
	assert.Equal(t, Normalize("Mercado"), Normalize("MERCADO"))
	assert.Equal(t, Normalize("MERCADO"), Normalize("mércado"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Comprei um lanche no MERCADO",
		"Farmácia São João",
		"Sutiã, calcinha e cueca",
		"İstanbul ᴬᴮ",
		"  água   e luz ",
		"日本語のテキスト",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: []string{}},
		{name: "whitespace split", in: "consulta no dentista", want: []string{"consulta", "no", "dentista"}},
		{name: "punctuation split", in: "uber/99,taxi-aeroporto", want: []string{"uber", "99", "taxi", "aeroporto"}},
		{name: "drops single runes", in: "a b cd e", want: []string{"cd"}},
		{name: "underscore is a word rune", in: "conta_luz", want: []string{"conta_luz"}},
		{name: "non latin letters", in: "水道 料金", want: []string{"水道", "料金"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokens(tt.in))
		})
	}
}
