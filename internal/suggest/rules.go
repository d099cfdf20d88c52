package suggest

import (
	"strings"

	"github.com/anthurium-ai/personal-finance/internal/textnorm"
)

// RuleEntry maps a category name to the keywords that select it.
// The order of entries and of keywords is significant.
type RuleEntry struct {
	Category string   `mapstructure:"category" json:"category"`
	Keywords []string `mapstructure:"keywords" json:"keywords"`
}

// DefaultRules is the built-in keyword table.
var DefaultRules = []RuleEntry{
	{Category: "Alimentação", Keywords: []string{"mercado", "comida", "restaurante", "supermercado", "lanche", "almoço", "jantar", "café"}},
	{Category: "Transporte", Keywords: []string{"uber", "gasolina", "ônibus", "metrô", "99", "moto", "bicicleta"}},
	{Category: "Saúde", Keywords: []string{"farmácia", "remédio", "médico", "hospital", "dentista"}},
	{Category: "Roupas", Keywords: []string{"roupa", "vestido", "calça", "camiseta", "camisa", "saia", "calção", "bermuda", "short", "cueca", "calcinha", "sutiã", "roupa íntima"}},
	{Category: "Calçados", Keywords: []string{"sapato", "tênis", "sandália", "chinelo", "bota", "botas", "sneaker", "tenis", "tenis de corrida", "tenis de caminhada"}},
	{Category: "Lazer", Keywords: []string{"cinema", "teatro", "show", "stand up"}},
	{Category: "Casa", Keywords: []string{"aluguel", "condomínio", "água", "luz", "internet"}},
	{Category: "Outros", Keywords: []string{"presente", "presente para alguém", "presente para mim"}},
}

// RuleTable is an immutable, pre-normalized keyword table. It is safe for
// concurrent use.
type RuleTable struct {
	entries []RuleEntry
}

// NewRuleTable copies entries and normalizes every keyword once. Entries
// without a category name and blank keywords are skipped; a repeated
// category keeps its first position and gains the later keywords.
func NewRuleTable(entries []RuleEntry) *RuleTable {
	t := &RuleTable{entries: make([]RuleEntry, 0, len(entries))}
	pos := make(map[string]int, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Category)
		if name == "" {
			continue
		}
		kws := make([]string, 0, len(e.Keywords))
		for _, kw := range e.Keywords {
			if kw = textnorm.Normalize(kw); kw != "" {
				kws = append(kws, kw)
			}
		}
		if i, ok := pos[name]; ok {
			t.entries[i].Keywords = append(t.entries[i].Keywords, kws...)
			continue
		}
		pos[name] = len(t.entries)
		t.entries = append(t.entries, RuleEntry{Category: name, Keywords: kws})
	}
	return t
}

// Len returns the number of categories in the table.
func (t *RuleTable) Len() int { return len(t.entries) }

// Classify returns up to limit category names whose keywords occur as
// substrings of the normalized description, in table order. Matching is
// plain containment, so "bota" also hits "botafogo".
func (t *RuleTable) Classify(description string, limit int) []string {
	text := textnorm.Normalize(description)
	if text == "" || limit <= 0 {
		return []string{}
	}

	out := make([]string, 0, limit)
	for _, e := range t.entries {
		if len(out) >= limit {
			break
		}
		for _, kw := range e.Keywords {
			if strings.Contains(text, kw) {
				out = append(out, e.Category)
				break
			}
		}
	}
	return out
}
