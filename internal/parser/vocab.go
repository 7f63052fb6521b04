package parser

import "sort"

// Vocabulary categories.
const (
	VocabProperties  = "properties"
	VocabItems       = "items"
	VocabTags        = "tags"
	VocabFlags       = "flags"
	VocabMappers     = "mappers"
	VocabItemMappers = "item_mappers"
)

// Vocabulary counts observed tokens per category. It never influences parsing.
type Vocabulary map[string]map[string]int

// NewVocabulary returns an empty vocabulary.
func NewVocabulary() Vocabulary {
	return make(Vocabulary)
}

// Add increments the count of token in category.
func (v Vocabulary) Add(category, token string, n int) {
	if token == "" || n == 0 {
		return
	}
	counts, ok := v[category]
	if !ok {
		counts = make(map[string]int)
		v[category] = counts
	}
	counts[token] += n
}

// Observe tallies one emitted block.
func (v Vocabulary) Observe(b *Block) {
	_, keys := b.Effective()
	for _, k := range keys {
		v.Add(VocabProperties, k, 1)
	}
	for _, slots := range [][]Slot{b.Inputs, b.Outputs} {
		for _, s := range slots {
			for _, it := range s.Items {
				v.Add(VocabItems, it, 1)
			}
			for _, t := range s.Tags {
				v.Add(VocabTags, t, 1)
			}
			for _, f := range s.Flags {
				v.Add(VocabFlags, f, 1)
			}
			v.Add(VocabMappers, s.Mapper, 1)
		}
	}
	for _, m := range b.Mappers {
		v.Add(VocabItemMappers, m.Name, 1)
	}
}

// Merge adds every count of other into v.
func (v Vocabulary) Merge(other Vocabulary) {
	for category, counts := range other {
		for token, n := range counts {
			v.Add(category, token, n)
		}
	}
}

// Count returns the count of token in category.
func (v Vocabulary) Count(category, token string) int {
	return v[category][token]
}

// Categories returns the category names in sorted order.
func (v Vocabulary) Categories() []string {
	names := make([]string, 0, len(v))
	for c := range v {
		names = append(names, c)
	}
	sort.Strings(names)
	return names
}

// TokenCount is one vocabulary entry.
type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// Top returns the entries of category sorted by descending count, then token.
// A limit <= 0 returns all entries.
func (v Vocabulary) Top(category string, limit int) []TokenCount {
	counts := v[category]
	out := make([]TokenCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TokenCount{Token: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Token < out[j].Token
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// VocabularyOf tallies a set of blocks into a fresh vocabulary.
func VocabularyOf(blocks []*Block) Vocabulary {
	v := NewVocabulary()
	for _, b := range blocks {
		v.Observe(b)
	}
	return v
}
