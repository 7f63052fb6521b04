package store

import (
	"math"
	"testing"

	"pzscript/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block(keys []string, items ...string) *parser.Block {
	b := &parser.Block{Kind: parser.KindRecipe}
	for _, k := range keys {
		b.Properties = append(b.Properties, parser.Property{Key: k, Value: "1"})
	}
	if len(items) > 0 {
		b.Inputs = []parser.Slot{{Count: 1, Items: items, Tags: []string{}, Flags: []string{}}}
	}
	return b
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (norm(a) * norm(b))
}

func TestSignature_UnitLength(t *testing.T) {
	for _, b := range []*parser.Block{
		block([]string{"time", "category"}, "base.log"),
		block(nil),
	} {
		vec := Signature(b).Slice()
		require.Len(t, vec, SignatureDims)
		assert.InDelta(t, 1.0, norm(vec), 1e-6)
	}
}

func TestSignature_Deterministic(t *testing.T) {
	b := block([]string{"time"}, "base.log", "base.plank")
	assert.Equal(t, Signature(b).Slice(), Signature(b).Slice())
}

func TestSignature_SimilarBlocksAreCloser(t *testing.T) {
	a := Signature(block([]string{"time", "category", "timedaction"}, "base.log")).Slice()
	b := Signature(block([]string{"time", "category", "timedaction"}, "base.plank")).Slice()
	c := Signature(block([]string{"displayname", "weight", "icon", "type"})).Slice()

	assert.Greater(t, cosine(a, b), cosine(a, c))
}
