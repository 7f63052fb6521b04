package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVocabulary_Observe(t *testing.T) {
	b := &Block{
		Kind: KindRecipe,
		Properties: []Property{
			{Key: "time", Value: "1"},
			{Key: "time", Value: "2"},
			{Key: "category", Value: "x"},
		},
		Inputs: []Slot{
			{Count: 1, Items: []string{"base.log"}, Tags: []string{"saw"}, Flags: []string{"prop1"}, Mapper: "planktype"},
		},
		Outputs: []Slot{
			{Count: 2, Items: []string{"base.plank"}, Tags: []string{}, Flags: []string{}},
		},
		Mappers: []ItemMapper{{Name: "planktype"}},
	}

	v := NewVocabulary()
	v.Observe(b)

	assert.Equal(t, 1, v.Count(VocabProperties, "time"), "repeated keys count once per block")
	assert.Equal(t, 1, v.Count(VocabProperties, "category"))
	assert.Equal(t, 1, v.Count(VocabItems, "base.log"))
	assert.Equal(t, 1, v.Count(VocabItems, "base.plank"))
	assert.Equal(t, 1, v.Count(VocabTags, "saw"))
	assert.Equal(t, 1, v.Count(VocabFlags, "prop1"))
	assert.Equal(t, 1, v.Count(VocabMappers, "planktype"))
	assert.Equal(t, 1, v.Count(VocabItemMappers, "planktype"))
	assert.Equal(t, 0, v.Count(VocabMappers, ""))
}

func TestVocabulary_MergeAndTop(t *testing.T) {
	a := NewVocabulary()
	a.Add(VocabTags, "saw", 2)
	a.Add(VocabTags, "hammer", 1)

	b := NewVocabulary()
	b.Add(VocabTags, "hammer", 1)
	b.Add(VocabTags, "axe", 2)
	b.Add(VocabFlags, "prop1", 1)

	a.Merge(b)

	assert.Equal(t, []string{VocabFlags, VocabTags}, a.Categories())
	assert.Equal(t, []TokenCount{
		{Token: "axe", Count: 2},
		{Token: "hammer", Count: 2},
		{Token: "saw", Count: 2},
	}, a.Top(VocabTags, 0))
	assert.Len(t, a.Top(VocabTags, 1), 1)
	assert.Empty(t, a.Top(VocabItems, 0))
}

func TestVocabulary_IgnoresEmpty(t *testing.T) {
	v := NewVocabulary()
	v.Add(VocabItems, "", 3)
	v.Add(VocabItems, "base.axe", 0)
	assert.Empty(t, v.Categories())
}

func TestVocabularyOf(t *testing.T) {
	blocks := []*Block{
		{Kind: KindItem, Properties: []Property{{Key: "weight", Value: "1"}}},
		{Kind: KindItem, Properties: []Property{{Key: "weight", Value: "2"}, {Key: "icon", Value: "x"}}},
	}
	v := VocabularyOf(blocks)
	assert.Equal(t, 2, v.Count(VocabProperties, "weight"))
	assert.Equal(t, 1, v.Count(VocabProperties, "icon"))
}
