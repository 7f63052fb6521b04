package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSlot(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Slot
	}{
		{
			name: "list with tags and mode",
			in:   "item 2 [base.Hammer;base.Nails] tags[tool] mode:craft",
			want: Slot{Count: 2, Items: []string{"base.hammer", "base.nails"}, Tags: []string{"tool"}, Flags: []string{}, Mode: "craft",
				Raw: "item 2 [base.Hammer;base.Nails] tags[tool] mode:craft"},
		},
		{
			name: "direct item",
			in:   "\titem 5 Base.Nails,",
			want: Slot{Count: 5, Items: []string{"base.nails"}, Tags: []string{}, Flags: []string{}, Raw: "item 5 Base.Nails"},
		},
		{
			name: "fractional count",
			in:   "item 0.5 [Base.Water]",
			want: Slot{Count: 0.5, Items: []string{"base.water"}, Tags: []string{}, Flags: []string{}, Raw: "item 0.5 [Base.Water]"},
		},
		{
			name: "tags only",
			in:   "item 1 tags[Saw;Hacksaw] mode:keep,",
			want: Slot{Count: 1, Items: []string{}, Tags: []string{"saw", "hacksaw"}, Flags: []string{}, Mode: "keep", Raw: "item 1 tags[Saw;Hacksaw] mode:keep"},
		},
		{
			name: "mapper colon form",
			in:   "item 2 mapper:plankType,",
			want: Slot{Count: 2, Items: []string{}, Tags: []string{}, Flags: []string{}, Mapper: "planktype", Raw: "item 2 mapper:plankType"},
		},
		{
			name: "mapper bracket form",
			in:   "item 1 [Base.Log] mappers[PlankType]",
			want: Slot{Count: 1, Items: []string{"base.log"}, Tags: []string{}, Flags: []string{}, Mapper: "planktype", Raw: "item 1 [Base.Log] mappers[PlankType]"},
		},
		{
			name: "flags before list",
			in:   "item 1 flags[Prop1] [Base.Saw]",
			want: Slot{Count: 1, Items: []string{"base.saw"}, Tags: []string{}, Flags: []string{"prop1"}, Raw: "item 1 flags[Prop1] [Base.Saw]"},
		},
		{
			name: "missing count defaults to one",
			in:   "item [Base.Rope]",
			want: Slot{Count: 1, Items: []string{"base.rope"}, Tags: []string{}, Flags: []string{}, Raw: "item [Base.Rope]"},
		},
		{
			name: "empty list entries dropped",
			in:   "item 1 [Base.A;;Base.B;]",
			want: Slot{Count: 1, Items: []string{"base.a", "base.b"}, Tags: []string{}, Flags: []string{}, Raw: "item 1 [Base.A;;Base.B;]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSlot(tt.in))
		})
	}
}

func TestIsSlotLine(t *testing.T) {
	assert.True(t, IsSlotLine("item 1 [Base.Pot]"))
	assert.True(t, IsSlotLine("ITEM 1 [Base.Pot]"))
	assert.False(t, IsSlotLine("-fluid 0.2 [Water]"))
	assert.False(t, IsSlotLine("items 1"))
	assert.False(t, IsSlotLine(""))
}
