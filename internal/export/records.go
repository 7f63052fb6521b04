package export

import (
	"bytes"
	"encoding/json"
	"strings"

	"pzscript/internal/parser"
)

// ItemDisplay is an item with its effective raw properties.
type ItemDisplay struct {
	Identity   string            `json:"identity"`
	ItemName   string            `json:"item_name"`
	FilePath   string            `json:"file_path"`
	Properties map[string]string `json:"properties"`
}

// ItemNormalized is the compact item shape consumed by the search page.
type ItemNormalized struct {
	Identity   string                  `json:"identity"`
	ItemName   string                  `json:"item_name"`
	FilePath   string                  `json:"file_path"`
	Properties map[string]parser.Value `json:"properties"`
}

// RecipeDisplay is a recipe with its raw slots.
type RecipeDisplay struct {
	Identity   string        `json:"identity"`
	RecipeName string        `json:"recipe_name"`
	Module     string        `json:"module"`
	FilePath   string        `json:"file_path"`
	Inputs     []parser.Slot `json:"inputs"`
	Outputs    []parser.Slot `json:"outputs"`
}

// SlotNormalized spells out absent mapper and mode as null.
type SlotNormalized struct {
	Count  float64  `json:"count"`
	Items  []string `json:"items"`
	Tags   []string `json:"tags"`
	Flags  []string `json:"flags"`
	Mapper *string  `json:"mapper"`
	Mode   *string  `json:"mode"`
}

// MapperNormalized is an item mapper with its mappings as a code to item object.
type MapperNormalized struct {
	Name     string        `json:"name"`
	Mappings MappingObject `json:"mappings"`
}

// MappingObject encodes mappings as one JSON object in source order. A code
// listed twice keeps its first position and its last value.
type MappingObject []parser.Mapping

func (m MappingObject) MarshalJSON() ([]byte, error) {
	index := make(map[string]int, len(m))
	pairs := make([]parser.Mapping, 0, len(m))
	for _, mp := range m {
		if i, ok := index[mp.Key]; ok {
			pairs[i].Value = mp.Value
			continue
		}
		index[mp.Key] = len(pairs)
		pairs = append(pairs, mp)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, mp := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(mp.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(mp.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RecipeNormalized is the compact recipe shape consumed by the search page.
type RecipeNormalized struct {
	Identity    string                  `json:"identity"`
	RecipeName  string                  `json:"recipe_name"`
	Module      string                  `json:"module"`
	Properties  map[string]parser.Value `json:"properties"`
	Inputs      []SlotNormalized        `json:"inputs"`
	Outputs     []SlotNormalized        `json:"outputs"`
	ItemMappers []MapperNormalized      `json:"item_mappers"`
}

func itemDisplay(items []*parser.Block) []ItemDisplay {
	out := make([]ItemDisplay, 0, len(items))
	for _, b := range items {
		props, _ := b.Effective()
		out = append(out, ItemDisplay{
			Identity:   b.Identity(),
			ItemName:   b.Name,
			FilePath:   b.FilePath,
			Properties: props,
		})
	}
	return out
}

func itemNormalized(items []*parser.Block) []ItemNormalized {
	out := make([]ItemNormalized, 0, len(items))
	for _, b := range items {
		out = append(out, ItemNormalized{
			Identity:   b.Identity(),
			ItemName:   b.Name,
			FilePath:   b.FilePath,
			Properties: parser.NormalizeProperties(b),
		})
	}
	return out
}

func recipeDisplay(recipes []*parser.Block) []RecipeDisplay {
	out := make([]RecipeDisplay, 0, len(recipes))
	for _, b := range recipes {
		out = append(out, RecipeDisplay{
			Identity:   b.Identity(),
			RecipeName: b.Name,
			Module:     b.Module,
			FilePath:   b.FilePath,
			Inputs:     nonNil(b.Inputs),
			Outputs:    nonNil(b.Outputs),
		})
	}
	return out
}

func recipeNormalized(recipes []*parser.Block) []RecipeNormalized {
	out := make([]RecipeNormalized, 0, len(recipes))
	for _, b := range recipes {
		mappers := make([]MapperNormalized, 0, len(b.Mappers))
		for _, m := range b.Mappers {
			mappers = append(mappers, MapperNormalized{Name: m.Name, Mappings: MappingObject(m.Mappings)})
		}
		out = append(out, RecipeNormalized{
			Identity:    b.Identity(),
			RecipeName:  strings.ToLower(b.Name),
			Module:      strings.ToLower(b.Module),
			Properties:  parser.NormalizeProperties(b),
			Inputs:      normalizeSlots(b.Inputs),
			Outputs:     normalizeSlots(b.Outputs),
			ItemMappers: mappers,
		})
	}
	return out
}

func normalizeSlots(slots []parser.Slot) []SlotNormalized {
	out := make([]SlotNormalized, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotNormalized{
			Count:  s.Count,
			Items:  s.Items,
			Tags:   s.Tags,
			Flags:  s.Flags,
			Mapper: optional(s.Mapper),
			Mode:   optional(s.Mode),
		})
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
