// Package page renders the self-contained search pages by injecting
// compressed JSON payloads into an HTML template.
package page

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

// ErrMissingMarker is returned when a template lacks a required payload marker.
var ErrMissingMarker = errors.New("missing payload marker")

// Kind selects which page is built.
type Kind string

const (
	Items   Kind = "items"
	Recipes Kind = "recipes"
)

// Payload markers. Each is replaced in full, comment delimiters included.
const (
	ItemsMarker         = "/*__ITEMS_PAYLOAD__*/"
	PropertyVocabMarker = "/*__PROPERTY_VOCAB_PAYLOAD__*/"
	RecipesMarker       = "/*__RECIPES_PAYLOAD__*/"
	RecipeVocabMarker   = "/*__RECIPE_VOCAB_PAYLOAD__*/"
)

// Payload pairs a marker with the file whose contents replace it.
type Payload struct {
	Marker string
	Path   string
}

// Markers lists the markers a page kind requires, records first.
func Markers(kind Kind) ([]string, error) {
	switch kind {
	case Items:
		return []string{ItemsMarker, PropertyVocabMarker}, nil
	case Recipes:
		return []string{RecipesMarker, RecipeVocabMarker}, nil
	default:
		return nil, fmt.Errorf("unknown page kind %q", kind)
	}
}

// Compress returns base64(gzip(data)) at the best compression level.
func Compress(data []byte) (string, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", fmt.Errorf("create gzip writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("compress payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decompress reverses Compress.
func Decompress(payload string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open payload: %w", err)
	}
	defer zr.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(zr); err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	return out.Bytes(), nil
}

// Render replaces every marker in template with the compressed contents of
// its file. All markers must be present.
func Render(template string, payloads []Payload) (string, error) {
	for _, p := range payloads {
		if !strings.Contains(template, p.Marker) {
			return "", fmt.Errorf("%w: %s", ErrMissingMarker, p.Marker)
		}
	}

	pairs := make([]string, 0, 2*len(payloads))
	for _, p := range payloads {
		data, err := os.ReadFile(p.Path)
		if err != nil {
			return "", fmt.Errorf("read payload file: %w", err)
		}
		encoded, err := Compress(data)
		if err != nil {
			return "", err
		}
		log.Info().Str("marker", p.Marker).Int("chars", len(encoded)).Msg("Compressed payload")
		pairs = append(pairs, p.Marker, encoded)
	}
	return strings.NewReplacer(pairs...).Replace(template), nil
}

// Build renders templatePath and writes the page to outputPath.
func Build(templatePath, outputPath string, payloads []Payload) error {
	tmpl, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	rendered, err := Render(string(tmpl), payloads)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	log.Info().Str("path", outputPath).Int("bytes", len(rendered)).Msg("Built page")
	return nil
}
