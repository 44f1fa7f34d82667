// Package embedding implements the deterministic hash-bucket pseudo-embedding.
//
// It is not a semantic model: each whitespace token adds 1 to the bucket picked by a
// 32-bit polynomial string hash, and the result is L2-normalized. Identical text always
// yields an identical vector, and texts sharing tokens land close to each other.
package embedding

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/kailas-cloud/suggestd/internal/domain"
	"github.com/kailas-cloud/suggestd/internal/domain/vector"
)

// Tokenize lowercases text and splits it on Unicode whitespace.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// HashToken computes h = h*31 + c over the UTF-16 code units of s with 32-bit
// wrap-around, and returns |h|. The absolute value is taken in 64 bits so that
// math.MinInt32 maps to a positive bucket index.
func HashToken(s string) int64 {
	var h int32
	for _, cu := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(cu)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// Embed maps text to a dimensions-long unit vector (or the zero vector when the text
// has no tokens). Text that is not valid UTF-8 is rejected with ErrUnsupportedInput.
func Embed(text string, dimensions int) ([]float32, error) {
	if dimensions < 1 {
		return nil, fmt.Errorf("%w: dimensions must be >= 1, got %d", domain.ErrInvalidOptions, dimensions)
	}
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", domain.ErrUnsupportedInput)
	}

	v := make([]float32, dimensions)
	d := int64(dimensions)
	for _, tok := range Tokenize(text) {
		v[HashToken(tok)%d]++
	}
	return vector.Normalize(v), nil
}

// HashEmbedder adapts Embed to the domain.Embedder contract.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder creates a hash embedder. dimensions <= 0 selects the default (128).
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = domain.DefaultDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed implements domain.Embedder. It never blocks and reports no token usage.
func (e *HashEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	v, err := Embed(text, e.dimensions)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: v}, nil
}

// Dimensions returns the fixed output length.
func (e *HashEmbedder) Dimensions() int { return e.dimensions }

// HealthCheck always succeeds; the embedder has no external dependency.
func (e *HashEmbedder) HealthCheck(_ context.Context) error { return nil }
