package document

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxTextSize is the maximum document text size in bytes.
const MaxTextSize = 16384

// Document is a searchable record: free text, display fields, and a precomputed embedding.
// Documents are immutable once created.
type Document struct {
	id        string
	text      string
	fields    map[string]string
	vector    []float32
	createdAt int64 // unix millis
}

// New validates and creates a Document.
// ID: ^[a-zA-Z0-9_-]+$, 1-128 chars. Text: non-empty valid UTF-8, max 16KB. Vector: non-empty.
func New(id, text string, fields map[string]string, vector []float32, createdAt int64) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > 128 {
		return Document{}, fmt.Errorf("document ID too long (max 128)")
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID must be alphanumeric with underscores and hyphens")
	}
	if text == "" {
		return Document{}, fmt.Errorf("text is required")
	}
	if len(text) > MaxTextSize {
		return Document{}, fmt.Errorf("text too large (max %d bytes)", MaxTextSize)
	}
	if !utf8.ValidString(text) {
		return Document{}, fmt.Errorf("text must be valid UTF-8")
	}
	if len(vector) == 0 {
		return Document{}, fmt.Errorf("vector is required")
	}

	return Document{
		id:        id,
		text:      text,
		fields:    cloneStringMap(fields),
		vector:    append([]float32(nil), vector...),
		createdAt: createdAt,
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, text string, fields map[string]string, vector []float32, createdAt int64) Document {
	return Document{id: id, text: text, fields: fields, vector: vector, createdAt: createdAt}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Text returns the free-text body.
func (d *Document) Text() string { return d.text }

// Fields returns display metadata (session_id, project_name, ...).
func (d *Document) Fields() map[string]string { return d.fields }

// Vector returns the embedding vector.
func (d *Document) Vector() []float32 { return d.vector }

// CreatedAt returns the creation time in unix millis.
func (d *Document) CreatedAt() int64 { return d.createdAt }

// Field returns a single metadata value.
func (d *Document) Field(name string) string { return d.fields[name] }

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
