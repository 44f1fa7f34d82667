package collection

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/suggestd/internal/domain"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Well-known collection names.
const (
	ChatHistory = "chat_history"
	Projects    = "projects"
)

// Collection is an immutable, ordered snapshot of documents searched together.
// Document order is insertion order and is the tie-break order for search.
type Collection struct {
	name string
	docs []domdoc.Document
	ids  map[string]struct{}
}

// ValidateName checks a collection name: ^[a-zA-Z0-9_-]+$, 1-64 chars.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("collection name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// New validates the name and creates a collection from documents with unique IDs.
func New(name string, docs []domdoc.Document) (Collection, error) {
	if err := ValidateName(name); err != nil {
		return Collection{}, err
	}
	c := Collection{name: name, ids: make(map[string]struct{}, len(docs))}
	for _, d := range docs {
		if _, dup := c.ids[d.ID()]; dup {
			return Collection{}, fmt.Errorf("%w: %q in %s", domain.ErrDocumentExists, d.ID(), name)
		}
		c.ids[d.ID()] = struct{}{}
	}
	c.docs = append([]domdoc.Document(nil), docs...)
	return c, nil
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Documents returns the snapshot. Callers must treat it as read-only.
func (c *Collection) Documents() []domdoc.Document { return c.docs }

// Len returns the number of documents.
func (c *Collection) Len() int { return len(c.docs) }

// Has reports whether a document ID is present.
func (c *Collection) Has(id string) bool {
	_, ok := c.ids[id]
	return ok
}

// WithDocument returns a new collection with doc appended. The receiver is not modified,
// so snapshots handed out earlier stay valid.
func (c *Collection) WithDocument(doc domdoc.Document) (Collection, error) {
	if c.Has(doc.ID()) {
		return Collection{}, fmt.Errorf("%w: %q in %s", domain.ErrDocumentExists, doc.ID(), c.name)
	}
	docs := make([]domdoc.Document, len(c.docs), len(c.docs)+1)
	copy(docs, c.docs)
	docs = append(docs, doc)

	ids := make(map[string]struct{}, len(c.ids)+1)
	for id := range c.ids {
		ids[id] = struct{}{}
	}
	ids[doc.ID()] = struct{}{}

	return Collection{name: c.name, docs: docs, ids: ids}, nil
}
