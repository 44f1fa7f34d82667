// Package seed builds the initial collections from YAML or the built-in data set.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/suggestd/internal/config"
	"github.com/kailas-cloud/suggestd/internal/domain"
	domcol "github.com/kailas-cloud/suggestd/internal/domain/collection"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
)

// File is the YAML seed file layout.
type File struct {
	Collections []Collection `yaml:"collections"`
}

// Collection is one seeded collection.
type Collection struct {
	Name      string     `yaml:"name"`
	Documents []Document `yaml:"documents"`
}

// Document is one seeded document. EmbedText, when set, is vectorized instead of Text.
type Document struct {
	ID        string            `yaml:"id"`
	Text      string            `yaml:"text"`
	EmbedText string            `yaml:"embed_text,omitempty"`
	Fields    map[string]string `yaml:"fields,omitempty"`
}

// Builtin is the default data set: two past chat sessions and two projects.
func Builtin() File {
	return File{Collections: []Collection{
		{
			Name: "chat_history",
			Documents: []Document{
				{
					ID:        "session_1",
					Text:      "I need help with delivery tracking",
					EmbedText: "delivery tracking help",
					Fields:    map[string]string{"session_id": "session_1"},
				},
				{
					ID:        "session_2",
					Text:      "How to book a meeting",
					EmbedText: "book meeting appointment",
					Fields:    map[string]string{"session_id": "session_2"},
				},
			},
		},
		{
			Name: "projects",
			Documents: []Document{
				{
					ID:        "project_1",
					Text:      "Need cross-platform mobile app",
					EmbedText: "mobile app development cross platform",
					Fields: map[string]string{
						"project_id":   "project_1",
						"project_name": "Mobile App Development",
					},
				},
				{
					ID:        "project_2",
					Text:      "Customer service web platform",
					EmbedText: "web platform customer service",
					Fields: map[string]string{
						"project_id":   "project_2",
						"project_name": "Web Platform",
					},
				},
			},
		},
	}}
}

// Load reads a seed file. ${VAR} and ${VAR:-default} are expanded from the environment.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes seed YAML.
func Parse(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(config.ExpandEnvVars(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("parse seed: %w", err)
	}
	return f, nil
}

// Build embeds every document and returns validated collections in file order.
// createdAt stamps every document.
func Build(ctx context.Context, f File, embed domain.Embedder, createdAt int64) ([]domcol.Collection, error) {
	out := make([]domcol.Collection, 0, len(f.Collections))
	for _, c := range f.Collections {
		texts := make([]string, len(c.Documents))
		for i, d := range c.Documents {
			texts[i] = d.EmbedText
			if texts[i] == "" {
				texts[i] = d.Text
			}
		}
		vectors, err := domain.EmbedAll(ctx, embed, texts)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", c.Name, err)
		}

		docs := make([]domdoc.Document, 0, len(c.Documents))
		for i, d := range c.Documents {
			doc, err := domdoc.New(d.ID, d.Text, d.Fields, vectors[i], createdAt)
			if err != nil {
				return nil, fmt.Errorf("seed %s/%s: %w: %w", c.Name, d.ID, domain.ErrInvalidDocument, err)
			}
			docs = append(docs, doc)
		}
		col, err := domcol.New(c.Name, docs)
		if err != nil {
			return nil, fmt.Errorf("seed collection %s: %w", c.Name, err)
		}
		out = append(out, col)
	}
	return out, nil
}
