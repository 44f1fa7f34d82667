package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/suggestd/internal/domain"
	domcol "github.com/kailas-cloud/suggestd/internal/domain/collection"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
)

// Service handles collection reads and document ingestion with automatic vectorization.
type Service struct {
	repo    Repository
	embed   Embedder
	indexer Indexer
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIndexer mirrors every added document into ix. Index failures are logged,
// never returned: the document is already registered locally.
func WithIndexer(ix Indexer, logger *zap.Logger) Option {
	return func(s *Service) {
		s.indexer = ix
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a collection service.
func New(repo Repository, embed Embedder, opts ...Option) *Service {
	s := &Service{repo: repo, embed: embed, logger: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get retrieves a collection by name.
func (s *Service) Get(ctx context.Context, name string) (domcol.Collection, error) {
	col, err := s.repo.Get(ctx, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	return col, nil
}

// List returns all collections.
func (s *Service) List(ctx context.Context) ([]domcol.Collection, error) {
	cols, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return cols, nil
}

// AddDocument embeds text and appends a document. An empty id gets a generated UUID.
func (s *Service) AddDocument(
	ctx context.Context, collectionName, id, text string, fields map[string]string,
) (domdoc.Document, error) {
	if err := domcol.ValidateName(collectionName); err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}
	if id == "" {
		id = uuid.NewString()
	}

	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("vectorize document: %w", err)
	}

	doc, err := domdoc.New(id, text, fields, emb.Embedding, s.now().UnixMilli())
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}

	if _, err := s.repo.Add(ctx, collectionName, doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("add document: %w", err)
	}

	if s.indexer != nil {
		if err := s.indexer.Upsert(ctx, collectionName, doc); err != nil {
			s.logger.Warn("Remote index upsert failed",
				zap.String("collection", collectionName),
				zap.String("document_id", doc.ID()),
				zap.Error(err),
			)
		}
	}
	return doc, nil
}
