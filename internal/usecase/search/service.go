package search

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/kailas-cloud/suggestd/internal/domain"
	domcol "github.com/kailas-cloud/suggestd/internal/domain/collection"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
	"github.com/kailas-cloud/suggestd/internal/domain/search/request"
	"github.com/kailas-cloud/suggestd/internal/domain/search/result"
	"github.com/kailas-cloud/suggestd/internal/metrics"
)

// DefaultCacheTTL is how long remote search results are reused.
const DefaultCacheTTL = 5 * time.Minute

// Option configures optional collaborators of the search service.
type Option func(*Service)

// WithRemote routes searches through an external vector search first.
// Remote failures fall back to the local scan.
func WithRemote(r Remote) Option {
	return func(s *Service) { s.remote = r }
}

// WithCache enables a TTL cache in front of the remote searcher. ttl <= 0 disables it.
func WithCache(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cache = cache.New(ttl, 2*ttl)
		}
	}
}

// Service runs cosine similarity searches over named collections.
type Service struct {
	colls  CollectionReader
	embed  Embedder
	remote Remote
	cache  *cache.Cache
	logger *zap.Logger
}

// New creates a search service.
func New(colls CollectionReader, embed Embedder, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{colls: colls, embed: embed, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search ranks a collection against a query vector.
// A missing collection yields no results.
func (s *Service) Search(
	ctx context.Context, collectionName string, query []float32, opts request.Options,
) ([]result.Result, result.Source, error) {
	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			return []result.Result{}, result.SourceLocal, nil
		}
		return nil, "", fmt.Errorf("get collection: %w", err)
	}

	docs := col.Documents()
	if err = checkDimensions(query, docs); err != nil {
		return nil, "", err
	}

	if s.remote != nil && len(docs) > 0 {
		results, ok := s.searchRemote(ctx, &col, query, opts)
		if ok {
			s.observe(collectionName, result.SourceRemote, len(results))
			return results, result.SourceRemote, nil
		}
		metrics.SearchRequestsTotal.WithLabelValues(collectionName, "fallback").Inc()
	}

	results, err := Rank(query, docs, opts)
	if err != nil {
		return nil, "", err
	}
	s.observe(collectionName, result.SourceLocal, len(results))
	return results, result.SourceLocal, nil
}

// SearchText embeds text and searches a collection with it.
func (s *Service) SearchText(
	ctx context.Context, collectionName, text string, opts request.Options,
) ([]result.Result, error) {
	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	results, _, err := s.Search(ctx, collectionName, emb.Embedding, opts)
	return results, err
}

// SimilarChats finds earlier chat turns close to text.
func (s *Service) SimilarChats(ctx context.Context, text string) ([]result.Result, error) {
	return s.SearchText(ctx, domcol.ChatHistory, text, request.SimilarChats())
}

// SimilarProjects finds projects close to a planning request.
func (s *Service) SimilarProjects(ctx context.Context, text string) ([]result.Result, error) {
	return s.SearchText(ctx, domcol.Projects, text, request.SimilarProjects())
}

// searchRemote asks the remote searcher and maps hits back onto the snapshot.
// It reports false when the caller should scan locally instead.
func (s *Service) searchRemote(
	ctx context.Context, col *domcol.Collection, query []float32, opts request.Options,
) ([]result.Result, bool) {
	key := cacheKey(col, query, opts)
	if s.cache != nil {
		if cached, found := s.cache.Get(key); found {
			metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
			return cached.([]result.Result), true //nolint:errcheck,forcetypeassert // only this type is stored
		}
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
	}

	hits, err := s.remote.Search(ctx, col.Name(), query, opts)
	if err != nil {
		s.logger.Warn("Remote search failed, falling back to local scan",
			zap.String("collection", col.Name()),
			zap.Error(err),
		)
		return nil, false
	}

	docs := col.Documents()
	byID := make(map[string]int, len(docs))
	for i := range docs {
		byID[docs[i].ID()] = i
	}

	type matched struct {
		idx   int
		score float64
	}
	kept := make([]matched, 0, len(hits))
	seen := make(map[int]struct{}, len(hits))
	for _, h := range hits {
		idx, found := byID[h.ID]
		if !found || h.Score < opts.Threshold() {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		kept = append(kept, matched{idx: idx, score: h.Score})
	}

	// Same order as the local scan: score descending, ties by insertion order.
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return kept[i].idx < kept[j].idx
	})
	if len(kept) > opts.MaxResults() {
		kept = kept[:opts.MaxResults()]
	}

	results := make([]result.Result, len(kept))
	for i, m := range kept {
		results[i] = result.New(docs[m.idx], m.score)
	}

	if s.cache != nil {
		s.cache.SetDefault(key, results)
	}
	return results, true
}

func (s *Service) observe(collectionName string, src result.Source, n int) {
	metrics.SearchRequestsTotal.WithLabelValues(collectionName, string(src)).Inc()
	metrics.SearchResultsReturned.WithLabelValues(collectionName).Observe(float64(n))
}

func checkDimensions(query []float32, docs []domdoc.Document) error {
	for _, d := range docs {
		if n := len(d.Vector()); n != len(query) {
			return domain.NewDimensionMismatch(len(query), n, d.ID())
		}
	}
	return nil
}

// cacheKey hashes everything that determines a remote answer. The collection size is part
// of the key so an added document invalidates earlier entries.
func cacheKey(col *domcol.Collection, query []float32, opts request.Options) string {
	h := sha256.New()
	_, _ = h.Write([]byte(col.Name()))
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(col.Len()))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(opts.MaxResults()))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(opts.Threshold()))
	_, _ = h.Write(buf[:])
	for _, x := range query {
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(x))
		_, _ = h.Write(buf[:4])
	}
	return hex.EncodeToString(h.Sum(nil))
}
