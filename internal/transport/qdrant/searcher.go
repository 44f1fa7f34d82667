package qdrant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/suggestd/internal/domain"
	domcol "github.com/kailas-cloud/suggestd/internal/domain/collection"
	domdoc "github.com/kailas-cloud/suggestd/internal/domain/document"
	"github.com/kailas-cloud/suggestd/internal/domain/search/request"
	"github.com/kailas-cloud/suggestd/internal/usecase/search"
)

// payloadDocID holds the suggestd document ID; point IDs are derived UUIDs.
const payloadDocID = "doc_id"

const defaultTimeout = 2 * time.Second

// Config holds the Qdrant connection settings.
type Config struct {
	Host string
	Port int
	// Prefix is prepended to collection names on the Qdrant side.
	Prefix  string
	Timeout time.Duration
}

// Searcher is a remote vector searcher backed by Qdrant over gRPC.
// It only answers for collections it holds a complete mirror of: a collection
// becomes mirrored after a successful Sync and stops being mirrored when an
// Upsert into it fails. Searches of other collections return ErrRemoteSearch.
type Searcher struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	health      pb.QdrantClient
	prefix      string
	timeout     time.Duration
	logger      *zap.Logger

	mirrored sync.Map // collection name -> struct{}
}

// New dials Qdrant. The connection is lazy; the first RPC establishes it.
func New(cfg Config, logger *zap.Logger) (*Searcher, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	s := newSearcher(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), pb.NewQdrantClient(conn), cfg, logger)
	s.conn = conn
	return s, nil
}

func newSearcher(
	points pb.PointsClient, collections pb.CollectionsClient, health pb.QdrantClient,
	cfg Config, logger *zap.Logger,
) *Searcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		points:      points,
		collections: collections,
		health:      health,
		prefix:      cfg.Prefix,
		timeout:     timeout,
		logger:      logger,
	}
}

var _ search.Remote = (*Searcher)(nil)

// Search implements search.Remote. Scores are Qdrant's cosine scores.
func (s *Searcher) Search(
	ctx context.Context, collectionName string, query []float32, opts request.Options,
) ([]search.Hit, error) {
	if _, ok := s.mirrored.Load(collectionName); !ok {
		return nil, fmt.Errorf("%w: collection %s is not mirrored", domain.ErrRemoteSearch, collectionName)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	threshold := float32(opts.Threshold())
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.prefix + collectionName,
		Vector:         query,
		Limit:          uint64(opts.MaxResults()),
		ScoreThreshold: &threshold,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteSearch, err)
	}

	hits := make([]search.Hit, 0, len(resp.GetResult()))
	for _, pt := range resp.GetResult() {
		id := pt.GetPayload()[payloadDocID].GetStringValue()
		if id == "" {
			s.logger.Debug("Qdrant point without document ID", zap.String("point", pt.GetId().GetUuid()))
			continue
		}
		hits = append(hits, search.Hit{ID: id, Score: float64(pt.GetScore())})
	}
	return hits, nil
}

// Sync mirrors a collection into Qdrant, creating the Qdrant collection when missing.
// Documents with empty vectors are skipped.
func (s *Searcher) Sync(ctx context.Context, col domcol.Collection, dims int) error {
	s.mirrored.Delete(col.Name())

	name := s.prefix + col.Name()
	if err := s.ensureCollection(ctx, name, dims); err != nil {
		return err
	}

	docs := col.Documents()
	points := make([]*pb.PointStruct, 0, len(docs))
	for i := range docs {
		if len(docs[i].Vector()) == 0 {
			continue
		}
		points = append(points, toPoint(col.Name(), &docs[i]))
	}
	if err := s.upsert(ctx, name, points); err != nil {
		return err
	}

	s.mirrored.Store(col.Name(), struct{}{})
	s.logger.Info("Collection mirrored to Qdrant",
		zap.String("collection", col.Name()),
		zap.Int("points", len(points)),
	)
	return nil
}

// Upsert writes one added document. A failure leaves the collection unmirrored,
// so searches of it fall back until the next successful Sync.
func (s *Searcher) Upsert(ctx context.Context, collectionName string, doc domdoc.Document) error {
	if len(doc.Vector()) == 0 {
		return nil
	}

	name := s.prefix + collectionName
	err := s.ensureCollection(ctx, name, len(doc.Vector()))
	if err == nil {
		err = s.upsert(ctx, name, []*pb.PointStruct{toPoint(collectionName, &doc)})
	}
	if err != nil {
		s.mirrored.Delete(collectionName)
		return err
	}
	return nil
}

func (s *Searcher) upsert(ctx context.Context, name string, points []*pb.PointStruct) error {
	if len(points) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	wait := true
	if _, err := s.points.Upsert(ctx, &pb.UpsertPoints{CollectionName: name, Wait: &wait, Points: points}); err != nil {
		return fmt.Errorf("qdrant upsert %s: %w", name, err)
	}
	return nil
}

func toPoint(collectionName string, d *domdoc.Document) *pb.PointStruct {
	payload := map[string]*pb.Value{
		payloadDocID: {Kind: &pb.Value_StringValue{StringValue: d.ID()}},
		"text":       {Kind: &pb.Value_StringValue{StringValue: d.Text()}},
	}
	for k, v := range d.Fields() {
		payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
	}
	return &pb.PointStruct{
		Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(collectionName, d.ID())}},
		Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: d.Vector()}}},
		Payload: payload,
	}
}

func (s *Searcher) ensureCollection(ctx context.Context, name string, dims int) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: name})
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return fmt.Errorf("qdrant get collection %s: %w", name, err)
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{Params: &pb.VectorParams{
			Size:     uint64(dims),
			Distance: pb.Distance_Cosine,
		}}},
	})
	if err != nil {
		return fmt.Errorf("qdrant create collection %s: %w", name, err)
	}
	return nil
}

// HealthCheck calls the Qdrant health endpoint.
func (s *Searcher) HealthCheck(ctx context.Context) error {
	if _, err := s.health.HealthCheck(ctx, &pb.HealthCheckRequest{}); err != nil {
		return fmt.Errorf("qdrant health: %w", err)
	}
	return nil
}

// Close releases the gRPC connection.
func (s *Searcher) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// PointID derives a stable Qdrant point UUID from a collection and document ID.
func PointID(collectionName, docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(collectionName+"/"+docID)).String()
}
