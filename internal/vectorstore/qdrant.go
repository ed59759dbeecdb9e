package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// payloadIDField stores the caller-supplied point id when it isn't itself a
// UUID, since Qdrant only accepts UUIDs or unsigned integers as point ids.
const payloadIDField = "_original_id"

// Qdrant is a Store backed by a Qdrant collection reached over gRPC.
type Qdrant struct {
	client *qdrant.Client
}

// NewQdrant connects to Qdrant at dsn (e.g. "http://localhost:6334", with an
// optional "?api_key=..." query parameter).
func NewQdrant(dsn string) (*Qdrant, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant dsn: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := parsed.Port()
	if port == "" {
		port = "6334"
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant dsn: %w", err)
	}

	cfg := &qdrant.Config{Host: host, Port: portNum}
	if parsed.Scheme == "https" {
		cfg.UseTLS = true
	}
	if apiKey := parsed.Query().Get("api_key"); apiKey != "" {
		cfg.APIKey = apiKey
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return &Qdrant{client: client}, nil
}

func (q *Qdrant) EnsureCollection(ctx context.Context, name string, dim int, metric string) error {
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}
	if exists {
		return nil
	}
	if dim <= 0 {
		return fmt.Errorf("qdrant requires dimensions > 0")
	}

	var distance qdrant.Distance
	switch strings.ToLower(strings.TrimSpace(metric)) {
	case MetricL2:
		distance = qdrant.Distance_Euclid
	case MetricDot:
		distance = qdrant.Distance_Dot
	case MetricManhattan:
		distance = qdrant.Distance_Manhattan
	default:
		distance = qdrant.Distance_Cosine
	}

	return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: distance,
		}),
	})
}

func (q *Qdrant) Upsert(ctx context.Context, name string, points []Point) error {
	pbPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		pointID, payload := q.encodeIDAndPayload(p.ID, p.Payload)
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		pbPoints = append(pbPoints, &qdrant.PointStruct{
			Id:      pointID,
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: payload,
		})
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         pbPoints,
	})
	return err
}

func (q *Qdrant) encodeIDAndPayload(id string, payload map[string]any) (*qdrant.PointId, map[string]*qdrant.Value) {
	uuidStr := id
	if _, err := uuid.Parse(id); err != nil {
		uuidStr = uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
	}
	merged := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		merged[k] = v
	}
	if uuidStr != id {
		merged[payloadIDField] = id
	}
	return qdrant.NewIDUUID(uuidStr), qdrant.NewValueMap(merged)
}

func (q *Qdrant) toQdrantFilter(filter Filter) *qdrant.Filter {
	if len(filter.Must) == 0 {
		return nil
	}
	must := make([]*qdrant.Condition, 0, len(filter.Must))
	for _, p := range filter.Must {
		if p.Eq != nil {
			must = append(must, qdrant.NewMatch(p.Field, fmt.Sprintf("%v", p.Eq)))
			continue
		}
		if len(p.In) > 0 {
			values := make([]string, len(p.In))
			for i, v := range p.In {
				values[i] = fmt.Sprintf("%v", v)
			}
			must = append(must, qdrant.NewMatchKeywords(p.Field, values...))
		}
	}
	return &qdrant.Filter{Must: must}
}

func (q *Qdrant) Search(ctx context.Context, name string, vector []float32, filter Filter, topK int) ([]ScoredPoint, error) {
	if topK <= 0 {
		topK = 10
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	limit := uint64(topK)

	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		Filter:         q.toQdrantFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	out := make([]ScoredPoint, 0, len(hits))
	for _, hit := range hits {
		id, payload := decodePoint(hit.Id, hit.Payload)
		out = append(out, ScoredPoint{
			Point: Point{ID: id, Payload: payload},
			Score: float64(hit.Score),
		})
	}
	return out, nil
}

func (q *Qdrant) Scroll(ctx context.Context, name string, filter Filter, limit int, cursor string) ([]Point, string, error) {
	if limit <= 0 {
		limit = 100
	}
	lim := uint32(limit)
	req := &qdrant.ScrollPoints{
		CollectionName: name,
		Filter:         q.toQdrantFilter(filter),
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	}
	if cursor != "" {
		if cursorUUID, err := uuid.Parse(cursor); err == nil {
			req.Offset = qdrant.NewIDUUID(cursorUUID.String())
		}
	}

	result, err := q.client.Scroll(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("scroll: %w", err)
	}

	points := make([]Point, 0, len(result))
	var nextCursor string
	for _, p := range result {
		id, payload := decodePoint(p.Id, p.Payload)
		var vec []float32
		if dense := p.GetVectors().GetVector(); dense != nil {
			vec = dense.GetData()
		}
		points = append(points, Point{ID: id, Vector: vec, Payload: payload})
		nextCursor = p.Id.GetUuid()
	}
	if len(points) < limit {
		nextCursor = ""
	}
	return points, nextCursor, nil
}

func (q *Qdrant) Delete(ctx context.Context, name string, filter Filter) error {
	qf := q.toQdrantFilter(filter)
	if qf == nil {
		return fmt.Errorf("delete requires a non-empty filter")
	}
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: name,
		Points:         qdrant.NewPointsSelectorFilter(qf),
	})
	return err
}

func (q *Qdrant) Close() error {
	return q.client.Close()
}

func decodePoint(id *qdrant.PointId, payload map[string]*qdrant.Value) (string, map[string]any) {
	uuidStr := id.GetUuid()
	if uuidStr == "" {
		uuidStr = id.String()
	}
	decoded := make(map[string]any, len(payload))
	var originalID string
	for k, v := range payload {
		if k == payloadIDField {
			originalID = v.GetStringValue()
			continue
		}
		decoded[k] = qdrantValueToAny(v)
	}
	resolvedID := originalID
	if resolvedID == "" {
		resolvedID = uuidStr
	}
	return resolvedID, decoded
}

func qdrantValueToAny(v *qdrant.Value) any {
	switch v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return v.GetStringValue()
	case *qdrant.Value_IntegerValue:
		return v.GetIntegerValue()
	case *qdrant.Value_DoubleValue:
		return v.GetDoubleValue()
	case *qdrant.Value_BoolValue:
		return v.GetBoolValue()
	default:
		return v.GetStringValue()
	}
}
