package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"docqa/internal/domain"
)

// errNotFound marks a 404 from Qdrant, returned when the collection does not exist yet.
var errNotFound = errors.New("not found")

var _ domain.VectorStore = (*Storage)(nil)

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection on first upsert.
// Qdrant only accepts UUID or integer point ids, so chunk ids are mapped to
// name-based UUIDs and kept in the payload.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	ready      bool
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// PointID returns the Qdrant point id used for a chunk id.
func (s *Storage) PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(s.collection+"/"+chunkID)).String()
}

func (s *Storage) Upsert(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, len(records[0].Vector)); err != nil {
		return err
	}
	points := make([]map[string]any, len(records))
	for i, r := range records {
		points[i] = map[string]any{
			"id":     s.PointID(r.ID),
			"vector": r.Vector,
			"payload": map[string]any{
				"chunk_id": r.ID,
				"document": r.Document,
				"metadata": r.Metadata,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), body, nil)
}

func (s *Storage) Delete(ctx context.Context, filter map[string]string) error {
	body := map[string]any{"filter": buildFilter(filter)}
	err := s.do(ctx, http.MethodPost, s.collectionURL("/points/delete?wait=true"), body, nil)
	if errors.Is(err, errNotFound) {
		return nil
	}
	return err
}

func (s *Storage) Query(ctx context.Context, vectors [][]float32, k int, filter map[string]string) ([][]domain.Match, error) {
	if k <= 0 {
		k = 5
	}
	groups := make([][]domain.Match, 0, len(vectors))
	for _, v := range vectors {
		req := map[string]any{
			"vector":       v,
			"limit":        k,
			"with_payload": true,
		}
		if len(filter) > 0 {
			req["filter"] = buildFilter(filter)
		}
		var resp struct {
			Result []struct {
				Score   float64 `json:"score"`
				Payload struct {
					ChunkID  string            `json:"chunk_id"`
					Document string            `json:"document"`
					Metadata map[string]string `json:"metadata"`
				} `json:"payload"`
			} `json:"result"`
		}
		err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp)
		if errors.Is(err, errNotFound) {
			groups = append(groups, nil)
			continue
		}
		if err != nil {
			return nil, err
		}
		matches := make([]domain.Match, 0, len(resp.Result))
		for _, r := range resp.Result {
			matches = append(matches, domain.Match{
				ID:       r.Payload.ChunkID,
				Document: r.Payload.Document,
				Distance: 1 - r.Score,
				Metadata: r.Payload.Metadata,
			})
		}
		groups = append(groups, matches)
	}
	return groups, nil
}

func (s *Storage) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Storage) ensureCollection(ctx context.Context, dimension int) error {
	if s.ready {
		return nil
	}
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	err := s.do(ctx, http.MethodGet, s.collectionURL(""), nil, nil)
	if errors.Is(err, errNotFound) {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dimension,
				"distance": "Cosine",
			},
		}
		err = s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil)
	}
	if err != nil {
		return err
	}
	s.ready = true
	return nil
}

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func (s *Storage) do(ctx context.Context, method, url string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("qdrant %s %s: %w", method, url, errNotFound)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func buildFilter(filter map[string]string) map[string]any {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	must := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		must = append(must, map[string]any{
			"key":   "metadata." + k,
			"match": map[string]any{"value": filter[k]},
		})
	}
	return map[string]any{"must": must}
}
