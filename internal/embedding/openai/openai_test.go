package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestEmbed(t *testing.T) {
	t.Setenv("DOCQA_TEST_OPENAI_KEY", "test-key")
	srv, got := newTestServer(t, http.StatusOK,
		`{"object":"list","data":[{"object":"embedding","embedding":[0.5,0.25],"index":0}],"model":"m","usage":{"prompt_tokens":2,"total_tokens":2}}`)

	e, err := NewEmbedder(Config{BaseURL: srv.URL, APIKeyEnv: "DOCQA_TEST_OPENAI_KEY", Model: "nomic-embed-text"})
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "hello world", domain.TaskRetrievalDocument)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)
	assert.Equal(t, "nomic-embed-text", (*got)["model"])
	assert.Equal(t, "openai", e.Name())
}

func TestEmbedServerError(t *testing.T) {
	t.Setenv("DOCQA_TEST_OPENAI_KEY", "test-key")
	srv, _ := newTestServer(t, http.StatusTooManyRequests,
		`{"error":{"message":"rate limited","type":"rate_limit"}}`)

	e, err := NewEmbedder(Config{BaseURL: srv.URL, APIKeyEnv: "DOCQA_TEST_OPENAI_KEY"})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello", domain.TaskRetrievalQuery)
	assert.Error(t, err)
}

func TestEmbedEmptyData(t *testing.T) {
	t.Setenv("DOCQA_TEST_OPENAI_KEY", "test-key")
	srv, _ := newTestServer(t, http.StatusOK, `{"object":"list","data":[],"model":"m"}`)

	e, err := NewEmbedder(Config{BaseURL: srv.URL, APIKeyEnv: "DOCQA_TEST_OPENAI_KEY"})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello", domain.TaskRetrievalQuery)
	assert.EqualError(t, err, "no embedding returned")
}

func TestNewEmbedderRequiresKey(t *testing.T) {
	t.Setenv("DOCQA_TEST_OPENAI_KEY", "")

	_, err := NewEmbedder(Config{APIKeyEnv: "DOCQA_TEST_OPENAI_KEY"})
	assert.EqualError(t, err, "missing API key in env DOCQA_TEST_OPENAI_KEY")
}
