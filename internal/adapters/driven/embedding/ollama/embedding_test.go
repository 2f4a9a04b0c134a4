package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// lengthEmbedder answers /api/embed with {len(text), 1} per input.
func lengthEmbedder(t *testing.T, batches *[]int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if batches != nil {
			*batches = append(*batches, len(req.Input))
		}

		resp := embedResponse{}
		for _, text := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float32{float32(len(text)), 1})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 0, svc.Dimensions())
	assert.Equal(t, DefaultBatchSize, svc.batchSize)
}

func TestEmbedBatch_PreservesOrderAcrossBatches(t *testing.T) {
	var batches []int
	server := httptest.NewServer(lengthEmbedder(t, &batches))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL, BatchSize: 2})

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "abc", "ab"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {3, 1}, {2, 1}}, vectors)
	assert.Equal(t, []int{2, 1}, batches)
	assert.Equal(t, 2, svc.Dimensions())
}

func TestEmbed_Single(t *testing.T) {
	server := httptest.NewServer(lengthEmbedder(t, nil))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	v, err := svc.Embed(context.Background(), "paris")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, v)
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	server := httptest.NewServer(lengthEmbedder(t, nil))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 768})

	_, err := svc.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 768")
}

func TestEmbed_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nomic-embed-text\" not found"}`))
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	_, err := svc.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "not found")
}

func TestEmbed_BusyIsRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"server busy"}`))
	}))
	defer server.Close()

	_, err := NewEmbeddingService(Config{BaseURL: server.URL}).Embed(context.Background(), "text")

	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Contains(t, err.Error(), "status 503): server busy")
}

func TestEmbed_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{})
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 0 embeddings for 1 inputs")
}

func TestPing(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		wantErr string
	}{
		{"pulled", "nomic-embed-text", ""},
		{"pulled with tag", "mxbai-embed-large", ""},
		{"missing", "all-minilm", "not pulled"},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"nomic-embed-text","model":"nomic-embed-text"},` +
			`{"name":"mxbai-embed-large:latest","model":"mxbai-embed-large:latest"}]}`))
	}))
	defer server.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewEmbeddingService(Config{BaseURL: server.URL, Model: tt.model})
			err := svc.Ping(context.Background())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
