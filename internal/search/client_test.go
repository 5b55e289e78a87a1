package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medaid/platform/pkg/config"
	"github.com/medaid/platform/pkg/logger"
)

func newTestClient(endpoint string) *Client {
	return NewClient(&config.SearchConfig{
		Endpoint: endpoint,
		AppID:    "test-app",
		APIKey:   "test-key",
	}, logger.New("error"))
}

func TestSearch_ExtractsHitNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-app", r.Header.Get("X-Algolia-Application-Id"))
		assert.Equal(t, "para", r.URL.Query().Get("query"))

		w.Write([]byte(`{"hits":[
			{"name":"Paracetamol 500","objectID":"1"},
			{"name":"Paracetamol 650","objectID":"2"},
			{"title":"Paracetamol Syrup","objectID":"3"}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	hits, err := c.Search(context.Background(), "medicines", "para", 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"Paracetamol 500", "Paracetamol 650", "Paracetamol Syrup"}, hits)
}

func TestSearch_LimitRespected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits":[{"name":"a"},{"name":"b"},{"name":"c"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	hits, err := c.Search(context.Background(), "medicines", "x", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSearch_ErrorMessageSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Search(context.Background(), "medicines", "x", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}
