package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{
  "totalItems": 2,
  "items": [
    {
      "id": "zyTCAlFPjgYC",
      "volumeInfo": {
        "title": "The Google Story",
        "authors": ["David A. Vise", "Mark Malseed"],
        "description": "Inside the hottest business story",
        "categories": ["Business & Economics / Entrepreneurship"],
        "averageRating": 3.5,
        "imageLinks": {"thumbnail": "http://books.example/thumb.jpg"}
      }
    },
    {
      "id": "sparse",
      "volumeInfo": {"title": "Only A Title"}
    }
  ]
}`

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Options{BaseURL: srv.URL, APIKey: "k", Timeout: 2 * time.Second, RPS: 100})
}

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		assert.Equal(t, "dune", r.URL.Query().Get("q"))
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	books, err := newTestClient(srv).Search(context.Background(), "dune")
	require.NoError(t, err)
	require.Len(t, books, 2)

	first := books[0]
	assert.Equal(t, "zyTCAlFPjgYC", first.ID)
	assert.Equal(t, "The Google Story", *first.Title)
	assert.Equal(t, "David A. Vise, Mark Malseed", *first.Authors)
	assert.Equal(t, []string{"Business & Economics", "Entrepreneurship"}, first.Categories)
	assert.Equal(t, 3.5, *first.Rating)
	assert.Equal(t, "http://books.example/thumb.jpg", *first.Image)

	sparse := books[1]
	assert.Nil(t, sparse.Authors)
	assert.Nil(t, sparse.Description)
	assert.Nil(t, sparse.Rating)
	assert.False(t, sparse.HasCategories())
}

func TestClient_Volume_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Volume(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_Volume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes/abc", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"abc","volumeInfo":{"title":"Emma","authors":["Jane Austen"],"categories":["Fiction"]}}`))
	}))
	defer srv.Close()

	book, err := newTestClient(srv).Volume(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", book.ID)
	assert.Equal(t, "Jane Austen", *book.Authors)
	assert.Equal(t, []string{"Fiction"}, book.Categories)
}

func TestClient_UpstreamFailureOpensBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	for i := 0; i < 5; i++ {
		_, err := c.Search(context.Background(), "x")
		require.ErrorIs(t, err, ErrUnavailable)
	}

	_, err := c.Search(context.Background(), "x")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), calls.Load())
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	for i := 0; i < 6; i++ {
		_, err := c.Volume(context.Background(), "missing")
		require.True(t, errors.Is(err, ErrNotFound))
	}
}

func TestSplitCategories(t *testing.T) {
	got := splitCategories([]string{"Fiction / Fantasy / Epic", "Fiction", " ", "Juvenile Fiction"})
	assert.Equal(t, []string{"Fiction", "Fantasy", "Epic", "Juvenile Fiction"}, got)
}
