package plane

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProjects_Envelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workspaces/acme/projects/", r.URL.Path)
		assert.Equal(t, "sekrit", r.Header.Get("X-API-Key"))
		w.Write([]byte(`{"results": [{"id": "p-1", "name": "Panel"}, {"id": "p-2", "name": "Backend"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "acme", "sekrit")
	opts, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, Option{ID: "p-1", DisplayName: "Panel"}, opts[0])
}

func TestListStates_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workspaces/acme/projects/p-1/states/", r.URL.Path)
		w.Write([]byte(`[{"id": "s-1", "name": "Backlog"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "acme", "k")
	opts, err := c.ListStates(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, "Backlog", opts[0].DisplayName)
}

func TestList_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "acme", "bad-key")
	_, err := c.ListProjects(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestList_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": "not-a-list"`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "acme", "k")
	opts, err := c.ListProjects(context.Background())
	assert.Error(t, err)
	assert.Nil(t, opts, "malformed response must not yield a partial result")
}

func TestList_RecordWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name": "no id"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "acme", "k")
	_, err := c.ListProjects(context.Background())
	assert.Error(t, err)
}

func TestList_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "acme", "k")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.ListProjects(ctx)
	assert.Error(t, err)
}

func TestList_MissingKey(t *testing.T) {
	c := NewClient("http://unused.invalid", "acme", "")
	_, err := c.ListProjects(context.Background())
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestList_MissingWorkspace(t *testing.T) {
	c := NewClient("http://unused.invalid", "", "k")
	_, err := c.ListProjects(context.Background())
	assert.Error(t, err)
}
