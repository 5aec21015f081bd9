package elasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	body   string
}

// fakeES answers like a cluster; the product header is required by the client
func fakeES(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		// info and product check requests are not recorded
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`{"version":{"number":"8.12.0"},"tagline":"You Know, for Search"}`))
			return
		}

		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, body: string(body)})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_IndexAndDelete(t *testing.T) {
	srv, calls := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"result":"not_found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	c, err := NewClient([]string{srv.URL}, "", "", "wiki-pages")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.IndexDocument(ctx, "7", map[string]interface{}{"title": "Home"}))
	// 404 on delete means already gone
	require.NoError(t, c.DeleteDocument(ctx, "7"))

	require.Len(t, *calls, 2)
	index := (*calls)[0]
	assert.Equal(t, http.MethodPut, index.method)
	assert.Equal(t, "/wiki-pages/_doc/7", index.path)
	assert.JSONEq(t, `{"title":"Home"}`, index.body)
	assert.Equal(t, http.MethodDelete, (*calls)[1].method)
	assert.Equal(t, "/wiki-pages/_doc/7", (*calls)[1].path)
}

func TestClient_IndexError(t *testing.T) {
	srv, _ := fakeES(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	c, err := NewClient([]string{srv.URL}, "", "", "wiki-pages")
	require.NoError(t, err)

	err = c.IndexDocument(context.Background(), "1", map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestClient_Search(t *testing.T) {
	srv, calls := fakeES(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[{"_id":"3","_score":1.5,"_source":{"title":"Guide"}}]}}`))
	})

	c, err := NewClient([]string{srv.URL}, "", "", "wiki-pages")
	require.NoError(t, err)

	resp, err := c.Search(context.Background(), "guide", 0, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "3", resp.Results[0].ID)
	assert.Equal(t, "Guide", resp.Results[0].Source["title"])

	var query map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte((*calls)[0].body), &query))
	assert.Contains(t, query, "query")
}

func TestParseSearchResponse_Empty(t *testing.T) {
	resp := parseSearchResponse(map[string]interface{}{})
	assert.Zero(t, resp.Total)
	assert.Empty(t, resp.Results)
}
