package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	pkglogger "github.com/damoang/angple-wiki/pkg/logger"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Client wraps the Elasticsearch client for one index
type Client struct {
	es    *elasticsearch.Client
	index string
}

// NewClient creates a new Elasticsearch client bound to index
func NewClient(addresses []string, username, password, index string) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: addresses,
	}
	if username != "" {
		cfg.Username = username
		cfg.Password = password
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client creation failed: %w", err)
	}

	// Ping
	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch connection failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	pkglogger.GetLogger().Info().Str("index", index).Msg("connected to Elasticsearch")
	return &Client{es: es, index: index}, nil
}

// Index name of the bound index
func (c *Client) Index() string { return c.index }

// IndexDocument indexes a single document
func (c *Client) IndexDocument(ctx context.Context, docID string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: docID,
		Body:       bytes.NewReader(data),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("index", res)
	}
	return nil
}

// DeleteDocument removes a document from the index
func (c *Client) DeleteDocument(ctx context.Context, docID string) error {
	req := esapi.DeleteRequest{
		Index:      c.index,
		DocumentID: docID,
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	// 404 is ok (document already gone)
	if res.IsError() && res.StatusCode != 404 {
		return responseError("delete", res)
	}
	return nil
}

// SearchResult represents a single search hit
type SearchResult struct {
	ID     string                 `json:"id"`
	Score  float64                `json:"score"`
	Source map[string]interface{} `json:"source"`
}

// SearchResponse holds search results
type SearchResponse struct {
	Total   int64          `json:"total"`
	Results []SearchResult `json:"results"`
}

// Search runs a match query over the title and text fields
func (c *Client) Search(ctx context.Context, text string, from, size int) (*SearchResponse, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"title^3", "name^2", "text"},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
		c.es.Search.WithFrom(from),
		c.es.Search.WithSize(size),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("search", res)
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return parseSearchResponse(raw), nil
}

// pageMapping mapping of the wiki page index
var pageMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"name":    map[string]interface{}{"type": "keyword"},
			"title":   map[string]interface{}{"type": "text"},
			"snippet": map[string]interface{}{"type": "text"},
			"text":    map[string]interface{}{"type": "text"},
			"editor":  map[string]interface{}{"type": "keyword"},
			"updated": map[string]interface{}{"type": "date"},
		},
	},
}

// EnsureIndex creates the page index when it does not exist
func (c *Client) EnsureIndex(ctx context.Context) error {
	// Check if index exists
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return err
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil // Already exists
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(pageMapping); err != nil {
		return fmt.Errorf("failed to encode index mapping: %w", err)
	}

	res, err = c.es.Indices.Create(c.index, c.es.Indices.Create.WithBody(&buf), c.es.Indices.Create.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return fmt.Errorf("create index error [%s]: failed to read response body: %w", res.Status(), err)
		}
		// Ignore "already exists" error
		if !strings.Contains(string(body), "resource_already_exists_exception") {
			return fmt.Errorf("create index error: %s", string(body))
		}
	}
	return nil
}

func responseError(op string, res *esapi.Response) error {
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%s error [%s]: failed to read response body: %w", op, res.Status(), err)
	}
	return fmt.Errorf("%s error [%s]: %s", op, res.Status(), string(body))
}

func parseSearchResponse(raw map[string]interface{}) *SearchResponse {
	resp := &SearchResponse{}

	hits, ok := raw["hits"].(map[string]interface{})
	if !ok {
		return resp
	}
	if total, ok := hits["total"].(map[string]interface{}); ok {
		if v, ok := total["value"].(float64); ok {
			resp.Total = int64(v)
		}
	}

	hitList, _ := hits["hits"].([]interface{})
	for _, h := range hitList {
		hit, ok := h.(map[string]interface{})
		if !ok {
			continue
		}
		result := SearchResult{
			ID: fmt.Sprintf("%v", hit["_id"]),
		}
		if score, ok := hit["_score"].(float64); ok {
			result.Score = score
		}
		if source, ok := hit["_source"].(map[string]interface{}); ok {
			result.Source = source
		}
		resp.Results = append(resp.Results, result)
	}
	return resp
}
