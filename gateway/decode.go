package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// page is the envelope of paginated list endpoints.
type page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// decodeList accepts both a bare JSON array and a {count, results} page.
func decodeList[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		items := []T{}
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var p page[T]
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, err
	}
	if p.Results == nil {
		p.Results = []T{}
	}
	return p.Results, nil
}

func list[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, query, nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeList[T](resp.Body)
	if err != nil {
		return nil, classify(http.MethodGet, path, resp.Status, resp.Body, nil, err)
	}
	return items, nil
}

func call[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	out := new(T)
	if _, err := c.Do(ctx, method, path, body, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func remove(ctx context.Context, c *Client, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
	return err
}

func itemPath(collection string, id int, action ...string) string {
	p := collection + strconv.Itoa(id) + "/"
	for _, a := range action {
		p += a + "/"
	}
	return p
}
