package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// HTTP serves a single JSON file from a URL; the resource name comes from the
// last path segment.
type HTTP struct {
	client *http.Client
	url    string
	name   string
}

func NewHTTP(rawURL string, client *http.Client) (*HTTP, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	name := ResourceName(u.Path)
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("url %q has no file name", rawURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{client: client, url: rawURL, name: name}, nil
}

func (h *HTTP) List(_ context.Context) ([]Entry, error) {
	return []Entry{{Key: h.url, Name: h.name}}, nil
}

func (h *HTTP) Open(ctx context.Context, e Entry) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.Key, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return resp.Body, nil
}
