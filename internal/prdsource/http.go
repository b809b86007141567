package prdsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/starford/prdboard/internal/apperr"
	"github.com/starford/prdboard/internal/checksum"
)

// maxBodyBytes caps the document size accepted from a remote server.
const maxBodyBytes = 10 << 20

// HTTPSource fetches the document from a prdboard server's GET /api/prd.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for the server at baseURL. A nil client
// uses http.DefaultClient.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{
		url:    strings.TrimRight(baseURL, "/") + "/api/prd",
		client: client,
	}
}

// Load performs one GET. 404 maps to apperr.ErrNotFound and 400 to
// apperr.ErrMalformed; any other non-200 status is transient.
func (s *HTTPSource) Load(ctx context.Context) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("prdsource: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prdsource: GET %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("prdsource: GET %s: %w", s.url, apperr.ErrNotFound)
	case http.StatusBadRequest:
		return nil, fmt.Errorf("prdsource: GET %s: %w", s.url, apperr.ErrMalformed)
	default:
		return nil, fmt.Errorf("prdsource: GET %s: unexpected status %d", s.url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("prdsource: read body: %w", err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("prdsource: decode response: %w", err)
	}
	return &Result{Document: doc, Checksum: checksum.Sum(data)}, nil
}
