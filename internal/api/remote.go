package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/matsen/oalex/internal/corpus"
)

// Remote is the Client that relays queries to an oalex HTTP server.
//
// 404 responses are the server's not-found signal and map to (nil, nil);
// failing to reach the server at all is an error, so callers can tell an
// absent work from an absent server.
type Remote struct {
	base   string
	client *http.Client
}

// NewRemote returns a relay client for the server at baseURL.
func NewRemote(baseURL string) *Remote {
	return &Remote{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *Remote) get(ctx context.Context, path string, query url.Values, out any) (found bool, err error) {
	u := r.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("building request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("querying remote corpus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("remote corpus returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decoding remote response: %w", err)
	}
	return true, nil
}

func (r *Remote) Search(ctx context.Context, query string, limit, offset int) (*corpus.SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var result corpus.SearchResult
	if _, err := r.get(ctx, "/works", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *Remote) Count(ctx context.Context, query string) (int, error) {
	q := url.Values{}
	q.Set("q", query)

	var payload struct {
		Count int `json:"count"`
	}
	if _, err := r.get(ctx, "/works/count", q, &payload); err != nil {
		return 0, err
	}
	return payload.Count, nil
}

func (r *Remote) Get(ctx context.Context, id string) (*corpus.Work, error) {
	var w corpus.Work
	found, err := r.get(ctx, "/works/"+id, nil, &w)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &w, nil
}

func (r *Remote) GetMany(ctx context.Context, ids []string) ([]corpus.Work, error) {
	body, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("encoding batch request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.base+"/works/batch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying remote corpus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote corpus returned %d", resp.StatusCode)
	}

	var payload struct {
		Requested int           `json:"requested"`
		Found     int           `json:"found"`
		Results   []corpus.Work `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding batch response: %w", err)
	}
	return payload.Results, nil
}

func (r *Remote) Exists(ctx context.Context, id string) (bool, error) {
	w, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return w != nil, nil
}

func (r *Remote) ImpactFactor(ctx context.Context, issn string, year int) (*corpus.ImpactFactor, error) {
	q := url.Values{}
	q.Set("issn", issn)
	q.Set("year", strconv.Itoa(year))

	var jif corpus.ImpactFactor
	found, err := r.get(ctx, "/impact-factor", q, &jif)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &jif, nil
}

func (r *Remote) Status(ctx context.Context) (*Status, error) {
	var st Status
	if _, err := r.get(ctx, "/status", nil, &st); err != nil {
		return nil, err
	}
	st.RemoteURL = r.base
	return &st, nil
}

func (r *Remote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
