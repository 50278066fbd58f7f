// Package pinecone is a minimal REST client for a Pinecone serverless index.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/logging"
	"github.com/mwiater/tariffadvisor/internal/vectorindex"
)

const (
	DefaultControllerURL = "https://api.pinecone.io"
	DefaultCloud         = "aws"
	apiVersion           = "2024-07"
)

type Config struct {
	APIKey        string
	ControllerURL string
	// Host is the data-plane host of the index. When empty it is looked up
	// from the control plane on first use.
	Host      string
	Index     string
	Dimension int
	Cloud     string
	Region    string
	BatchSize int
	Timeout   time.Duration
	// ReadyPoll is the interval between readiness checks after a create.
	ReadyPoll time.Duration
}

// Gateway talks to the control plane for index management and to the index
// host for upserts and queries.
type Gateway struct {
	apiKey     string
	controller string
	index      string
	dimension  int
	cloud      string
	region     string
	batchSize  int
	client     *http.Client
	readyPoll  time.Duration
	readyWait  time.Duration

	mu   sync.Mutex
	host string
}

var _ vectorindex.Gateway = (*Gateway)(nil)

func New(cfg Config) (*Gateway, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("pinecone api key is empty")
	}
	if strings.TrimSpace(cfg.Index) == "" {
		return nil, errors.New("pinecone index name is empty")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	g := &Gateway{
		apiKey:     cfg.APIKey,
		controller: strings.TrimRight(cfg.ControllerURL, "/"),
		index:      cfg.Index,
		dimension:  cfg.Dimension,
		cloud:      cfg.Cloud,
		region:     cfg.Region,
		batchSize:  cfg.BatchSize,
		client:     &http.Client{Timeout: timeout},
		readyPoll:  cfg.ReadyPoll,
		readyWait:  timeout,
		host:       normalizeHost(cfg.Host),
	}
	if g.controller == "" {
		g.controller = DefaultControllerURL
	}
	if g.cloud == "" {
		g.cloud = DefaultCloud
	}
	if g.batchSize <= 0 {
		g.batchSize = vectorindex.DefaultBatchSize
	}
	if g.readyPoll <= 0 {
		g.readyPoll = time.Second
	}
	return g, nil
}

type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

// EnsureIndex lists the project's indexes and creates spec.Name only when it is
// missing. A freshly created index is described until it reports ready.
func (g *Gateway) EnsureIndex(ctx context.Context, spec vectorindex.IndexSpec) error {
	if spec.Name == "" {
		spec.Name = g.index
	}
	if spec.Dimension <= 0 {
		spec.Dimension = vectorindex.DefaultDimension
	}
	if spec.Metric == "" {
		spec.Metric = vectorindex.DefaultMetric
	}

	var list struct {
		Indexes []indexDescription `json:"indexes"`
	}
	if err := g.doJSON(ctx, http.MethodGet, g.controller+"/indexes", nil, &list); err != nil {
		return &domain.IndexServiceError{Op: "list", Index: spec.Name, Err: err}
	}
	for _, idx := range list.Indexes {
		if idx.Name != spec.Name {
			continue
		}
		if idx.Dimension != 0 && idx.Dimension != spec.Dimension {
			return &domain.IndexServiceError{
				Op:    "ensure",
				Index: spec.Name,
				Err:   fmt.Errorf("existing index has dimension %d, expected %d", idx.Dimension, spec.Dimension),
			}
		}
		g.adopt(spec, idx.Host)
		logging.LogEvent("[INDEX] %s already exists", spec.Name)
		return nil
	}

	if strings.TrimSpace(g.region) == "" {
		return &domain.IndexServiceError{Op: "create", Index: spec.Name, Err: errors.New("region is required to create an index")}
	}
	body := map[string]any{
		"name":      spec.Name,
		"dimension": spec.Dimension,
		"metric":    spec.Metric,
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  g.cloud,
				"region": g.region,
			},
		},
	}
	var created indexDescription
	if err := g.doJSON(ctx, http.MethodPost, g.controller+"/indexes", body, &created); err != nil {
		return &domain.IndexServiceError{Op: "create", Index: spec.Name, Err: err}
	}
	logging.LogEvent("[INDEX] created %s (dimension=%d metric=%s region=%s)", spec.Name, spec.Dimension, spec.Metric, g.region)

	ready, err := g.waitReady(ctx, spec.Name)
	if err != nil {
		return &domain.IndexServiceError{Op: "create", Index: spec.Name, Err: err}
	}
	host := ready.Host
	if host == "" {
		host = created.Host
	}
	g.adopt(spec, host)
	return nil
}

// waitReady describes the index until its status reports ready, giving up
// when ctx ends or the request timeout elapses.
func (g *Gateway) waitReady(ctx context.Context, name string) (indexDescription, error) {
	ctx, cancel := context.WithTimeout(ctx, g.readyWait)
	defer cancel()

	ticker := time.NewTicker(g.readyPoll)
	defer ticker.Stop()
	for {
		var desc indexDescription
		if err := g.doJSON(ctx, http.MethodGet, g.controller+"/indexes/"+url.PathEscape(name), nil, &desc); err != nil {
			return desc, fmt.Errorf("describe index: %w", err)
		}
		if desc.Status.Ready {
			logging.LogEvent("[INDEX] %s ready", name)
			return desc, nil
		}
		logging.LogEvent("[INDEX] %s not ready (state=%s)", name, desc.Status.State)
		select {
		case <-ctx.Done():
			return desc, fmt.Errorf("index %s not ready: %w", name, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (g *Gateway) adopt(spec vectorindex.IndexSpec, host string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.index != spec.Name {
		g.index = spec.Name
		g.host = ""
	}
	g.dimension = spec.Dimension
	if g.host == "" && host != "" {
		g.host = normalizeHost(host)
	}
}

// Upsert sends records to /vectors/upsert in batches.
func (g *Gateway) Upsert(ctx context.Context, records []domain.IndexRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	host, err := g.dataHost(ctx)
	if err != nil {
		return 0, &domain.IndexServiceError{Op: "upsert", Index: g.index, Err: err}
	}
	return vectorindex.UpsertBatches(ctx, g.index, records, g.batchSize, g.dimension, func(ctx context.Context, batch []domain.IndexRecord) error {
		var resp struct {
			UpsertedCount int `json:"upsertedCount"`
		}
		if err := g.doJSON(ctx, http.MethodPost, host+"/vectors/upsert", map[string]any{"vectors": batch}, &resp); err != nil {
			return err
		}
		logging.LogEvent("[INDEX] upserted %d vectors into %s", resp.UpsertedCount, g.index)
		return nil
	})
}

// Query returns the topK nearest vectors with their stored text.
func (g *Gateway) Query(ctx context.Context, vector domain.EmbeddingVector, topK int) ([]domain.RetrievalMatch, error) {
	if err := vectorindex.ValidateTopK(g.index, topK); err != nil {
		return nil, err
	}
	if g.dimension > 0 && len(vector) != g.dimension {
		return nil, &domain.IndexServiceError{Op: "query", Index: g.index, Err: fmt.Errorf("query vector has dimension %d, index expects %d", len(vector), g.dimension)}
	}
	host, err := g.dataHost(ctx)
	if err != nil {
		return nil, &domain.IndexServiceError{Op: "query", Index: g.index, Err: err}
	}

	req := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	var resp struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float32        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := g.doJSON(ctx, http.MethodPost, host+"/query", req, &resp); err != nil {
		return nil, &domain.IndexServiceError{Op: "query", Index: g.index, Err: err}
	}

	matches := make([]domain.RetrievalMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		text, _ := m.Metadata[domain.MetadataText].(string)
		matches = append(matches, domain.RetrievalMatch{ID: m.ID, Text: text, Score: m.Score})
	}
	return matches, nil
}

func (g *Gateway) Close() error { return nil }

// dataHost returns the index host, describing the index when it is not known yet.
func (g *Gateway) dataHost(ctx context.Context) (string, error) {
	g.mu.Lock()
	host, index := g.host, g.index
	g.mu.Unlock()
	if host != "" {
		return host, nil
	}

	var desc indexDescription
	if err := g.doJSON(ctx, http.MethodGet, g.controller+"/indexes/"+url.PathEscape(index), nil, &desc); err != nil {
		return "", fmt.Errorf("describe index: %w", err)
	}
	if desc.Host == "" {
		return "", fmt.Errorf("index %s has no host yet", index)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.host = normalizeHost(desc.Host)
	if g.dimension == 0 {
		g.dimension = desc.Dimension
	}
	return g.host, nil
}

func (g *Gateway) doJSON(ctx context.Context, method, target string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Api-Key", g.apiKey)
	req.Header.Set("X-Pinecone-API-Version", apiVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logging.LogRequest("out", req.URL.Host, "", method+" "+req.URL.Path, nil)
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("pinecone %s %s failed: %s: %s", method, req.URL.Path, resp.Status, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode pinecone response: %w", err)
		}
	}
	return nil
}

func normalizeHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return ""
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host
}
