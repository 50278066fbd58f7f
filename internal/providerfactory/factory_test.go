// internal/providerfactory/factory_test.go
package providerfactory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mwiater/tariffadvisor/internal/appconfig"
	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/vectorindex/pgvector"
)

// fakeServices serves both the Pinecone control/data plane and the OpenAI API.
func fakeServices(t *testing.T, dimension int, listCalls *int32) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/indexes", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(listCalls, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"indexes": []map[string]any{{"name": "tariff-index", "dimension": dimension, "metric": "cosine", "host": srv.URL}},
		})
	})
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"matches":[{"id":"row-1","score":0.9,"metadata":{"text":"Country: India, TariffsChargedToUSA: 52"}}]}`))
	})
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}]}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  India charges 52%.  "},"finish_reason":"stop"}]}`))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srvURL string) appconfig.Config {
	return appconfig.Config{
		OpenAI:   appconfig.OpenAIConfig{APIKey: "sk-test", BaseURL: srvURL + "/v1/"},
		Pinecone: appconfig.PineconeConfig{APIKey: "pc-test", ControllerURL: srvURL},
		Index:    appconfig.IndexConfig{Name: "tariff-index", Dimension: 3},
	}
}

func TestInitRejectsInvalidConfig(t *testing.T) {
	_, err := Init(context.Background(), appconfig.Config{}, Options{})
	var initErr *domain.InitializationError
	if !errors.As(err, &initErr) || initErr.Component != "config" {
		t.Fatalf("expected config InitializationError, got %v", err)
	}
}

func TestInitEnsuresIndexAndAnswers(t *testing.T) {
	var listCalls int32
	srv := fakeServices(t, 3, &listCalls)

	app, err := Init(context.Background(), testConfig(srv.URL), Options{})
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	defer app.Close()

	if atomic.LoadInt32(&listCalls) != 1 {
		t.Fatalf("expected index to be checked once, got %d", listCalls)
	}
	answer, err := app.Answerer.Answer(context.Background(), "What does India charge?")
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if answer != "India charges 52%." {
		t.Fatalf("unexpected answer %q", answer)
	}
}

func TestInitSkipEnsureIndex(t *testing.T) {
	var listCalls int32
	srv := fakeServices(t, 3, &listCalls)

	app, err := Init(context.Background(), testConfig(srv.URL), Options{SkipEnsureIndex: true})
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	defer app.Close()
	if atomic.LoadInt32(&listCalls) != 0 {
		t.Fatalf("index should not be listed, got %d calls", listCalls)
	}
}

func TestInitReportsIndexDimensionMismatch(t *testing.T) {
	var listCalls int32
	srv := fakeServices(t, 1536, &listCalls)

	_, err := Init(context.Background(), testConfig(srv.URL), Options{})
	var initErr *domain.InitializationError
	if !errors.As(err, &initErr) || initErr.Component != "index tariff-index" {
		t.Fatalf("expected index InitializationError, got %v", err)
	}
	var idxErr *domain.IndexServiceError
	if !errors.As(err, &idxErr) {
		t.Fatalf("expected wrapped IndexServiceError, got %v", err)
	}
}

func TestNewGatewaySelectsBackend(t *testing.T) {
	cfg := appconfig.Config{Backend: "pgvector", Postgres: appconfig.PostgresConfig{DSN: "postgres://localhost/tariffs?sslmode=disable"}}
	g, err := NewGateway(cfg)
	if err != nil {
		t.Fatalf("NewGateway error: %v", err)
	}
	defer g.Close()
	if _, ok := g.(*pgvector.Gateway); !ok {
		t.Fatalf("expected pgvector gateway, got %T", g)
	}

	if _, err := NewGateway(appconfig.Config{Backend: "faiss"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
