package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mwiater/tariffadvisor/internal/chat"
	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/tariff"
)

type stubAnswerer struct {
	mu    sync.Mutex
	reply string
	err   error
}

func (s *stubAnswerer) Answer(context.Context, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reply, s.err
}

func newTestServer(a chat.Answerer) *Server {
	ds := tariff.NewDataset([]domain.TariffRow{
		{Country: "Vietnam", TariffsChargedToUSA: 90, USAReciprocalTariffs: 46},
		{Country: "India", TariffsChargedToUSA: 26, USAReciprocalTariffs: 13},
		{Country: "China", TariffsChargedToUSA: 67, USAReciprocalTariffs: 34},
	})
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tariffadvisor_up 1\n"))
	})
	return New(ds, chat.NewStore(a), metrics)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, rec, &body)
	return body["error"]
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(&stubAnswerer{})
	if rec := do(t, s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(t, s, http.MethodGet, "/metrics", ""); !strings.Contains(rec.Body.String(), "tariffadvisor_up") {
		t.Fatalf("metrics not mounted: %q", rec.Body.String())
	}
}

func TestCountries(t *testing.T) {
	rec := do(t, newTestServer(&stubAnswerer{}), http.MethodGet, "/api/v1/countries", "")
	var body countriesResponse
	decode(t, rec, &body)
	want := []string{tariff.AllCountries, "China", "India", "Vietnam"}
	if strings.Join(body.Countries, "|") != strings.Join(want, "|") {
		t.Fatalf("countries = %v, want %v", body.Countries, want)
	}
}

func TestTariffsFilterAndTop(t *testing.T) {
	s := newTestServer(&stubAnswerer{})

	var all tariffsResponse
	decode(t, do(t, s, http.MethodGet, "/api/v1/tariffs?top=2", ""), &all)
	if len(all.Rows) != 2 || all.Rows[0].Country != "Vietnam" || all.Rows[1].Country != "China" {
		t.Fatalf("unexpected top rows: %+v", all.Rows)
	}

	var some tariffsResponse
	decode(t, do(t, s, http.MethodGet, "/api/v1/tariffs?country=India,China", ""), &some)
	if len(some.Rows) != 2 || some.Rows[0].Country != "India" {
		t.Fatalf("expected file order India, China: %+v", some.Rows)
	}

	var none tariffsResponse
	rec := do(t, s, http.MethodGet, "/api/v1/tariffs?country=Atlantis", "")
	decode(t, rec, &none)
	if rec.Code != http.StatusOK || none.Rows == nil || len(none.Rows) != 0 {
		t.Fatalf("expected empty rows array, got %d %q", rec.Code, rec.Body.String())
	}

	bad := do(t, s, http.MethodGet, "/api/v1/tariffs?top=ten", "")
	if bad.Code != http.StatusBadRequest || !strings.Contains(errorMessage(t, bad), "top must be") {
		t.Fatalf("expected 400, got %d %q", bad.Code, bad.Body.String())
	}
}

func TestSummary(t *testing.T) {
	s := newTestServer(&stubAnswerer{})
	var single summaryResponse
	decode(t, do(t, s, http.MethodGet, "/api/v1/summary?country=India", ""), &single)
	if single.DisplayName != "India" || !strings.Contains(single.Summary, "26.0%") {
		t.Fatalf("unexpected summary: %+v", single)
	}

	var multi summaryResponse
	decode(t, do(t, s, http.MethodGet, "/api/v1/summary?country=India&country=China", ""), &multi)
	if multi.Summary != tariff.MultipleCountriesPlaceholder || multi.DisplayName != "multiple countries" {
		t.Fatalf("unexpected multi summary: %+v", multi)
	}
}

func TestAskCreatesSessionAndRecordsHistory(t *testing.T) {
	s := newTestServer(&stubAnswerer{reply: "Vietnam charges 90%."})

	rec := do(t, s, http.MethodPost, "/api/v1/ask", `{"question":"Who charges the most?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("ask: %d %q", rec.Code, rec.Body.String())
	}
	var first askResponse
	decode(t, rec, &first)
	if first.SessionID == "" || first.Record.Answer != "Vietnam charges 90%." || !first.Added {
		t.Fatalf("unexpected response: %+v", first)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/ask", `{"session_id":"`+first.SessionID+`","question":"Who charges the most?"}`)
	var repeat askResponse
	decode(t, rec, &repeat)
	if repeat.Added || repeat.SessionID != first.SessionID {
		t.Fatalf("repeat question should reuse session without adding: %+v", repeat)
	}

	var hist historyResponse
	decode(t, do(t, s, http.MethodGet, "/api/v1/sessions/"+first.SessionID+"/history", ""), &hist)
	if len(hist.History) != 1 || hist.History[0].Question != "Who charges the most?" {
		t.Fatalf("unexpected history: %+v", hist)
	}
}

func TestAskErrors(t *testing.T) {
	a := &stubAnswerer{reply: "ok"}
	s := newTestServer(a)

	if rec := do(t, s, http.MethodPost, "/api/v1/ask", `{"question":"   "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank question: expected 400, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/v1/ask", `{"question":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: expected 400, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/v1/ask", `{"session_id":"nope","question":"q"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session: expected 404, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/sessions/nope/history", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown history: expected 404, got %d", rec.Code)
	}

	var ok askResponse
	decode(t, do(t, s, http.MethodPost, "/api/v1/ask", `{"question":"first"}`), &ok)

	a.mu.Lock()
	a.err = &domain.AnswerError{Stage: "complete", Err: errors.New("upstream timeout")}
	a.mu.Unlock()
	rec := do(t, s, http.MethodPost, "/api/v1/ask", `{"session_id":"`+ok.SessionID+`","question":"second"}`)
	if rec.Code != http.StatusBadGateway || !strings.Contains(errorMessage(t, rec), "upstream timeout") {
		t.Fatalf("expected 502 with cause, got %d %q", rec.Code, rec.Body.String())
	}

	var hist historyResponse
	decode(t, do(t, s, http.MethodGet, "/api/v1/sessions/"+ok.SessionID+"/history", ""), &hist)
	if len(hist.History) != 1 {
		t.Fatalf("failed ask must not change history: %+v", hist.History)
	}
}

func TestParseTop(t *testing.T) {
	cases := map[string]int{"": 0, "all": 0, "ALL": 0, "10": 10, "0": 0}
	for in, want := range cases {
		got, err := parseTop(in)
		if err != nil || got != want {
			t.Fatalf("parseTop(%q) = %d, %v", in, got, err)
		}
	}
	if _, err := parseTop("-1"); err == nil {
		t.Fatal("expected error for negative top")
	}
}
