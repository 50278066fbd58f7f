package table

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mwiater/tariffadvisor/internal/domain"
)

func TestReadCSVRendersRowsInColumnOrder(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("Country,TariffsChargedToUSA,USAReciprocalTariffs\nVietnam,90%,46%\n\nIndia,52%,26%\n"), "inline")
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows (blank line skipped), got %d", tbl.Len())
	}
	if got := tbl.RenderRow(0); got != "Country: Vietnam, TariffsChargedToUSA: 90%, USAReciprocalTariffs: 46%" {
		t.Fatalf("unexpected rendering: %q", got)
	}
}

func TestReadCSVStripsByteOrderMark(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("\ufeffCountry,TariffsChargedToUSA\nVietnam,46%\n"), "bom.csv")
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	if tbl.Columns[0] != "Country" || tbl.Index(domain.ColumnCountry) != 0 {
		t.Fatalf("header not cleaned: %q", tbl.Columns)
	}
	if got := tbl.RenderRow(0); got != "Country: Vietnam, TariffsChargedToUSA: 46%" {
		t.Fatalf("unexpected rendering: %q", got)
	}
}

func TestReadCSVStripsByteOrderMarkBeforeQuotedHeader(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("\ufeff\"Country\",\"Note\"\n\"Chile\",\"10%, flat\"\n"), "bom.csv")
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	if got := tbl.RenderRow(0); got != "Country: Chile, Note: 10%, flat" {
		t.Fatalf("unexpected rendering: %q", got)
	}
}

func TestFromRecordsStripsByteOrderMark(t *testing.T) {
	tbl, err := FromRecords([][]string{{"\ufeffCountry"}, {"Chile"}})
	if err != nil {
		t.Fatalf("FromRecords error: %v", err)
	}
	if tbl.Columns[0] != "Country" {
		t.Fatalf("header not cleaned: %q", tbl.Columns)
	}
}

func TestFromRecordsPadsShortRows(t *testing.T) {
	tbl, err := FromRecords([][]string{{"a", "b", "c"}, {"1"}})
	if err != nil {
		t.Fatalf("FromRecords error: %v", err)
	}
	if got := tbl.RenderRow(0); got != "a: 1, b: , c: " {
		t.Fatalf("unexpected rendering: %q", got)
	}
	if _, err := FromRecords(nil); err == nil {
		t.Fatal("expected error for missing header")
	}
}

func TestParsePercent(t *testing.T) {
	cases := map[string]float64{"12.5%": 12.5, " 26 ": 26, "0%": 0, "104.0 %": 104}
	for in, want := range cases {
		got, err := ParsePercent(in)
		if err != nil {
			t.Fatalf("ParsePercent(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParsePercent(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParsePercent("n/a"); err == nil {
		t.Fatal("expected error for non-numeric value")
	}
}

func TestCleanPercentSkipsAbsentColumns(t *testing.T) {
	tbl, _ := FromRecords([][]string{{"Country", "USAReciprocalTariffs"}, {"Vietnam", "46%"}, {"Chad", ""}})
	if err := tbl.CleanPercent(domain.PercentColumns...); err != nil {
		t.Fatalf("CleanPercent error: %v", err)
	}
	if got := tbl.Value(0, "USAReciprocalTariffs"); got != "46" {
		t.Fatalf("expected cleaned value 46, got %q", got)
	}
	if got := tbl.Value(1, "USAReciprocalTariffs"); got != "" {
		t.Fatalf("expected empty cell to stay empty, got %q", got)
	}
}

func TestCleanPercentReportsBadCell(t *testing.T) {
	tbl, _ := FromRecords([][]string{{"USAReciprocalTariffs"}, {"lots"}})
	err := tbl.CleanPercent("USAReciprocalTariffs")
	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestDecodeJSONKeepsFirstSeenKeyOrder(t *testing.T) {
	body := `[{"Country":"Vietnam","Rate":46,"Active":true},{"Country":"India","Note":null,"Rate":26.5}]`
	tbl, err := DecodeJSON([]byte(body), "inline")
	if err != nil {
		t.Fatalf("DecodeJSON error: %v", err)
	}
	want := []string{"Country", "Rate", "Active", "Note"}
	if strings.Join(tbl.Columns, ",") != strings.Join(want, ",") {
		t.Fatalf("columns = %v, want %v", tbl.Columns, want)
	}
	if got := tbl.RenderRow(1); got != "Country: India, Rate: 26.5, Active: , Note: " {
		t.Fatalf("unexpected rendering: %q", got)
	}
}

func TestDecodeJSONRejectsNestedValues(t *testing.T) {
	for _, body := range []string{`{"Country":"x"}`, `[{"Country":{"name":"x"}}]`, `[1,2]`} {
		_, err := DecodeJSON([]byte(body), "inline")
		var parseErr *domain.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("body %s: expected ParseError, got %v", body, err)
		}
	}
}

func TestFetchJSONStatusHandling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"Country":"Vietnam"}]`))
	}))
	defer srv.Close()

	tbl, err := FetchJSON(context.Background(), srv.Client(), srv.URL+"/ok")
	if err != nil {
		t.Fatalf("FetchJSON error: %v", err)
	}
	if tbl.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", tbl.Len())
	}

	_, err = FetchJSON(context.Background(), srv.Client(), srv.URL+"/missing")
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected FetchError 404, got %v", err)
	}
}
