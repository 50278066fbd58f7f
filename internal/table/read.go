package table

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

// recordsSchema accepts an array of flat objects whose values are scalars.
const recordsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "additionalProperties": {"type": ["string", "number", "boolean", "null"]}
  }
}`

var recordsValidator = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordsSchema))
})

// ReadCSV parses delimited text whose first record is the header.
func ReadCSV(r io.Reader, source string) (Table, error) {
	br := bufio.NewReader(r)
	if ch, _, err := br.ReadRune(); err == nil && ch != '\ufeff' {
		_ = br.UnreadRune()
	}
	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, &domain.ParseError{Source: source, Err: err}
	}
	t, err := FromRecords(records)
	if err != nil {
		return Table{}, &domain.ParseError{Source: source, Err: err}
	}
	return t, nil
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, &domain.ParseError{Source: path, Err: err}
	}
	defer f.Close()
	return ReadCSV(f, path)
}

// FetchJSON GETs url and decodes the body with DecodeJSON.
func FetchJSON(ctx context.Context, client *http.Client, url string) (Table, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Table{}, &domain.FetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return Table{}, &domain.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Table{}, &domain.FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(raw))),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Table{}, &domain.FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	return DecodeJSON(body, url)
}

// DecodeJSON turns a JSON array of flat objects into a table. Columns appear in
// the order their keys are first seen; keys missing from a record yield empty cells.
func DecodeJSON(data []byte, source string) (Table, error) {
	schema, err := recordsValidator()
	if err != nil {
		return Table{}, fmt.Errorf("compile records schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Table{}, &domain.ParseError{Source: source, Err: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Table{}, &domain.ParseError{Source: source, Err: errors.New(strings.Join(msgs, "; "))}
	}

	objects, columns, err := decodeOrdered(data)
	if err != nil {
		return Table{}, &domain.ParseError{Source: source, Err: err}
	}

	t := Table{Columns: columns}
	for _, obj := range objects {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = obj[col]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func decodeOrdered(data []byte) ([]map[string]string, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, nil, err
	}

	var (
		objects []map[string]string
		columns []string
		seen    = make(map[string]bool)
	)
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, nil, err
		}
		obj := make(map[string]string)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, nil, err
			}
			key, ok := tok.(string)
			if !ok {
				return nil, nil, fmt.Errorf("expected object key, got %v", tok)
			}
			val, err := dec.Token()
			if err != nil {
				return nil, nil, err
			}
			cell, err := scalarString(val)
			if err != nil {
				return nil, nil, fmt.Errorf("field %q: %w", key, err)
			}
			obj[key] = cell
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, nil, err
		}
		objects = append(objects, obj)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, nil, err
	}
	return objects, columns, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func scalarString(tok json.Token) (string, error) {
	switch v := tok.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("nested values are not supported")
	}
}
