// Package normalize turns heterogeneous ingestion sources into flat text chunks:
// one chunk per table row, or one per non-empty page, paragraph or slide shape.
package normalize

import (
	"path/filepath"
	"strings"

	"github.com/mwiater/tariffadvisor/internal/domain"
)

// Kind identifies how a source is read.
type Kind string

const (
	KindCSV   Kind = "csv"
	KindExcel Kind = "excel"
	KindPDF   Kind = "pdf"
	KindWord  Kind = "word"
	KindPPT   Kind = "ppt"
	KindAPI   Kind = "api"
)

// Kinds lists every supported source kind, in CLI flag order.
var Kinds = []Kind{KindCSV, KindExcel, KindPDF, KindWord, KindPPT, KindAPI}

// Tabular reports whether sources of this kind produce row chunks.
func (k Kind) Tabular() bool {
	return k == KindCSV || k == KindExcel || k == KindAPI
}

// Source describes one ingestion input.
type Source struct {
	Kind     Kind
	Location string
}

func (s Source) String() string {
	return string(s.Kind) + ":" + s.Location
}

var extensionKinds = map[string]Kind{
	".csv":  KindCSV,
	".xlsx": KindExcel,
	".xlsm": KindExcel,
	".pdf":  KindPDF,
	".docx": KindWord,
	".pptx": KindPPT,
}

// DetectSource infers the kind of location from its URL scheme or file extension.
func DetectSource(location string) (Source, error) {
	loc := strings.TrimSpace(location)
	lower := strings.ToLower(loc)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return Source{Kind: KindAPI, Location: loc}, nil
	}
	if kind, ok := extensionKinds[strings.ToLower(filepath.Ext(loc))]; ok {
		return Source{Kind: kind, Location: loc}, nil
	}
	return Source{}, &domain.UnsupportedSourceError{Input: location}
}

// NewSource pairs an explicit kind with a location, rejecting unknown kinds and
// API sources that are not http(s) URLs.
func NewSource(kind Kind, location string) (Source, error) {
	loc := strings.TrimSpace(location)
	if loc == "" {
		return Source{}, &domain.UnsupportedSourceError{Input: location}
	}
	switch kind {
	case KindCSV, KindExcel, KindPDF, KindWord, KindPPT:
		return Source{Kind: kind, Location: loc}, nil
	case KindAPI:
		lower := strings.ToLower(loc)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			return Source{Kind: kind, Location: loc}, nil
		}
	}
	return Source{}, &domain.UnsupportedSourceError{Input: location}
}
