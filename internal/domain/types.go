// Package domain holds the data model shared by the ingestion and answering pipelines.
package domain

// TimestampLayout is the layout used for QARecord timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// MetadataText is the metadata key under which a record's source text is stored.
const MetadataText = "text"

// Chunk is a unit of source text slated for embedding and indexing.
type Chunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// EmbeddingVector is a fixed-length embedding produced for a single text.
type EmbeddingVector []float32

// IndexRecord is the unit persisted in the vector index.
type IndexRecord struct {
	ID       string            `json:"id"`
	Vector   EmbeddingVector   `json:"values"`
	Metadata map[string]string `json:"metadata"`
}

// Text returns the source text stored in the record metadata.
func (r IndexRecord) Text() string {
	return r.Metadata[MetadataText]
}

// NewIndexRecord pairs a chunk with its embedding.
func NewIndexRecord(c Chunk, v EmbeddingVector) IndexRecord {
	return IndexRecord{
		ID:       c.ID,
		Vector:   v,
		Metadata: map[string]string{MetadataText: c.Text},
	}
}

// RetrievalMatch is one result of a top-k query, ordered by descending similarity.
type RetrievalMatch struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

// QARecord is one question/answer exchange within a chat session.
type QARecord struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
}

// TariffRow is one country's tariff figures after cleaning.
type TariffRow struct {
	Country              string  `json:"country"`
	TariffsChargedToUSA  float64 `json:"tariffs_charged_to_usa"`
	USAReciprocalTariffs float64 `json:"usa_reciprocal_tariffs"`
}

// Column names of the tariff dataset. ColumnTariffsCharged2USA is the spelling used
// by older exports of the dataset and is accepted wherever ColumnTariffsChargedToUSA is.
const (
	ColumnCountry              = "Country"
	ColumnTariffsChargedToUSA  = "TariffsChargedToUSA"
	ColumnTariffsCharged2USA   = "TariffsCharged2USA"
	ColumnUSAReciprocalTariffs = "USAReciprocalTariffs"
)

// PercentColumns lists the dataset columns whose values may carry a trailing '%'.
var PercentColumns = []string{
	ColumnTariffsChargedToUSA,
	ColumnTariffsCharged2USA,
	ColumnUSAReciprocalTariffs,
}
