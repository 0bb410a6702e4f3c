// Package normalize converts raw backend rows into scored documents.
// Two row shapes exist: flat search-service rows with reserved
// @search fields, and two-stage pipeline rows wrapping the matched
// document under a projection.
package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/semdex/internal/db"
	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/repository/docpipe"
	"github.com/kailas-cloud/semdex/internal/repository/searchreq"
)

// Metadata keys populated by semantic re-ranking.
const (
	metaCaptions = "captions"
	metaAnswers  = "answers"
)

// Normalizer decodes search-service rows for one index schema.
type Normalizer struct {
	fields searchreq.Fields
}

// NewNormalizer creates a normalizer for the given field mapping.
func NewNormalizer(fields searchreq.Fields) *Normalizer {
	return &Normalizer{fields: fields}
}

// Document converts one search-service row. A row without a numeric
// score field is rejected rather than silently scored zero.
func (n *Normalizer) Document(row db.Row) (domain.ScoredDocument, error) {
	score, ok := asFloat(row[db.FieldScore])
	if !ok {
		return domain.ScoredDocument{}, fmt.Errorf("row %v: %w", rowID(row, n.fields.ID), domain.ErrMissingScoreField)
	}

	content, _ := row[n.fields.Content].(string)
	metadata := n.metadata(row)

	doc := domain.ScoredDocument{
		Document: domain.NewDocument(content, metadata),
		Score:    score,
	}
	if rerank, ok := asFloat(row[db.FieldRerankerScore]); ok {
		doc.RerankScore = rerank
	}
	return doc, nil
}

// SemanticDocument converts one semantic-mode row, attaching the first
// extractive caption and the answer keyed by the row's document id.
// Rows without a matching answer get an empty answer entry.
func (n *Normalizer) SemanticDocument(row db.Row, answersByID map[string]db.Answer) (domain.ScoredDocument, error) {
	doc, err := n.Document(row)
	if err != nil {
		return domain.ScoredDocument{}, err
	}

	caption := map[string]any{"text": "", "highlights": ""}
	if captions, ok := row[db.FieldCaptions].([]db.Caption); ok && len(captions) > 0 {
		caption["text"] = captions[0].Text
		caption["highlights"] = captions[0].Highlights
	}

	answer := map[string]any{"text": "", "highlights": ""}
	if a, ok := answersByID[rowID(row, n.fields.ID)]; ok {
		answer["text"] = a.Text
		answer["highlights"] = a.Highlights
	}

	doc.Document.Metadata()[metaCaptions] = caption
	doc.Document.Metadata()[metaAnswers] = answer
	return doc, nil
}

// Vector extracts the stored embedding from a row, nil when absent.
func (n *Normalizer) Vector(row db.Row) []float32 {
	return AsVector(row[n.fields.ContentVector])
}

// AnswersByID indexes extractive answers by document key.
func AnswersByID(answers []db.Answer) map[string]db.Answer {
	if len(answers) == 0 {
		return nil
	}
	byID := make(map[string]db.Answer, len(answers))
	for _, a := range answers {
		byID[a.Key] = a
	}
	return byID
}

// metadata resolves the document metadata for a row. A dedicated
// metadata field wins when present: JSON strings are decoded, already
// decoded maps pass through. Otherwise every non-reserved field except
// the content and vector fields becomes metadata, with the id kept.
func (n *Normalizer) metadata(row db.Row) map[string]any {
	if raw, ok := row[n.fields.Metadata]; ok {
		switch v := raw.(type) {
		case string:
			var m map[string]any
			if err := json.Unmarshal([]byte(v), &m); err == nil {
				n.keepID(row, m)
				return m
			}
		case map[string]any:
			n.keepID(row, v)
			return v
		}
	}

	m := make(map[string]any)
	for k, v := range row {
		switch k {
		case n.fields.Content, n.fields.ContentVector,
			db.FieldScore, db.FieldRerankerScore, db.FieldCaptions, db.FieldAction:
			continue
		}
		m[k] = v
	}
	return m
}

func (n *Normalizer) keepID(row db.Row, m map[string]any) {
	if id, ok := row[n.fields.ID]; ok {
		m[n.fields.ID] = id
	}
}

func rowID(row db.Row, idField string) string {
	id, _ := row[idField].(string)
	return id
}

// PipelineDocument converts one two-stage pipeline row: the similarity
// score sits beside the matched document, the document carries the
// text under textKey and everything else is metadata.
func PipelineDocument(row db.Row, textKey, embeddingKey string, withEmbedding bool) (domain.ScoredDocument, error) {
	score, ok := asFloat(row[docpipe.ScoreField])
	if !ok {
		return domain.ScoredDocument{}, fmt.Errorf("pipeline row without %s: %w",
			docpipe.ScoreField, domain.ErrMissingScoreField)
	}
	inner, ok := row[docpipe.DocumentField].(map[string]any)
	if !ok {
		return domain.ScoredDocument{}, fmt.Errorf("pipeline row without %s: %w",
			docpipe.DocumentField, domain.ErrMissingScoreField)
	}

	content, _ := inner[textKey].(string)
	metadata := make(map[string]any)
	for k, v := range inner {
		if k == textKey || k == embeddingKey {
			continue
		}
		metadata[k] = v
	}
	if withEmbedding {
		if vec := AsVector(inner[embeddingKey]); vec != nil {
			metadata[embeddingKey] = vec
		}
	}

	return domain.ScoredDocument{
		Document: domain.NewDocument(content, metadata),
		Score:    score,
	}, nil
}

// AsVector coerces a stored embedding value into []float32, nil when
// the value is absent or not vector-shaped.
func AsVector(v any) []float32 {
	switch vec := v.(type) {
	case []float32:
		return vec
	case []float64:
		out := make([]float32, len(vec))
		for i, f := range vec {
			out[i] = float32(f)
		}
		return out
	case []any:
		out := make([]float32, len(vec))
		for i, e := range vec {
			f, ok := asFloat(e)
			if !ok {
				return nil
			}
			out[i] = float32(f)
		}
		return out
	default:
		return nil
	}
}

func asFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case int:
		return float64(f), true
	case int64:
		return float64(f), true
	case json.Number:
		parsed, err := f.Float64()
		return parsed, err == nil
	default:
		return 0, false
	}
}
