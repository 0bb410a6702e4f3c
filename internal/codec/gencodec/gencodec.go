// Package gencodec serializes cached generations. The current format
// is a JSON array of envelope strings carrying an explicit kind tag;
// entries written before the envelope existed are plain JSON arrays of
// text objects and are still readable.
package gencodec

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/semdex/internal/domain"
)

type envelope struct {
	Kind string         `json:"kind"`
	Text string         `json:"text"`
	Role string         `json:"role,omitempty"`
	Info map[string]any `json:"info,omitempty"`
}

type legacyEntry struct {
	Text string `json:"text"`
}

// Encode serializes generations into the structured envelope format.
func Encode(generations []domain.Generation) ([]byte, error) {
	envelopes := make([]string, len(generations))
	for i, g := range generations {
		env := envelope{Kind: g.GenerationKind(), Text: g.GenerationText()}
		switch v := g.(type) {
		case domain.Completion:
			env.Info = v.Info
		case domain.ChatCompletion:
			env.Role = v.Role
			env.Info = v.Info
		default:
			return nil, fmt.Errorf("cannot encode generation kind %q: %w",
				g.GenerationKind(), domain.ErrUnsupportedGeneration)
		}

		raw, err := json.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("encode generation %d: %w", i, err)
		}
		envelopes[i] = string(raw)
	}
	return json.Marshal(envelopes)
}

// Decode deserializes a cached payload, trying the structured envelope
// format first and falling back to the legacy plain array. Payloads
// neither format accepts are reported as malformed.
func Decode(data []byte) ([]domain.Generation, error) {
	if generations, err := decodeStructured(data); err == nil {
		return generations, nil
	}
	if generations, err := decodeLegacy(data); err == nil {
		return generations, nil
	}
	return nil, fmt.Errorf("decode cached generations: %w", domain.ErrMalformedCacheEntry)
}

func decodeStructured(data []byte) ([]domain.Generation, error) {
	var envelopes []string
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, err
	}

	generations := make([]domain.Generation, len(envelopes))
	for i, raw := range envelopes {
		var env envelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			return nil, err
		}
		switch env.Kind {
		case domain.KindCompletion:
			generations[i] = domain.Completion{Text: env.Text, Info: env.Info}
		case domain.KindChat:
			generations[i] = domain.ChatCompletion{Role: env.Role, Text: env.Text, Info: env.Info}
		default:
			return nil, fmt.Errorf("unknown generation kind %q", env.Kind)
		}
	}
	return generations, nil
}

func decodeLegacy(data []byte) ([]domain.Generation, error) {
	var entries []legacyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("empty legacy payload")
	}

	generations := make([]domain.Generation, len(entries))
	for i, e := range entries {
		generations[i] = domain.Completion{Text: e.Text}
	}
	return generations, nil
}
