package redis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/pkg/vector"
)

const envelopeVersion = 1

// envelope is the JSON value of a prefix-layout key. The embedding is the
// little-endian float32 blob, base64 encoded by encoding/json.
type envelope struct {
	Version int `json:"v"`
	core.Memory
	Dims      int    `json:"dims"`
	Embedding []byte `json:"embedding"`
}

func encodeEnvelope(m core.Memory) ([]byte, error) {
	raw, err := vector.Serialize(m.Embedding)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{
		Version:   envelopeVersion,
		Memory:    m,
		Dims:      len(m.Embedding),
		Embedding: raw,
	})
}

func decodeEnvelope(key string, data []byte) (core.Memory, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return core.Memory{}, err
	}
	if env.Version != envelopeVersion {
		return core.Memory{}, fmt.Errorf("unsupported envelope version %d", env.Version)
	}
	vec, err := vector.Deserialize(env.Embedding)
	if err != nil {
		return core.Memory{}, err
	}
	if len(vec) != env.Dims {
		return core.Memory{}, fmt.Errorf("embedding has %d dims, header says %d", len(vec), env.Dims)
	}
	m := env.Memory
	m.Key = key
	m.Embedding = vec
	return m, nil
}

// Field names of a hash-layout record.
const (
	fieldText       = "text"
	fieldEmbedding  = "embedding"
	fieldTimestamp  = "timestamp"
	fieldType       = "type"
	fieldImportance = "importance"
	fieldContext    = "context"
	fieldSession    = "session_id"
)

func encodeHash(m core.Memory) (map[string]any, error) {
	emb, err := vector.EncodeLatin1(m.Embedding)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{
		fieldText:       m.Content,
		fieldEmbedding:  emb,
		fieldTimestamp:  m.Timestamp.Format(time.RFC3339Nano),
		fieldType:       string(m.Type),
		fieldImportance: strconv.FormatFloat(m.Importance, 'f', -1, 64),
	}
	if m.SessionID != "" {
		fields[fieldSession] = m.SessionID
	}
	if len(m.Context) > 0 {
		ctxJSON, err := json.Marshal(m.Context)
		if err != nil {
			return nil, err
		}
		fields[fieldContext] = string(ctxJSON)
	}
	return fields, nil
}

func decodeHash(key string, fields map[string]string) (core.Memory, error) {
	text, ok := fields[fieldText]
	if !ok {
		return core.Memory{}, fmt.Errorf("missing %q field", fieldText)
	}
	raw, ok := fields[fieldEmbedding]
	if !ok {
		return core.Memory{}, fmt.Errorf("missing %q field", fieldEmbedding)
	}
	vec, err := vector.DecodeLatin1(raw)
	if err != nil {
		return core.Memory{}, err
	}

	m := core.Memory{
		Key:       key,
		Content:   text,
		Embedding: vec,
		Type:      core.MemoryType(fields[fieldType]),
		SessionID: fields[fieldSession],
	}
	if !m.Type.Valid() {
		m.Type = core.Dialog
	}
	if ts, ok := fields[fieldTimestamp]; ok {
		if m.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return core.Memory{}, err
		}
	}
	if imp, ok := fields[fieldImportance]; ok {
		if m.Importance, err = strconv.ParseFloat(imp, 64); err != nil {
			return core.Memory{}, err
		}
	}
	if c, ok := fields[fieldContext]; ok && c != "" {
		if err := json.Unmarshal([]byte(c), &m.Context); err != nil {
			return core.Memory{}, err
		}
	}
	return m, nil
}
