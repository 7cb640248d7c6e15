package cache

import (
	"context"
	"encoding/json"
	"time"
)

// KV is the process-external key-value capability backing snapshots. The
// production implementation is Redis; tests inject an in-memory fake. A
// missing key surfaces as pkg/errors.ErrCacheMiss.
type KV interface {
	GetRaw(ctx context.Context, key string) ([]byte, error)
	SetRaw(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Meta describes one dataset snapshot. ColumnMap records the backing-store
// header layout observed at rebuild time; every incremental mutator checks
// its required columns against it and reports Stale on mismatch instead of
// corrupting the payload. Index maps record id to row position and is only
// rebuilt by a full rebuild (appends extend it, they never reorder).
type Meta struct {
	Version     int64          `json:"version"`
	Dataset     string         `json:"dataset"`
	ColumnMap   map[string]int `json:"column_map"`
	Index       map[string]int `json:"index,omitempty"`
	TotalRows   int            `json:"total_rows"`
	TotalChunks int            `json:"total_chunks"`
	IsChunked   bool           `json:"is_chunked"`
	RebuiltAt   time.Time      `json:"rebuilt_at"`
}

// Snapshot is a fully reassembled dataset: metadata plus typed-record rows
// kept as raw JSON so chunking stays shape-agnostic.
type Snapshot struct {
	Meta
	Rows []json.RawMessage
}

// envelope is the wire form stored under the base key. Inline snapshots
// carry rows; chunked snapshots carry only metadata.
type envelope struct {
	Meta
	Rows []json.RawMessage `json:"rows,omitempty"`
}

// chunkEnvelope is the wire form stored under a derived chunk key.
type chunkEnvelope struct {
	Version int               `json:"version"`
	Chunk   int               `json:"chunk"`
	Rows    []json.RawMessage `json:"rows"`
}
