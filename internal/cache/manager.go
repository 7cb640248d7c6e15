package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lesson-booking-api/internal/models"
	"github.com/noah-isme/lesson-booking-api/internal/store"
	"github.com/noah-isme/lesson-booking-api/pkg/config"
	appErrors "github.com/noah-isme/lesson-booking-api/pkg/errors"
)

// Dataset keys owned by the manager.
const (
	DatasetLessons      = "lessons"
	DatasetReservations = "reservations"
	DatasetRoster       = "roster"
	DatasetPrices       = "prices"
)

// MutationResult is the explicit outcome of an incremental mutator. The
// caller decides what to do with a non-Applied result (in practice: full
// rebuild). Incremental mutation is an optimization, never required for
// correctness.
type MutationResult int

const (
	MutationApplied MutationResult = iota
	MutationStale
	MutationError
)

func (r MutationResult) String() string {
	switch r {
	case MutationApplied:
		return "applied"
	case MutationStale:
		return "stale"
	default:
		return "error"
	}
}

// Metrics is the subset of instrumentation the manager emits.
type Metrics interface {
	RecordCacheOperation(hit bool, duration time.Duration)
	ObserveCacheWrite(duration time.Duration)
	RecordRebuild(dataset string, duration time.Duration)
}

// Manager owns the four dataset snapshots: read-through access, full
// rebuild per dataset, and narrow incremental mutators. Rebuild is ground
// truth and always safe to call.
type Manager struct {
	kv      KV
	store   store.TableStore
	metrics Metrics
	logger  *zap.Logger

	prefix     string
	ttl        time.Duration
	chunkLimit int

	now func() time.Time
}

// NewManager constructs a snapshot manager.
func NewManager(kv KV, tableStore store.TableStore, metrics Metrics, logger *zap.Logger, cfg config.CacheConfig) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "booking"
	}
	limit := cfg.ChunkSizeBytes
	if limit <= 0 {
		limit = 90 * 1024
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Manager{
		kv:         kv,
		store:      tableStore,
		metrics:    metrics,
		logger:     logger,
		prefix:     prefix,
		ttl:        ttl,
		chunkLimit: limit,
		now:        time.Now,
	}
}

func (m *Manager) key(dataset string) string {
	return m.prefix + ":" + dataset
}

func (m *Manager) chunkKey(dataset string, index int) string {
	return m.key(dataset) + "#" + strconv.Itoa(index)
}

func (m *Manager) lastRebuildKey() string {
	return m.prefix + ":last_full_rebuild"
}

// --- read-through accessors -------------------------------------------------

// Lessons returns the lesson dataset, rebuilding on miss.
func (m *Manager) Lessons(ctx context.Context) ([]models.Lesson, error) {
	snap, err := m.getSnapshot(ctx, DatasetLessons)
	if err == nil {
		lessons, decErr := decodeRowsInto[models.Lesson](snap.Rows)
		if decErr == nil {
			return lessons, nil
		}
		m.logger.Warn("lesson snapshot undecodable, rebuilding", zap.Error(decErr))
	}
	return m.RebuildLessons(ctx)
}

// Reservations returns the reservation dataset, rebuilding on miss.
func (m *Manager) Reservations(ctx context.Context) ([]models.Reservation, error) {
	snap, err := m.getSnapshot(ctx, DatasetReservations)
	if err == nil {
		reservations, decErr := decodeRowsInto[models.Reservation](snap.Rows)
		if decErr == nil {
			return reservations, nil
		}
		m.logger.Warn("reservation snapshot undecodable, rebuilding", zap.Error(decErr))
	}
	return m.RebuildReservations(ctx)
}

// Roster returns the student roster dataset, rebuilding on miss.
func (m *Manager) Roster(ctx context.Context) ([]models.RosterEntry, error) {
	snap, err := m.getSnapshot(ctx, DatasetRoster)
	if err == nil {
		roster, decErr := decodeRowsInto[models.RosterEntry](snap.Rows)
		if decErr == nil {
			return roster, nil
		}
		m.logger.Warn("roster snapshot undecodable, rebuilding", zap.Error(decErr))
	}
	return m.RebuildRoster(ctx)
}

// Prices returns the price-master dataset, rebuilding on miss.
func (m *Manager) Prices(ctx context.Context) ([]models.PriceRule, error) {
	snap, err := m.getSnapshot(ctx, DatasetPrices)
	if err == nil {
		prices, decErr := decodeRowsInto[models.PriceRule](snap.Rows)
		if decErr == nil {
			return prices, nil
		}
		m.logger.Warn("price snapshot undecodable, rebuilding", zap.Error(decErr))
	}
	return m.RebuildPrices(ctx)
}

// --- full rebuilds ----------------------------------------------------------

// RebuildLessons re-reads the lessons table and replaces the snapshot.
func (m *Manager) RebuildLessons(ctx context.Context) ([]models.Lesson, error) {
	started := m.now()
	table, err := m.store.ReadTable(ctx, store.TableLessons)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read lessons table")
	}
	if err := requireColumns(table, lessonRequiredColumns); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, "lessons table shape invalid")
	}

	lessons := make([]models.Lesson, 0, len(table.Rows))
	for _, row := range table.Rows {
		lesson, err := decodeLessonRow(table, row)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, "lesson row invalid")
		}
		lessons = append(lessons, lesson)
	}

	index := make(map[string]int, len(lessons))
	for i, l := range lessons {
		index[l.ID] = i
	}
	m.storeSnapshot(ctx, DatasetLessons, started, table.ColumnMap(), index, marshalRows(lessons))
	return lessons, nil
}

// RebuildReservations re-reads the reservations table, sorts rows
// most-recent-first and replaces the snapshot.
func (m *Manager) RebuildReservations(ctx context.Context) ([]models.Reservation, error) {
	started := m.now()
	table, err := m.store.ReadTable(ctx, store.TableReservations)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read reservations table")
	}
	if err := requireColumns(table, reservationRequiredColumns); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, "reservations table shape invalid")
	}

	reservations := make([]models.Reservation, 0, len(table.Rows))
	for _, row := range table.Rows {
		r, err := decodeReservationRow(table, row)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, "reservation row invalid")
		}
		reservations = append(reservations, r)
	}
	sortReservationsRecentFirst(reservations)

	index := make(map[string]int, len(reservations))
	for i, r := range reservations {
		index[r.ID] = i
	}
	m.storeSnapshot(ctx, DatasetReservations, started, table.ColumnMap(), index, marshalRows(reservations))
	return reservations, nil
}

// RebuildRoster re-reads the roster table and replaces the snapshot.
func (m *Manager) RebuildRoster(ctx context.Context) ([]models.RosterEntry, error) {
	started := m.now()
	table, err := m.store.ReadTable(ctx, store.TableRoster)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read roster table")
	}
	if err := requireColumns(table, rosterRequiredColumns); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, "roster table shape invalid")
	}

	roster := make([]models.RosterEntry, 0, len(table.Rows))
	for _, row := range table.Rows {
		entry, err := decodeRosterRow(table, row)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, "roster row invalid")
		}
		roster = append(roster, entry)
	}

	index := make(map[string]int, len(roster))
	for i, entry := range roster {
		index[entry.StudentID] = i
	}
	m.storeSnapshot(ctx, DatasetRoster, started, table.ColumnMap(), index, marshalRows(roster))
	return roster, nil
}

// RebuildPrices re-reads the price master and replaces the snapshot.
func (m *Manager) RebuildPrices(ctx context.Context) ([]models.PriceRule, error) {
	started := m.now()
	table, err := m.store.ReadTable(ctx, store.TablePrices)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read price master")
	}
	if err := requireColumns(table, priceRequiredColumns); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, "price master shape invalid")
	}

	prices := make([]models.PriceRule, 0, len(table.Rows))
	for _, row := range table.Rows {
		rule, err := decodePriceRow(table, row)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, "price row invalid")
		}
		prices = append(prices, rule)
	}

	index := make(map[string]int, len(prices))
	for i, rule := range prices {
		index[rule.Classroom] = i
	}
	m.storeSnapshot(ctx, DatasetPrices, started, table.ColumnMap(), index, marshalRows(prices))
	return prices, nil
}

// RebuildAll refreshes every dataset and stamps the rebuild time.
func (m *Manager) RebuildAll(ctx context.Context) error {
	var firstErr error
	if _, err := m.RebuildLessons(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if _, err := m.RebuildReservations(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if _, err := m.RebuildRoster(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if _, err := m.RebuildPrices(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr == nil {
		stamp := m.now().UTC().Format(time.RFC3339)
		if err := m.kv.SetRaw(ctx, m.lastRebuildKey(), []byte(stamp), 0); err != nil {
			m.logger.Warn("failed to stamp last rebuild", zap.Error(err))
		}
	}
	return firstErr
}

// LastFullRebuild returns the time RebuildAll last completed, when known.
func (m *Manager) LastFullRebuild(ctx context.Context) (time.Time, bool) {
	raw, err := m.kv.GetRaw(ctx, m.lastRebuildKey())
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// --- incremental mutators ---------------------------------------------------

// AppendReservation adds one reservation row without re-reading the store.
// Rows are appended (not re-sorted) so the recorded id→index map stays
// valid; ordering is restored by the next full rebuild.
func (m *Manager) AppendReservation(ctx context.Context, r models.Reservation) MutationResult {
	snap, err := m.getSnapshot(ctx, DatasetReservations)
	if err != nil {
		return m.missOrError(err)
	}
	if !hasColumns(snap.ColumnMap, reservationRequiredColumns) || snap.Index == nil {
		return MutationStale
	}
	if _, exists := snap.Index[r.ID]; exists {
		return MutationStale
	}

	row, err := json.Marshal(r)
	if err != nil {
		m.logger.Warn("failed to marshal reservation for append", zap.Error(err))
		return MutationError
	}
	snap.Rows = append(snap.Rows, row)
	snap.Index[r.ID] = len(snap.Rows) - 1
	return m.commitMutation(ctx, DatasetReservations, snap)
}

// PatchReservationStatus patches one row's status (and, for cancellations,
// the cancel message) in place.
func (m *Manager) PatchReservationStatus(ctx context.Context, id string, status models.ReservationStatus, cancelMessage string) MutationResult {
	snap, err := m.getSnapshot(ctx, DatasetReservations)
	if err != nil {
		return m.missOrError(err)
	}
	if !hasColumns(snap.ColumnMap, reservationRequiredColumns) {
		return MutationStale
	}

	idx, ok := snap.Index[id]
	if !ok || idx >= len(snap.Rows) {
		return MutationStale
	}
	var r models.Reservation
	if err := json.Unmarshal(snap.Rows[idx], &r); err != nil || r.ID != id {
		return MutationStale
	}

	r.Status = status
	if cancelMessage != "" {
		r.CancelMessage = cancelMessage
	}
	r.UpdatedAt = m.now().UTC()

	row, err := json.Marshal(r)
	if err != nil {
		return MutationError
	}
	snap.Rows[idx] = row
	return m.commitMutation(ctx, DatasetReservations, snap)
}

// ReplaceReservation swaps one full row in place, keyed by the
// reservation's id.
func (m *Manager) ReplaceReservation(ctx context.Context, r models.Reservation) MutationResult {
	snap, err := m.getSnapshot(ctx, DatasetReservations)
	if err != nil {
		return m.missOrError(err)
	}
	if !hasColumns(snap.ColumnMap, reservationRequiredColumns) {
		return MutationStale
	}

	idx, ok := snap.Index[r.ID]
	if !ok || idx >= len(snap.Rows) {
		return MutationStale
	}
	var current models.Reservation
	if err := json.Unmarshal(snap.Rows[idx], &current); err != nil || current.ID != r.ID {
		return MutationStale
	}

	row, err := json.Marshal(r)
	if err != nil {
		return MutationError
	}
	snap.Rows[idx] = row
	return m.commitMutation(ctx, DatasetReservations, snap)
}

// PatchLessonColumn patches a single named column of one lesson row. The
// column must exist in the snapshot's recorded column map; otherwise the
// snapshot no longer matches the store shape and the caller must rebuild.
func (m *Manager) PatchLessonColumn(ctx context.Context, id, column, value string) MutationResult {
	snap, err := m.getSnapshot(ctx, DatasetLessons)
	if err != nil {
		return m.missOrError(err)
	}
	if !hasColumns(snap.ColumnMap, lessonRequiredColumns) {
		return MutationStale
	}
	if _, ok := snap.ColumnMap[column]; !ok {
		return MutationStale
	}

	idx, ok := snap.Index[id]
	if !ok || idx >= len(snap.Rows) {
		return MutationStale
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(snap.Rows[idx], &fields); err != nil {
		return MutationStale
	}
	if rowID, _ := fields["id"].(string); rowID != id {
		return MutationStale
	}
	fields[column] = coerceCell(value)

	row, err := json.Marshal(fields)
	if err != nil {
		return MutationError
	}
	snap.Rows[idx] = row
	return m.commitMutation(ctx, DatasetLessons, snap)
}

// --- internals --------------------------------------------------------------

func (m *Manager) missOrError(err error) MutationResult {
	if errors.Is(err, appErrors.ErrCacheMiss) {
		return MutationStale
	}
	m.logger.Warn("cache read failed during mutation", zap.Error(err))
	return MutationError
}

func (m *Manager) commitMutation(ctx context.Context, dataset string, snap *Snapshot) MutationResult {
	snap.Version++
	snap.TotalRows = len(snap.Rows)
	if err := m.writeSnapshot(ctx, dataset, snap.Meta, snap.Rows, snap.TotalChunks); err != nil {
		m.logger.Warn("cache write failed during mutation",
			zap.String("dataset", dataset), zap.Error(err))
		return MutationError
	}
	return MutationApplied
}

func (m *Manager) getSnapshot(ctx context.Context, dataset string) (*Snapshot, error) {
	start := m.now()
	raw, err := m.kv.GetRaw(ctx, m.key(dataset))
	if err != nil {
		m.recordOp(false, start)
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		m.logger.Warn("corrupt snapshot envelope", zap.String("dataset", dataset), zap.Error(err))
		m.recordOp(false, start)
		return nil, appErrors.ErrCacheMiss
	}

	snap := &Snapshot{Meta: env.Meta, Rows: env.Rows}
	if env.IsChunked {
		groups := make([][]json.RawMessage, 0, env.TotalChunks)
		for i := 0; i < env.TotalChunks; i++ {
			rawChunk, err := m.kv.GetRaw(ctx, m.chunkKey(dataset, i))
			if err != nil {
				// A missing chunk is a full-dataset miss, never partial data.
				m.recordOp(false, start)
				return nil, appErrors.ErrCacheMiss
			}
			var chunk chunkEnvelope
			if err := json.Unmarshal(rawChunk, &chunk); err != nil {
				m.recordOp(false, start)
				return nil, appErrors.ErrCacheMiss
			}
			groups = append(groups, chunk.Rows)
		}
		snap.Rows = joinChunks(groups)
	}

	if len(snap.Rows) != snap.TotalRows {
		m.logger.Warn("snapshot row count mismatch",
			zap.String("dataset", dataset),
			zap.Int("expected", snap.TotalRows),
			zap.Int("actual", len(snap.Rows)))
		m.recordOp(false, start)
		return nil, appErrors.ErrCacheMiss
	}

	m.recordOp(true, start)
	return snap, nil
}

// storeSnapshot writes a freshly rebuilt dataset. Write failures are logged
// and swallowed: the rebuilt records were already read from the store, and
// the next cache read simply rebuilds again.
func (m *Manager) storeSnapshot(ctx context.Context, dataset string, started time.Time, columnMap map[string]int, index map[string]int, rows []json.RawMessage) {
	prevVersion, prevChunks := m.previousMeta(ctx, dataset)
	meta := Meta{
		Version:   prevVersion + 1,
		Dataset:   dataset,
		ColumnMap: columnMap,
		Index:     index,
		TotalRows: len(rows),
		RebuiltAt: m.now().UTC(),
	}
	if err := m.writeSnapshot(ctx, dataset, meta, rows, prevChunks); err != nil {
		m.logger.Warn("snapshot write failed",
			zap.String("dataset", dataset), zap.Error(err))
	}
	if m.metrics != nil {
		m.metrics.RecordRebuild(dataset, m.now().Sub(started))
	}
}

func (m *Manager) writeSnapshot(ctx context.Context, dataset string, meta Meta, rows []json.RawMessage, prevChunks int) error {
	start := m.now()
	defer func() {
		if m.metrics != nil {
			m.metrics.ObserveCacheWrite(m.now().Sub(start))
		}
	}()

	meta.TotalRows = len(rows)
	meta.IsChunked = false
	meta.TotalChunks = 0

	inline, err := json.Marshal(envelope{Meta: meta, Rows: rows})
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", dataset, err)
	}

	if len(inline) <= m.chunkLimit {
		if err := m.kv.SetRaw(ctx, m.key(dataset), inline, m.ttl); err != nil {
			return err
		}
		m.cleanupChunks(ctx, dataset, 0, prevChunks)
		return nil
	}

	groups := splitRows(rows, m.chunkLimit)
	meta.IsChunked = true
	meta.TotalChunks = len(groups)

	for i, group := range groups {
		payload, err := json.Marshal(chunkEnvelope{Version: int(meta.Version), Chunk: i, Rows: group})
		if err != nil {
			return fmt.Errorf("marshal chunk %d of %s: %w", i, dataset, err)
		}
		if err := m.kv.SetRaw(ctx, m.chunkKey(dataset, i), payload, m.ttl); err != nil {
			return err
		}
	}

	// Metadata last: readers following a chunked metadata record always find
	// every chunk already present.
	envPayload, err := json.Marshal(envelope{Meta: meta})
	if err != nil {
		return fmt.Errorf("marshal snapshot meta %s: %w", dataset, err)
	}
	if err := m.kv.SetRaw(ctx, m.key(dataset), envPayload, m.ttl); err != nil {
		return err
	}
	m.cleanupChunks(ctx, dataset, meta.TotalChunks, prevChunks)
	return nil
}

func (m *Manager) cleanupChunks(ctx context.Context, dataset string, from, to int) {
	if to <= from {
		return
	}
	stale := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		stale = append(stale, m.chunkKey(dataset, i))
	}
	if err := m.kv.Delete(ctx, stale...); err != nil {
		m.logger.Warn("stale chunk cleanup failed", zap.String("dataset", dataset), zap.Error(err))
	}
}

func (m *Manager) previousMeta(ctx context.Context, dataset string) (version int64, chunks int) {
	raw, err := m.kv.GetRaw(ctx, m.key(dataset))
	if err != nil {
		return 0, 0
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return 0, 0
	}
	return env.Version, env.TotalChunks
}

func (m *Manager) recordOp(hit bool, start time.Time) {
	if m.metrics != nil {
		m.metrics.RecordCacheOperation(hit, m.now().Sub(start))
	}
}

func hasColumns(columnMap map[string]int, required []string) bool {
	if columnMap == nil {
		return false
	}
	for _, name := range required {
		if _, ok := columnMap[name]; !ok {
			return false
		}
	}
	return true
}

func marshalRows[T any](records []T) []json.RawMessage {
	rows := make([]json.RawMessage, 0, len(records))
	for _, record := range records {
		payload, err := json.Marshal(record)
		if err != nil {
			continue
		}
		rows = append(rows, payload)
	}
	return rows
}

func decodeRowsInto[T any](rows []json.RawMessage) ([]T, error) {
	records := make([]T, 0, len(rows))
	for _, row := range rows {
		var record T
		if err := json.Unmarshal(row, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func sortReservationsRecentFirst(reservations []models.Reservation) {
	// Stable so same-instant rows keep their store order.
	sort.SliceStable(reservations, func(i, j int) bool {
		return reservations[i].CreatedAt.After(reservations[j].CreatedAt)
	})
}

func coerceCell(value string) interface{} {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}
