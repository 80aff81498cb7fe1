package columnar

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/aristath/smartmoney/internal/cache"
)

// Store maintains the derived tables and serves read-only queries over them.
// Rebuilds take an on-disk writer lock so only one process rebuilds at a time;
// readers are never blocked thanks to WAL.
type Store struct {
	db    *DB
	cache *cache.Store
	log   zerolog.Logger

	mu          sync.Mutex
	lastCounts  map[string]int
	lastRefresh time.Time

	lockPath string
}

// New creates the columnar store on top of an open database and the cache.
func New(db *DB, cacheStore *cache.Store, log zerolog.Logger) *Store {
	return &Store{
		db:         db,
		cache:      cacheStore,
		log:        log.With().Str("component", "columnar").Logger(),
		lastCounts: map[string]int{},
		lockPath:   db.Path() + ".lock",
	}
}

// DB exposes the underlying database.
func (s *Store) DB() *DB {
	return s.db
}

// acquireLock takes the cross-process writer lock. Stale locks older than 10
// minutes are broken, since a rebuild never runs that long.
func (s *Store) acquireLock() (release func(), ok bool) {
	if info, err := os.Stat(s.lockPath); err == nil {
		if time.Since(info.ModTime()) > 10*time.Minute {
			s.log.Warn().Str("lock", s.lockPath).Msg("Breaking stale writer lock")
			os.Remove(s.lockPath)
		}
	}
	f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, false
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()
	return func() { os.Remove(s.lockPath) }, true
}

// RefreshAll rebuilds every derived table from its artifact and returns the
// per-table row counts. If another process holds the writer lock, the last
// known counts are returned without error.
func (s *Store) RefreshAll() (map[string]int, error) {
	release, ok := s.acquireLock()
	if !ok {
		s.log.Debug().Msg("Writer lock busy, returning last known counts")
		return s.copyCounts(), nil
	}
	defer release()

	counts := map[string]int{}
	for _, spec := range tableSpecs {
		n, err := s.rebuild(spec)
		if err != nil {
			s.log.Warn().Str("table", spec.Name).Err(err).Msg("Skipping table rebuild")
			continue
		}
		counts[spec.Name] = n
	}

	s.mu.Lock()
	for name, n := range counts {
		s.lastCounts[name] = n
	}
	s.lastRefresh = time.Now()
	result := s.copyCountsLocked()
	s.mu.Unlock()

	s.log.Info().Int("tables", len(counts)).Msg("Columnar store refreshed")
	return result, nil
}

// RefreshTable rebuilds a single table.
func (s *Store) RefreshTable(name string) (int, error) {
	var spec *tableSpec
	for i := range tableSpecs {
		if tableSpecs[i].Name == name {
			spec = &tableSpecs[i]
			break
		}
	}
	if spec == nil {
		return 0, fmt.Errorf("unknown table %q", name)
	}

	release, ok := s.acquireLock()
	if !ok {
		s.mu.Lock()
		n := s.lastCounts[name]
		s.mu.Unlock()
		return n, nil
	}
	defer release()

	n, err := s.rebuild(*spec)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.lastCounts[name] = n
	s.lastRefresh = time.Now()
	s.mu.Unlock()
	return n, nil
}

// rebuild drops and recreates one table inside a transaction, so readers see
// either the old or the new complete table. A missing artifact yields an
// empty table, not an error.
func (s *Store) rebuild(spec tableSpec) (int, error) {
	var rows [][]interface{}
	if s.cache.Exists(spec.Artifact) {
		var err error
		rows, err = spec.Rows(s.cache)
		if err != nil {
			return 0, fmt.Errorf("failed to load artifact for %s: %w", spec.Name, err)
		}
	}

	cols := make([]string, len(spec.Columns))
	placeholders := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		cols[i] = c.Name + " " + c.Type
		placeholders[i] = "?"
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", spec.Name, strings.Join(cols, ", "))
	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", spec.Name, strings.Join(placeholders, ", "))

	err := WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("DROP TABLE IF EXISTS " + spec.Name); err != nil {
			return fmt.Errorf("failed to drop %s: %w", spec.Name, err)
		}
		if _, err := tx.Exec(createSQL); err != nil {
			return fmt.Errorf("failed to create %s: %w", spec.Name, err)
		}
		stmt, err := tx.Prepare(insertSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare insert for %s: %w", spec.Name, err)
		}
		defer stmt.Close()
		for _, row := range rows {
			if _, err := stmt.Exec(row...); err != nil {
				return fmt.Errorf("failed to insert into %s: %w", spec.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Query runs a read-only statement and returns rows as maps keyed by column
// name. Only SELECT/WITH/PRAGMA statements are accepted.
func (s *Store) Query(query string, params ...interface{}) ([]map[string]interface{}, error) {
	if !isReadOnly(query) {
		return nil, fmt.Errorf("only read-only queries are allowed")
	}
	rows, err := s.db.Conn().Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// QueryPair is one statement of a QueryMany batch.
type QueryPair struct {
	SQL    string
	Params []interface{}
}

// QueryMany runs a batch of read-only statements and returns the result sets
// in order. The first failure aborts the batch.
func (s *Store) QueryMany(pairs []QueryPair) ([][]map[string]interface{}, error) {
	results := make([][]map[string]interface{}, 0, len(pairs))
	for _, p := range pairs {
		rs, err := s.Query(p.SQL, p.Params...)
		if err != nil {
			return nil, err
		}
		results = append(results, rs)
	}
	return results, nil
}

// TableExists reports whether a derived table is present.
func (s *Store) TableExists(name string) (bool, error) {
	var count int
	err := s.db.Conn().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return count > 0, nil
}

// Status summarizes the store for operators.
type Status struct {
	Path          string         `json:"path"`
	SizeBytes     int64          `json:"size_bytes"`
	DiskFreeBytes uint64         `json:"disk_free_bytes"`
	LastRefresh   string         `json:"last_refresh,omitempty"`
	TableCounts   map[string]int `json:"table_counts"`
}

// Status reports size, last refresh time and per-table counts. Counts are read
// live from the database so a rebuild by another process is visible.
func (s *Store) Status() Status {
	st := Status{
		Path:        s.db.Path(),
		SizeBytes:   s.db.SizeBytes(),
		TableCounts: map[string]int{},
	}
	if usage, err := disk.Usage(s.cache.Dir()); err == nil {
		st.DiskFreeBytes = usage.Free
	}

	s.mu.Lock()
	if !s.lastRefresh.IsZero() {
		st.LastRefresh = s.lastRefresh.UTC().Format(time.RFC3339)
	}
	s.mu.Unlock()

	for _, spec := range tableSpecs {
		var n int
		if err := s.db.Conn().QueryRow("SELECT COUNT(*) FROM " + spec.Name).Scan(&n); err != nil {
			continue
		}
		st.TableCounts[spec.Name] = n
	}
	return st
}

func (s *Store) copyCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyCountsLocked()
}

func (s *Store) copyCountsLocked() map[string]int {
	out := make(map[string]int, len(s.lastCounts))
	for k, v := range s.lastCounts {
		out[k] = v
	}
	return out
}

// isReadOnly accepts SELECT, WITH and PRAGMA statements only.
func isReadOnly(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	return strings.HasPrefix(q, "SELECT") ||
		strings.HasPrefix(q, "WITH") ||
		strings.HasPrefix(q, "PRAGMA") ||
		strings.HasPrefix(q, "EXPLAIN")
}

// scanRows materializes sql.Rows into maps. Byte slices become strings so
// JSON-serialized columns round-trip cleanly.
func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return out, nil
}
