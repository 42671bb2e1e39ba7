package storage

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vedsharma/reqbook/internal/model"

	_ "modernc.org/sqlite"
)

const (
	dbFile = "reqbook.db"

	// Secure file permissions - owner read/write only
	secureFileMode = 0600 // -rw-------
	secureDirMode  = 0700 // drwx------

	timeLayout = time.RFC3339Nano
)

// ensureSecureFile creates a file with secure permissions if it doesn't exist,
// or verifies/fixes permissions if it does exist. This prevents a TOCTOU race
// condition where the file could be created with insecure default permissions.
func ensureSecureFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, secureFileMode)
		if err != nil {
			return fmt.Errorf("failed to create secure file: %w", err)
		}
		f.Close()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Mode().Perm() != secureFileMode {
		if err := os.Chmod(path, secureFileMode); err != nil {
			return fmt.Errorf("failed to set secure permissions: %w", err)
		}
	}
	return nil
}

// SQLiteStorage keeps snapshots in relational tables, one row set per location
type SQLiteStorage struct {
	db      *sql.DB
	dataDir string
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewSQLiteStorage opens (or creates) the database under dataDir
func NewSQLiteStorage(dataDir string, logger *slog.Logger) (*SQLiteStorage, error) {
	if err := os.MkdirAll(dataDir, secureDirMode); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// Create database file with secure permissions if it doesn't exist
	if err := ensureSecureFile(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStorage{db: db, dataDir: dataDir, logger: logger}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the database file
func (s *SQLiteStorage) Path() string {
	return filepath.Join(s.dataDir, dbFile)
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// initSchema creates the database tables if they don't exist
func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		location TEXT PRIMARY KEY,
		saved_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS hosts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		location TEXT NOT NULL,
		position INTEGER NOT NULL,
		address TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (location) REFERENCES snapshots(location) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_hosts_location ON hosts(location, position);

	CREATE TABLE IF NOT EXISTS headers (
		host_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		disabled INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (host_id) REFERENCES hosts(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_headers_host ON headers(host_id, position);

	CREATE TABLE IF NOT EXISTS endpoints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		host_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		path TEXT NOT NULL,
		method TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (host_id) REFERENCES hosts(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_endpoints_host ON endpoints(host_id, position);

	CREATE TABLE IF NOT EXISTS query_items (
		endpoint_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		disabled INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (endpoint_id) REFERENCES endpoints(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_query_items_endpoint ON query_items(endpoint_id, position);

	CREATE TABLE IF NOT EXISTS responses (
		endpoint_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		id TEXT NOT NULL,
		payload BLOB,
		status_code INTEGER NOT NULL,
		received_at TEXT NOT NULL,
		FOREIGN KEY (endpoint_id) REFERENCES endpoints(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_responses_endpoint ON responses(endpoint_id, position);

	CREATE TABLE IF NOT EXISTS json_imports (
		location TEXT PRIMARY KEY,
		closed_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// Snapshot Operations
// =============================================================================

// Save replaces every row stored for loc inside a single transaction
func (s *SQLiteStorage) Save(loc Location, snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(loc, snap); err != nil {
		s.logger.Error("failed to save snapshot",
			slog.String("location", string(loc)),
			slog.String("error", err.Error()))
		return &PersistenceError{Op: "save", Location: loc, Err: err}
	}

	s.logger.Debug("saved snapshot",
		slog.String("location", string(loc)),
		slog.String("backend", BackendSQLite),
		slog.Int("hosts", len(snap.Hosts)))
	return nil
}

func (s *SQLiteStorage) save(loc Location, snap model.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Clear existing data (cascade removes hosts and everything below them)
	if _, err := tx.Exec("DELETE FROM snapshots WHERE location = ?", string(loc)); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO snapshots (location, saved_at) VALUES (?, ?)",
		string(loc), time.Now().UTC().Format(timeLayout)); err != nil {
		return err
	}

	for i, h := range snap.Hosts {
		if err := insertHost(tx, loc, i, h); err != nil {
			return fmt.Errorf("insert host %s: %w", h.Address, err)
		}
	}
	if err := closeImport(tx, loc); err != nil {
		return err
	}

	return tx.Commit()
}

// closeImport marks loc so a JSON snapshot file is never imported over it
func closeImport(tx *sql.Tx, loc Location) error {
	_, err := tx.Exec("INSERT OR REPLACE INTO json_imports (location, closed_at) VALUES (?, ?)",
		string(loc), time.Now().UTC().Format(timeLayout))
	return err
}

// insertHost is a helper to insert a host and everything it owns
func insertHost(tx *sql.Tx, loc Location, position int, h model.Host) error {
	result, err := tx.Exec(
		"INSERT INTO hosts (location, position, address, label) VALUES (?, ?, ?, ?)",
		string(loc), position, h.Address, h.Label)
	if err != nil {
		return err
	}
	hostID, err := result.LastInsertId()
	if err != nil {
		return err
	}

	for i, hdr := range h.DefaultHeaders {
		_, err := tx.Exec(
			"INSERT INTO headers (host_id, position, key, value, disabled) VALUES (?, ?, ?, ?, ?)",
			hostID, i, hdr.Key, hdr.Value, hdr.Disabled)
		if err != nil {
			return err
		}
	}

	for i, ep := range h.Endpoints {
		result, err := tx.Exec(
			"INSERT INTO endpoints (host_id, position, path, method, label) VALUES (?, ?, ?, ?, ?)",
			hostID, i, ep.Path, string(ep.HTTPMethod), ep.Label)
		if err != nil {
			return err
		}
		endpointID, err := result.LastInsertId()
		if err != nil {
			return err
		}

		for j, q := range ep.QueryItems {
			_, err := tx.Exec(
				"INSERT INTO query_items (endpoint_id, position, name, value, disabled) VALUES (?, ?, ?, ?, ?)",
				endpointID, j, q.Name, q.Value, q.Disabled)
			if err != nil {
				return err
			}
		}

		for j, r := range ep.Responses {
			_, err := tx.Exec(`
				INSERT INTO responses (endpoint_id, position, id, payload, status_code, received_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				endpointID, j, r.ID, r.Payload, r.StatusCode, r.ReceivedAt.UTC().Format(timeLayout))
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// Load rebuilds the snapshot stored for loc. When the database has never held
// loc but a JSON snapshot file exists in the data directory, that file is
// imported first.
func (s *SQLiteStorage) Load(loc Location) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var savedAt string
	err := s.db.QueryRow("SELECT saved_at FROM snapshots WHERE location = ?", string(loc)).Scan(&savedAt)
	if err == sql.ErrNoRows {
		migrated, err := s.migrateFromJSON(loc)
		if err != nil {
			return model.Snapshot{}, err
		}
		if migrated == nil {
			return model.Snapshot{}, ErrNotFound
		}
		return *migrated, nil
	}
	if err != nil {
		return model.Snapshot{}, &PersistenceError{Op: "load", Location: loc, Err: err}
	}

	snap, err := s.load(loc)
	if err != nil {
		return model.Snapshot{}, err
	}

	s.logger.Debug("loaded snapshot",
		slog.String("location", string(loc)),
		slog.String("backend", BackendSQLite),
		slog.String("saved_at", savedAt),
		slog.Int("hosts", len(snap.Hosts)))
	return snap, nil
}

func (s *SQLiteStorage) load(loc Location) (model.Snapshot, error) {
	ioErr := func(err error) error {
		return &PersistenceError{Op: "load", Location: loc, Err: err}
	}

	rows, err := s.db.Query(
		"SELECT id, address, label FROM hosts WHERE location = ? ORDER BY position", string(loc))
	if err != nil {
		return model.Snapshot{}, ioErr(err)
	}

	type hostRow struct {
		id   int64
		host model.Host
	}
	var hostRows []hostRow
	for rows.Next() {
		var r hostRow
		var address, label string
		if err := rows.Scan(&r.id, &address, &label); err != nil {
			rows.Close()
			return model.Snapshot{}, ioErr(err)
		}
		r.host = model.NewHost(address, label)
		hostRows = append(hostRows, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.Snapshot{}, ioErr(err)
	}

	snap := model.Snapshot{Hosts: make([]model.Host, 0, len(hostRows))}
	for _, r := range hostRows {
		h := r.host
		if h.DefaultHeaders, err = s.loadHeaders(r.id); err != nil {
			return model.Snapshot{}, ioErr(err)
		}
		if h.Endpoints, err = s.loadEndpoints(loc, r.id); err != nil {
			return model.Snapshot{}, err
		}
		snap.Hosts = append(snap.Hosts, h)
	}

	snap.Normalize()
	return snap, nil
}

func (s *SQLiteStorage) loadHeaders(hostID int64) ([]model.HeaderItem, error) {
	rows, err := s.db.Query(
		"SELECT key, value, disabled FROM headers WHERE host_id = ? ORDER BY position", hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	headers := []model.HeaderItem{}
	for rows.Next() {
		var h model.HeaderItem
		if err := rows.Scan(&h.Key, &h.Value, &h.Disabled); err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	return headers, rows.Err()
}

func (s *SQLiteStorage) loadEndpoints(loc Location, hostID int64) ([]model.Endpoint, error) {
	rows, err := s.db.Query(
		"SELECT id, path, method, label FROM endpoints WHERE host_id = ? ORDER BY position", hostID)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Location: loc, Err: err}
	}

	type endpointRow struct {
		id       int64
		endpoint model.Endpoint
	}
	var endpointRows []endpointRow
	for rows.Next() {
		var r endpointRow
		var path, method, label string
		if err := rows.Scan(&r.id, &path, &method, &label); err != nil {
			rows.Close()
			return nil, &PersistenceError{Op: "load", Location: loc, Err: err}
		}
		m := model.HTTPMethod(method)
		if !m.Valid() {
			rows.Close()
			return nil, &DecodeError{Location: loc, Err: fmt.Errorf("endpoint %q has unsupported method %q", path, method)}
		}
		r.endpoint = model.NewEndpoint(m, path, label)
		endpointRows = append(endpointRows, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "load", Location: loc, Err: err}
	}

	endpoints := make([]model.Endpoint, 0, len(endpointRows))
	for _, r := range endpointRows {
		ep := r.endpoint
		if ep.QueryItems, err = s.loadQueryItems(r.id); err != nil {
			return nil, &PersistenceError{Op: "load", Location: loc, Err: err}
		}
		if ep.Responses, err = s.loadResponses(loc, r.id); err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

func (s *SQLiteStorage) loadQueryItems(endpointID int64) ([]model.QueryItem, error) {
	rows, err := s.db.Query(
		"SELECT name, value, disabled FROM query_items WHERE endpoint_id = ? ORDER BY position", endpointID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.QueryItem{}
	for rows.Next() {
		var q model.QueryItem
		if err := rows.Scan(&q.Name, &q.Value, &q.Disabled); err != nil {
			return nil, err
		}
		items = append(items, q)
	}
	return items, rows.Err()
}

func (s *SQLiteStorage) loadResponses(loc Location, endpointID int64) ([]model.ResponseRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, payload, status_code, received_at
		FROM responses
		WHERE endpoint_id = ?
		ORDER BY position`, endpointID)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Location: loc, Err: err}
	}
	defer rows.Close()

	responses := []model.ResponseRecord{}
	for rows.Next() {
		var r model.ResponseRecord
		var receivedAt string
		if err := rows.Scan(&r.ID, &r.Payload, &r.StatusCode, &receivedAt); err != nil {
			return nil, &PersistenceError{Op: "load", Location: loc, Err: err}
		}
		ts, err := time.Parse(timeLayout, receivedAt)
		if err != nil {
			return nil, &DecodeError{Location: loc, Err: fmt.Errorf("response %s: %w", r.ID, err)}
		}
		r.ReceivedAt = ts.UTC()
		responses = append(responses, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "load", Location: loc, Err: err}
	}
	return responses, nil
}

// Erase removes every row stored for loc. A JSON file left next to the
// database is not imported afterwards.
func (s *SQLiteStorage) Erase(loc Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.erase(loc); err != nil {
		return &PersistenceError{Op: "erase", Location: loc, Err: err}
	}

	s.logger.Debug("erased snapshot",
		slog.String("location", string(loc)),
		slog.String("backend", BackendSQLite))
	return nil
}

func (s *SQLiteStorage) erase(loc Location) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM snapshots WHERE location = ?", string(loc)); err != nil {
		return err
	}
	if err := closeImport(tx, loc); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// Migration from JSON
// =============================================================================

// migrateFromJSON imports <dataDir>/<loc>.json when it exists and renames it.
// Any save or erase of loc closes the import in json_imports, so it runs at
// most once per location even if the rename fails. It returns nil, nil when there is nothing to import.
func (s *SQLiteStorage) migrateFromJSON(loc Location) (*model.Snapshot, error) {
	var closedAt string
	err := s.db.QueryRow("SELECT closed_at FROM json_imports WHERE location = ?", string(loc)).Scan(&closedAt)
	if err == nil {
		return nil, nil
	}
	if err != sql.ErrNoRows {
		return nil, &PersistenceError{Op: "load", Location: loc, Err: err}
	}

	jsonPath := filepath.Join(s.dataDir, string(loc)+snapshotExt)
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &PersistenceError{Op: "load", Location: loc, Err: err}
	}

	snap, err := decodeSnapshot(loc, data)
	if err != nil {
		return nil, err
	}
	if err := s.save(loc, snap); err != nil {
		return nil, &PersistenceError{Op: "migrate", Location: loc, Err: err}
	}
	if err := os.Rename(jsonPath, jsonPath+".migrated"); err != nil {
		s.logger.Warn("imported JSON snapshot but could not rename it",
			slog.String("path", jsonPath),
			slog.String("error", err.Error()))
	}

	s.logger.Info("imported JSON snapshot into sqlite",
		slog.String("location", string(loc)),
		slog.Int("hosts", len(snap.Hosts)))
	return &snap, nil
}
