// Package store caches compiled chunks by the hash of their source text.
//
// A Store always keeps an in-memory index. When opened on a file it also
// persists every chunk to SQLite, so a later process can skip compilation
// for source it has already seen.
package store

import (
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/lox/pkg/bytecode"
)

var log = commonlog.GetLogger("lox.store")

// Hash returns the content address of a source text.
func Hash(source string) [32]byte {
	return sha256.Sum256([]byte(source))
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

// Store is a content-addressed chunk cache. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	chunks map[[32]byte]*bytecode.Chunk
	db     *sql.DB // nil for a memory-only store
	path   string
}

// NewMemory creates a store that lives only as long as the process.
func NewMemory() *Store {
	return &Store{chunks: make(map[[32]byte]*bytecode.Chunk)}
}

// Open creates a store persisted to the SQLite database at path, creating
// the file and its parent directory if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		hash       BLOB PRIMARY KEY,
		version    INTEGER NOT NULL,
		data       BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debug("opened chunk store", "path", path)
	return &Store{
		chunks: make(map[[32]byte]*bytecode.Chunk),
		db:     db,
		path:   path,
	}, nil
}

// Get returns the cached chunk for source. Chunks found only on disk are
// decoded and added to the in-memory index. Rows written by a different
// bytecode version are treated as misses.
func (s *Store) Get(source string) (*bytecode.Chunk, bool, error) {
	h := Hash(source)

	s.mu.RLock()
	c, ok := s.chunks[h]
	s.mu.RUnlock()
	if ok || s.db == nil {
		return c, ok, nil
	}

	var (
		version uint16
		data    []byte
	)
	err := s.db.QueryRow("SELECT version, data FROM chunks WHERE hash = ?", h[:]).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying chunk: %w", err)
	}
	if version != bytecode.BytecodeVersion {
		log.Debugf("ignoring chunk with stale version %d", version)
		return nil, false, nil
	}

	c, err = bytecode.UnmarshalChunk(data)
	if err != nil {
		return nil, false, fmt.Errorf("decoding chunk: %w", err)
	}

	s.mu.Lock()
	s.chunks[h] = c
	s.mu.Unlock()
	return c, true, nil
}

// Put records chunk as the compiled form of source.
func (s *Store) Put(source string, chunk *bytecode.Chunk) error {
	h := Hash(source)

	s.mu.Lock()
	s.chunks[h] = chunk
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	data, err := bytecode.MarshalChunk(chunk)
	if err != nil {
		return fmt.Errorf("encoding chunk: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO chunks (hash, version, data, created_at) VALUES (?, ?, ?, ?)",
		h[:], chunk.Version(), data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}
	return nil
}

// Len returns the number of chunks in the in-memory index.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Persisted reports how many chunks are stored on disk. A memory-only
// store reports zero.
func (s *Store) Persisted() (int, error) {
	if s.db == nil {
		return 0, nil
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Path returns the database path, or "" for a memory-only store.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
