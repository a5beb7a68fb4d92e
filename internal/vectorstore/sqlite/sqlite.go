package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"docqa/internal/domain"
	"docqa/internal/vectorstore"
)

// DatabaseFilename is the file created inside the store directory.
const DatabaseFilename = "docqa.db"

const schema = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	document   TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (collection, id)
)`

var (
	_ domain.VectorStore = (*Store)(nil)
	_ domain.Replacer    = (*Store)(nil)
)

// Store is a persistent vector collection backed by an SQLite file.
// Similarity is computed in process by brute force over the filtered rows.
type Store struct {
	db         *sql.DB
	collection string
}

// Open opens or creates the store under dir.
func Open(ctx context.Context, dir, collection string) (*Store, error) {
	if collection == "" {
		return nil, errors.New("collection name is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	db, err := sql.Open("sqlite3", filepath.Join(dir, DatabaseFilename))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, collection: collection}, nil
}

func (s *Store) Upsert(ctx context.Context, records []domain.Record) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.upsert(ctx, tx, records)
	})
}

func (s *Store) Delete(ctx context.Context, filter map[string]string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.delete(ctx, tx, filter)
	})
}

// Replace deletes the records matching filter and upserts records in one transaction.
func (s *Store) Replace(ctx context.Context, filter map[string]string, records []domain.Record) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.delete(ctx, tx, filter); err != nil {
			return err
		}
		return s.upsert(ctx, tx, records)
	})
}

func (s *Store) Query(ctx context.Context, vectors [][]float32, k int, filter map[string]string) ([][]domain.Match, error) {
	where, args := s.where(filter)
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, document, embedding, metadata FROM records WHERE "+where+" ORDER BY rowid", args...)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Record
	for rows.Next() {
		var (
			r    domain.Record
			blob []byte
			meta string
		)
		if err := rows.Scan(&r.ID, &r.Document, &blob, &meta); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Vector = decodeVector(blob)
		if err := json.Unmarshal([]byte(meta), &r.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", r.ID, err)
		}
		candidates = append(candidates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	groups := make([][]domain.Match, len(vectors))
	for i, v := range vectors {
		groups[i] = vectorstore.Rank(v, candidates, k)
	}
	return groups, nil
}

// Count returns the number of records matching filter.
func (s *Store) Count(ctx context.Context, filter map[string]string) (int, error) {
	where, args := s.where(filter)
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) upsert(ctx context.Context, tx *sql.Tx, records []domain.Record) error {
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO records (collection, id, document, embedding, metadata) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (collection, id) DO UPDATE SET
	document = excluded.document,
	embedding = excluded.embedding,
	metadata = excluded.metadata`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		meta := r.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode metadata of %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, s.collection, r.ID, r.Document, encodeVector(r.Vector), string(data)); err != nil {
			return fmt.Errorf("upsert %s: %w", r.ID, err)
		}
	}
	return nil
}

func (s *Store) delete(ctx context.Context, tx *sql.Tx, filter map[string]string) error {
	where, args := s.where(filter)
	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE "+where, args...); err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	return nil
}

// where builds a deterministic clause scoped to the collection.
func (s *Store) where(filter map[string]string) (string, []any) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clause := []string{"collection = ?"}
	args := []any{s.collection}
	for _, k := range keys {
		clause = append(clause, "json_extract(metadata, ?) = ?")
		args = append(args, `$."`+k+`"`, filter[k])
	}
	return strings.Join(clause, " AND "), args
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
