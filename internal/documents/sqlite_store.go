package documents

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLiteStore keeps documents and an FTS5 index of their chunks.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("documents db path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply documents schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores a document and its chunks in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, doc Document, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, name, format, created_at) VALUES (?, ?, ?, ?)`,
		doc.ID, doc.Name, string(doc.Format), doc.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks_fts (content, chunk_id, document_id, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.Content, c.ID, c.DocumentID, c.Position); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Search returns up to limit chunk texts ranked by bm25.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]string, error) {
	match := matchExpression(query)
	if match == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT content
		FROM chunks_fts
		WHERE chunks_fts MATCH ?
		ORDER BY bm25(chunks_fts), document_id, position
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var passages []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		passages = append(passages, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return passages, nil
}

// DocumentSummary is a stored document without its text.
type DocumentSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Format    Format    `json:"format"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *SQLiteStore) List(ctx context.Context) ([]DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.format, d.created_at,
		       (SELECT COUNT(*) FROM chunks_fts c WHERE c.document_id = d.id)
		FROM documents d
		ORDER BY d.created_at, d.name`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentSummary
	for rows.Next() {
		var (
			d       DocumentSummary
			format  string
			created int64
		)
		if err := rows.Scan(&d.ID, &d.Name, &format, &created, &d.Chunks); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Format = Format(format)
		d.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

var (
	wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

	stopWords = map[string]bool{
		"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
		"by": true, "can": true, "do": true, "does": true, "for": true, "from": true, "how": true,
		"i": true, "in": true, "is": true, "it": true, "me": true, "my": true, "of": true,
		"on": true, "or": true, "the": true, "to": true, "was": true, "what": true, "when": true,
		"where": true, "which": true, "who": true, "why": true, "with": true, "you": true, "your": true,
	}
)

// matchExpression turns free text into an FTS5 query: every significant word
// is quoted and the words are OR-ed so bm25 ranks by overlap.
func matchExpression(query string) string {
	seen := make(map[string]bool)
	var terms []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		if stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, `"`+w+`"`)
	}
	return strings.Join(terms, " OR ")
}
