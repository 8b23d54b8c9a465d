package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	root_path TEXT NOT NULL,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
	project_id TEXT NOT NULL,
	path TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	size INTEGER NOT NULL,
	mod_time INTEGER NOT NULL,
	is_binary INTEGER NOT NULL,
	PRIMARY KEY (project_id, path)
);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	file_path TEXT NOT NULL,
	content TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	symbol_name TEXT NOT NULL,
	symbol_kind TEXT NOT NULL,
	parent_symbol TEXT NOT NULL,
	visibility TEXT NOT NULL,
	raw_visibility TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_file ON chunks(project_id, file_path);

CREATE TABLE IF NOT EXISTS kv_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteMetadataStore is the pure-Go (no cgo) metadata system of record,
// using a single writer connection and unlimited readers.
type SQLiteMetadataStore struct {
	write *sql.DB
	read  *sql.DB
}

// OpenSQLite opens (creating if necessary) the metadata database at path.
func OpenSQLite(path string) (*SQLiteMetadataStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating metadata dir: %w", err)
		}
	}

	write, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}
	write.SetMaxOpenConns(1)

	read, err := sql.Open("sqlite", path)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("opening metadata store (read handle): %w", err)
	}

	if _, err := write.Exec(schema); err != nil {
		write.Close()
		read.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	if _, err := write.Exec("INSERT INTO schema_meta(version) SELECT ? WHERE NOT EXISTS (SELECT 1 FROM schema_meta)", CurrentSchemaVersion); err != nil {
		write.Close()
		read.Close()
		return nil, fmt.Errorf("recording schema version: %w", err)
	}

	return &SQLiteMetadataStore{write: write, read: read}, nil
}

func (s *SQLiteMetadataStore) SaveProject(ctx context.Context, p Project) error {
	_, err := s.write.ExecContext(ctx,
		`INSERT INTO projects(id, root_path, name) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET root_path=excluded.root_path, name=excluded.name`,
		p.ID, p.RootPath, p.Name)
	if err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	return nil
}

func (s *SQLiteMetadataStore) GetProject(ctx context.Context, id string) (Project, error) {
	var p Project
	err := s.read.QueryRowContext(ctx, `SELECT id, root_path, name FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.RootPath, &p.Name)
	if err != nil {
		return Project{}, fmt.Errorf("getting project %s: %w", id, err)
	}
	return p, nil
}

func (s *SQLiteMetadataStore) SaveFiles(ctx context.Context, files []File) error {
	if len(files) == 0 {
		return nil
	}
	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files(project_id, path, content_hash, size, mod_time, is_binary)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, path) DO UPDATE SET
			content_hash=excluded.content_hash, size=excluded.size,
			mod_time=excluded.mod_time, is_binary=excluded.is_binary`)
	if err != nil {
		return fmt.Errorf("preparing file upsert: %w", err)
	}
	defer stmt.Close()

	for _, f := range files {
		if _, err := stmt.ExecContext(ctx, f.ProjectID, f.Path, f.ContentHash, f.Size, f.ModTime, boolToInt(f.IsBinary)); err != nil {
			return fmt.Errorf("upserting file %s: %w", f.Path, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteMetadataStore) GetFileByPath(ctx context.Context, projectID, path string) (File, bool, error) {
	var f File
	f.ProjectID = projectID
	f.Path = path
	var isBinary int
	err := s.read.QueryRowContext(ctx,
		`SELECT content_hash, size, mod_time, is_binary FROM files WHERE project_id = ? AND path = ?`,
		projectID, path).Scan(&f.ContentHash, &f.Size, &f.ModTime, &isBinary)
	if errors.Is(err, sql.ErrNoRows) {
		return File{}, false, nil
	}
	if err != nil {
		return File{}, false, fmt.Errorf("getting file %s: %w", path, err)
	}
	f.IsBinary = isBinary != 0
	return f, true, nil
}

func (s *SQLiteMetadataStore) ListFiles(ctx context.Context, projectID string) ([]File, error) {
	rows, err := s.read.QueryContext(ctx,
		`SELECT path, content_hash, size, mod_time, is_binary FROM files WHERE project_id = ? ORDER BY path`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		f.ProjectID = projectID
		var isBinary int
		if err := rows.Scan(&f.Path, &f.ContentHash, &f.Size, &f.ModTime, &isBinary); err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		f.IsBinary = isBinary != 0
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteMetadataStore) DeleteFile(ctx context.Context, projectID, path string) error {
	_, err := s.write.ExecContext(ctx, `DELETE FROM files WHERE project_id = ? AND path = ?`, projectID, path)
	if err != nil {
		return fmt.Errorf("deleting file %s: %w", path, err)
	}
	return nil
}

func (s *SQLiteMetadataStore) SaveChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks(id, project_id, file_path, content, start_line, end_line,
			symbol_name, symbol_kind, parent_symbol, visibility, raw_visibility)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content=excluded.content, start_line=excluded.start_line, end_line=excluded.end_line,
			symbol_name=excluded.symbol_name, symbol_kind=excluded.symbol_kind,
			parent_symbol=excluded.parent_symbol, visibility=excluded.visibility,
			raw_visibility=excluded.raw_visibility`)
	if err != nil {
		return fmt.Errorf("preparing chunk upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.ProjectID, c.FilePath, c.Content, c.StartLine, c.EndLine,
			c.SymbolName, c.SymbolKind, c.ParentSymbol, c.Visibility, c.RawVisibility); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteMetadataStore) GetChunk(ctx context.Context, id string) (Chunk, bool, error) {
	var c Chunk
	c.ID = id
	err := s.read.QueryRowContext(ctx, `
		SELECT project_id, file_path, content, start_line, end_line, symbol_name, symbol_kind, parent_symbol, visibility, raw_visibility
		FROM chunks WHERE id = ?`, id).
		Scan(&c.ProjectID, &c.FilePath, &c.Content, &c.StartLine, &c.EndLine, &c.SymbolName, &c.SymbolKind, &c.ParentSymbol, &c.Visibility, &c.RawVisibility)
	if errors.Is(err, sql.ErrNoRows) {
		return Chunk{}, false, nil
	}
	if err != nil {
		return Chunk{}, false, fmt.Errorf("getting chunk %s: %w", id, err)
	}
	return c, true, nil
}

func (s *SQLiteMetadataStore) GetChunksByFile(ctx context.Context, projectID, path string) ([]Chunk, error) {
	rows, err := s.read.QueryContext(ctx, `
		SELECT id, content, start_line, end_line, symbol_name, symbol_kind, parent_symbol, visibility, raw_visibility
		FROM chunks WHERE project_id = ? AND file_path = ? ORDER BY start_line`, projectID, path)
	if err != nil {
		return nil, fmt.Errorf("listing chunks for %s: %w", path, err)
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		c := Chunk{ProjectID: projectID, FilePath: path}
		if err := rows.Scan(&c.ID, &c.Content, &c.StartLine, &c.EndLine, &c.SymbolName, &c.SymbolKind, &c.ParentSymbol, &c.Visibility, &c.RawVisibility); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteMetadataStore) DeleteChunksByFile(ctx context.Context, projectID, path string) error {
	_, err := s.write.ExecContext(ctx, `DELETE FROM chunks WHERE project_id = ? AND file_path = ?`, projectID, path)
	if err != nil {
		return fmt.Errorf("deleting chunks for %s: %w", path, err)
	}
	return nil
}

func (s *SQLiteMetadataStore) GetState(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.read.QueryRowContext(ctx, `SELECT value FROM kv_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting state %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteMetadataStore) SetState(ctx context.Context, key, value string) error {
	_, err := s.write.ExecContext(ctx,
		`INSERT INTO kv_state(key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("setting state %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteMetadataStore) Close() error {
	werr := s.write.Close()
	rerr := s.read.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ MetadataStore = (*SQLiteMetadataStore)(nil)
