package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/ports"
)

// SQLiteStore implements ports.SessionStore and ports.DocumentLibrary on an
// in-memory SQLite database. Nothing survives the process.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens a private in-memory database.
func NewSQLiteStore() (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:explorer-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// The database lives as long as its last connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		setup TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		state BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS documents (
		path TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		content TEXT NOT NULL,
		size INTEGER NOT NULL,
		source TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_name ON documents(name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// sessionState is the part of a session kept in the state column.
type sessionState struct {
	RAGDocument *documentRecord     `json:"rag_document,omitempty"`
	Documents   []documentRecord    `json:"documents,omitempty"`
	History     []entities.Exchange `json:"history,omitempty"`
}

type documentRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	Size      int64     `json:"size"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

func toRecord(d entities.Document) documentRecord {
	return documentRecord{
		ID:        d.ID,
		Name:      d.Name,
		Path:      d.Path,
		Content:   d.Content,
		Size:      d.Size,
		Source:    string(d.Source),
		CreatedAt: d.CreatedAt,
	}
}

func (r documentRecord) toDocument() entities.Document {
	return entities.Document{
		ID:        r.ID,
		Name:      r.Name,
		Path:      r.Path,
		Content:   r.Content,
		Size:      r.Size,
		Source:    entities.DocumentSource(r.Source),
		CreatedAt: r.CreatedAt,
	}
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*entities.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		setup, model string
		state        []byte
		updatedAt    time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT setup, model, state, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&setup, &model, &state, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	var st sessionState
	if err := json.Unmarshal(state, &st); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}

	sess := &entities.Session{
		ID:        id,
		Setup:     entities.Setup(setup),
		Model:     model,
		History:   st.History,
		UpdatedAt: updatedAt,
	}
	if st.RAGDocument != nil {
		d := st.RAGDocument.toDocument()
		sess.RAGDocument = &d
	}
	for _, r := range st.Documents {
		sess.Documents = append(sess.Documents, r.toDocument())
	}
	return sess, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sess *entities.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := sessionState{History: sess.History}
	if sess.RAGDocument != nil {
		r := toRecord(*sess.RAGDocument)
		st.RAGDocument = &r
	}
	for _, d := range sess.Documents {
		st.Documents = append(st.Documents, toRecord(d))
	}
	state, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (id, setup, model, state, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, sess.ID, string(sess.Setup), sess.Model, state, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// Put adds doc to the library, replacing any document with the same path.
func (s *SQLiteStore) Put(ctx context.Context, doc entities.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents (path, id, name, content, size, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, doc.Path, doc.ID, doc.Name, doc.Content, doc.Size, string(doc.Source), doc.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("storing document: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RemoveByPath(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, path)
	return err
}

// List returns the library documents ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]entities.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, id, name, content, size, source, created_at
		FROM documents ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []entities.Document
	for rows.Next() {
		var (
			d      entities.Document
			source string
		)
		if err := rows.Scan(&d.Path, &d.ID, &d.Name, &d.Content, &d.Size, &source, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.Source = entities.DocumentSource(source)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Stats returns the number of sessions and library documents.
func (s *SQLiteStore) Stats(ctx context.Context) (sessions, documents int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&sessions); err != nil {
		return 0, 0, err
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&documents); err != nil {
		return 0, 0, err
	}
	return sessions, documents, nil
}

// Close closes the database, discarding its contents.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
