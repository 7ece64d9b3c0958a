package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charlieegan3/metadata-console/pkg/database"
)

const defaultLimit = 20

// Edit is one applied edit as recorded in the edits table.
type Edit struct {
	ID        int64           `json:"id"`
	Filename  string          `json:"filename"`
	MIME      string          `json:"mime"`
	SourceKey string          `json:"source_key,omitempty"`
	StoredKey string          `json:"stored_key,omitempty"`
	Updates   json.RawMessage `json:"updates"`
	Removals  json.RawMessage `json:"removals"`

	InputSize  int64     `json:"input_size"`
	OutputSize int64     `json:"output_size"`
	CreatedAt  time.Time `json:"created_at"`
}

type Store struct {
	db     *sql.DB
	schema string
}

// NewStore returns a store using the tables created by the embedded
// migrations.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, schema: database.SchemaName}
}

// Record inserts e and returns it with the id and creation time set by the
// database.
func (s *Store) Record(ctx context.Context, e Edit) (Edit, error) {
	if len(e.Updates) == 0 {
		e.Updates = json.RawMessage("{}")
	}
	if len(e.Removals) == 0 {
		e.Removals = json.RawMessage("[]")
	}

	txn, err := database.NewTxnWithSchema(ctx, s.db, s.schema)
	if err != nil {
		return Edit{}, fmt.Errorf("could not start transaction: %w", err)
	}
	defer func() {
		_ = txn.Rollback()
	}()

	insertEditSQL := `
INSERT INTO edits
	(filename, mime, source_key, stored_key, updates, removals, input_size, output_size)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at;
`
	err = txn.QueryRowContext(
		ctx,
		insertEditSQL,
		e.Filename,
		e.MIME,
		e.SourceKey,
		e.StoredKey,
		string(e.Updates),
		string(e.Removals),
		e.InputSize,
		e.OutputSize,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return Edit{}, fmt.Errorf("could not insert edit: %w", err)
	}

	if err := txn.Commit(); err != nil {
		return Edit{}, fmt.Errorf("could not commit edit: %w", err)
	}

	return e, nil
}

// Recent returns up to limit edits, newest first. A limit that is not
// positive uses the default.
func (s *Store) Recent(ctx context.Context, limit int) ([]Edit, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	txn, err := database.NewTxnWithSchema(ctx, s.db, s.schema)
	if err != nil {
		return nil, fmt.Errorf("could not start transaction: %w", err)
	}
	defer func() {
		_ = txn.Rollback()
	}()

	recentEditsSQL := `
SELECT id, filename, mime, source_key, stored_key, updates, removals, input_size, output_size, created_at
FROM edits
ORDER BY created_at DESC, id DESC
LIMIT $1;
`
	rows, err := txn.QueryContext(ctx, recentEditsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("could not select edits: %w", err)
	}
	defer rows.Close()

	edits := []Edit{}
	for rows.Next() {
		var (
			e                 Edit
			updates, removals []byte
		)
		err = rows.Scan(
			&e.ID,
			&e.Filename,
			&e.MIME,
			&e.SourceKey,
			&e.StoredKey,
			&updates,
			&removals,
			&e.InputSize,
			&e.OutputSize,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("could not scan edit: %w", err)
		}

		e.Updates = updates
		e.Removals = removals
		edits = append(edits, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read edits: %w", err)
	}

	return edits, nil
}
