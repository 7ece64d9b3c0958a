package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
)

// SchemaName is the schema holding the tables created by the embedded
// migrations.
const SchemaName = "metadata_console"

var schemaNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// NewTxnWithSchema begins a transaction whose unqualified table names
// resolve in schema.
func NewTxnWithSchema(ctx context.Context, db *sql.DB, schema string) (*sql.Tx, error) {
	if !schemaNamePattern.MatchString(schema) {
		return nil, fmt.Errorf("invalid schema name: %s", schema)
	}

	txn, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}

	_, err = txn.ExecContext(ctx, fmt.Sprintf("SET LOCAL search_path TO %s;", schema))
	if err != nil {
		_ = txn.Rollback()
		return nil, fmt.Errorf("could not set schema on txn: %w", err)
	}

	return txn, nil
}
