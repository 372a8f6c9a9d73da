package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"quotation-service/internal/common/database"
)

// Postgres inserts one row per quotation, one TEXT column per configured column.
type Postgres struct {
	db     *database.PostgresClient
	table  string
	insert string
	create string
}

func NewPostgres(db *database.PostgresClient, table string, columns []string) *Postgres {
	quoted := make([]string, len(columns))
	params := make([]string, len(columns))
	defs := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
		params[i] = fmt.Sprintf("$%d", i+1)
		defs[i] = quoted[i] + " TEXT"
	}
	qt := pq.QuoteIdentifier(table)

	return &Postgres{
		db:    db,
		table: table,
		insert: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			qt, strings.Join(quoted, ", "), strings.Join(params, ", ")),
		create: fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id BIGSERIAL PRIMARY KEY, created_at TIMESTAMPTZ NOT NULL DEFAULT now(), %s)",
			qt, strings.Join(defs, ", ")),
	}
}

func (p *Postgres) Name() string { return "postgres" }

// EnsureTable creates the table when it does not exist yet.
func (p *Postgres) EnsureTable(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, p.create); err != nil {
		return fmt.Errorf("postgres: create table %s: %w", p.table, err)
	}
	return nil
}

func (p *Postgres) AppendRow(ctx context.Context, row Row) error {
	args := make([]interface{}, len(row.Values))
	for i, v := range row.Values {
		args[i] = v
	}
	if _, err := p.db.Exec(ctx, p.insert, args...); err != nil {
		return fmt.Errorf("postgres insert: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
