package migrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/db"
	"github.com/pseudomuto/steward/pkg/migrator"
	"github.com/pseudomuto/steward/pkg/pgddl"
	"github.com/stretchr/testify/require"
)

type (
	// fakeQuerier implements db.Querier for testing
	fakeQuerier struct {
		execFunc  func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
		queryFunc func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
		execs     []string
		queries   []string
	}

	// fakeRows implements pgx.Rows for testing
	fakeRows struct {
		data    [][]any
		current int
		closed  bool
		scanErr error
		rowsErr error
	}
)

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	if f.execFunc != nil {
		return f.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, sql)
	if f.queryFunc != nil {
		return f.queryFunc(ctx, sql, args...)
	}
	return &fakeRows{}, nil
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &fakeRows{rowsErr: errors.New("unexpected QueryRow")}
}

func (f *fakeRows) Next() bool {
	if f.closed {
		return false
	}
	if f.current < len(f.data) {
		f.current++
		return true
	}
	return false
}

func (f *fakeRows) Scan(dest ...any) error {
	if f.scanErr != nil {
		return f.scanErr
	}
	if f.current <= 0 || f.current > len(f.data) {
		return errors.New("no current row")
	}

	row := f.data[f.current-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}

	for i, val := range row {
		switch d := dest[i].(type) {
		case *int64:
			if v, ok := val.(int64); ok {
				*d = v
			}
		case *string:
			if v, ok := val.(string); ok {
				*d = v
			}
		case *time.Time:
			if v, ok := val.(time.Time); ok {
				*d = v
			}
		}
	}

	return nil
}

func (f *fakeRows) Close()                                       { f.closed = true }
func (f *fakeRows) Err() error                                   { return f.rowsErr }
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

func TestNewLedger(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		require.Equal(t, `"steward"."migrations"`, migrator.NewLedger().QualifiedName())
	})

	t.Run("custom placement", func(t *testing.T) {
		ledger := migrator.NewLedger(migrator.WithSchema("internal"), migrator.WithTable("history"))
		require.Equal(t, `"internal"."history"`, ledger.QualifiedName())
	})

	t.Run("placement is quoted", func(t *testing.T) {
		ledger := migrator.NewLedger(migrator.WithTable(`odd"name`))
		require.Equal(t, `"steward"."odd""name"`, ledger.QualifiedName())
	})
}

func TestLedgerEnsureSchema(t *testing.T) {
	t.Run("creates schema then table", func(t *testing.T) {
		q := &fakeQuerier{}

		require.NoError(t, migrator.NewLedger().EnsureSchema(context.Background(), q))
		require.Len(t, q.execs, 2)
		require.Contains(t, q.execs[0], `CREATE SCHEMA IF NOT EXISTS "steward"`)
		require.Contains(t, q.execs[1], `CREATE TABLE IF NOT EXISTS "steward"."migrations"`)
		require.Contains(t, q.execs[1], "id bigint NOT NULL PRIMARY KEY")
		require.Contains(t, q.execs[1], "executed_at timestamptz NOT NULL")

		// Both statements must be well-formed DDL.
		for _, stmt := range q.execs {
			_, err := pgddl.ParseString(stmt)
			require.NoError(t, err, "statement %q", stmt)
		}
	})

	t.Run("honors custom placement", func(t *testing.T) {
		q := &fakeQuerier{}
		ledger := migrator.NewLedger(migrator.WithSchema("internal"), migrator.WithTable("history"))

		require.NoError(t, ledger.EnsureSchema(context.Background(), q))
		require.Contains(t, q.execs[0], `"internal"`)
		require.Contains(t, q.execs[1], `"internal"."history"`)
	})

	t.Run("tolerates duplicate key races", func(t *testing.T) {
		q := &fakeQuerier{
			execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
			},
		}

		require.NoError(t, migrator.NewLedger().EnsureSchema(context.Background(), q))
		require.Len(t, q.execs, 2)
	})

	t.Run("propagates other failures", func(t *testing.T) {
		q := &fakeQuerier{
			execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, errors.New("permission denied")
			},
		}

		err := migrator.NewLedger().EnsureSchema(context.Background(), q)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to bootstrap ledger")
		require.Contains(t, err.Error(), "permission denied")
	})
}

func TestLedgerAppliedIDs(t *testing.T) {
	t.Run("returns identifier set", func(t *testing.T) {
		q := &fakeQuerier{
			queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
				require.Contains(t, sql, `SELECT id FROM "steward"."migrations"`)
				return &fakeRows{data: [][]any{{int64(100)}, {int64(300)}}}, nil
			},
		}

		applied, err := migrator.NewLedger().AppliedIDs(context.Background(), q)
		require.NoError(t, err)
		require.Len(t, applied, 2)
		require.Contains(t, applied, int64(100))
		require.Contains(t, applied, int64(300))
	})

	t.Run("empty ledger", func(t *testing.T) {
		applied, err := migrator.NewLedger().AppliedIDs(context.Background(), &fakeQuerier{})
		require.NoError(t, err)
		require.Empty(t, applied)
	})

	t.Run("query error", func(t *testing.T) {
		q := &fakeQuerier{
			queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
				return nil, errors.New("connection refused")
			},
		}

		_, err := migrator.NewLedger().AppliedIDs(context.Background(), q)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to load applied migration ids")
	})

	t.Run("scan error", func(t *testing.T) {
		q := &fakeQuerier{
			queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
				return &fakeRows{data: [][]any{{int64(100)}}, scanErr: errors.New("type mismatch")}, nil
			},
		}

		_, err := migrator.NewLedger().AppliedIDs(context.Background(), q)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to scan applied migration id")
	})

	t.Run("iteration error", func(t *testing.T) {
		q := &fakeQuerier{
			queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
				return &fakeRows{rowsErr: errors.New("socket closed")}, nil
			},
		}

		_, err := migrator.NewLedger().AppliedIDs(context.Background(), q)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to read applied migration ids")
	})
}

func TestLedgerEntries(t *testing.T) {
	t.Run("returns entries with UTC timestamps", func(t *testing.T) {
		tokyo := time.FixedZone("JST", 9*3600)
		executedAt := time.Date(2024, 1, 15, 21, 30, 0, 0, tokyo)

		q := &fakeQuerier{
			queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
				require.Contains(t, sql, "ORDER BY id")
				return &fakeRows{data: [][]any{
					{int64(100), "create_users", executedAt},
					{int64(200), "add_email_index", executedAt.Add(time.Minute)},
				}}, nil
			},
		}

		entries, err := migrator.NewLedger().Entries(context.Background(), q)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, int64(100), entries[0].ID)
		require.Equal(t, "create_users", entries[0].Name)
		require.Equal(t, time.UTC, entries[0].ExecutedAt.Location())
		require.Equal(t, executedAt.UTC(), entries[0].ExecutedAt)
		require.Equal(t, int64(200), entries[1].ID)
	})

	t.Run("empty ledger", func(t *testing.T) {
		entries, err := migrator.NewLedger().Entries(context.Background(), &fakeQuerier{})
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("query error", func(t *testing.T) {
		q := &fakeQuerier{
			queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
				return nil, errors.New("connection refused")
			},
		}

		_, err := migrator.NewLedger().Entries(context.Background(), q)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to load ledger entries")
	})
}

func TestLedgerRecord(t *testing.T) {
	t.Run("inserts one row with named args", func(t *testing.T) {
		executedAt := time.Date(2024, 1, 15, 12, 30, 0, 0, time.FixedZone("JST", 9*3600))

		var gotArgs []any
		q := &fakeQuerier{
			execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				gotArgs = args
				return pgconn.CommandTag{}, nil
			},
		}

		entry := migrator.Entry{ID: 100, Name: "create_users", ExecutedAt: executedAt}
		require.NoError(t, migrator.NewLedger().Record(context.Background(), q, entry))

		require.Len(t, q.execs, 1)
		require.Contains(t, q.execs[0], `INSERT INTO "steward"."migrations"`)
		require.Contains(t, q.execs[0], "(id, name, executed_at)")

		require.Len(t, gotArgs, 1)
		named, ok := gotArgs[0].(db.Args)
		require.True(t, ok)
		require.Equal(t, int64(100), named["id"])
		require.Equal(t, "create_users", named["name"])
		require.Equal(t, executedAt.UTC(), named["executed_at"])
	})

	t.Run("surfaces primary key violations unchanged", func(t *testing.T) {
		q := &fakeQuerier{
			execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
			},
		}

		err := migrator.NewLedger().Record(context.Background(), q, migrator.Entry{ID: 100, Name: "create_users"})
		require.Error(t, err)
		require.True(t, db.IsUniqueViolation(err))
		require.Contains(t, err.Error(), "failed to record migration 100")
	})
}
