package executor_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/db"
	"github.com/pseudomuto/steward/pkg/executor"
	"github.com/pseudomuto/steward/pkg/migrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	// fakeDB simulates a Postgres holding just the migration ledger. Writes
	// issued inside WithTx are buffered and only become visible when the
	// callback succeeds, which is what lets the tests observe rollbacks.
	fakeDB struct {
		mu        sync.Mutex
		ledger    map[int64]migrator.Entry
		committed []string
		execs     []string
		queries   []string
		locks     int
		unlocks   int
		lockKey   int64
		lockErr   error
		execErr   func(sql string) error
		txExecErr func(sql string) error
		queryFunc func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	}

	// fakeTx implements pgx.Tx, routing writes into the fakeDB's buffer.
	fakeTx struct {
		db      *fakeDB
		sql     []string
		inserts []migrator.Entry
	}

	// fakeRows implements pgx.Rows over literal row data.
	fakeRows struct {
		data    [][]any
		current int
	}
)

func newFakeDB() *fakeDB {
	return &fakeDB{ledger: make(map[int64]migrator.Entry)}
}

func (f *fakeDB) seed(entries ...migrator.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range entries {
		f.ledger[e.ID] = e
	}
}

func (f *fakeDB) hasID(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.ledger[id]
	return ok
}

func (f *fakeDB) ledgerIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int64, 0, len(f.ledger))
	for id := range f.ledger {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (f *fakeDB) bootstraps() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, sql := range f.execs {
		if strings.HasPrefix(sql, "CREATE") {
			n++
		}
	}
	return n
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	f.execs = append(f.execs, sql)
	f.mu.Unlock()

	if f.execErr != nil {
		if err := f.execErr(sql); err != nil {
			return pgconn.CommandTag{}, err
		}
	}

	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.mu.Lock()
	f.queries = append(f.queries, sql)
	f.mu.Unlock()

	if f.queryFunc != nil {
		return f.queryFunc(ctx, sql, args...)
	}

	switch {
	case strings.HasPrefix(sql, "SELECT id, name, executed_at"):
		return &fakeRows{data: f.entryData()}, nil
	case strings.HasPrefix(sql, "SELECT id"):
		return &fakeRows{data: f.idData()}, nil
	}

	return &fakeRows{}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &fakeRows{}
}

func (f *fakeDB) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx := &fakeTx{db: f}

	if err := fn(tx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range tx.inserts {
		f.ledger[e.ID] = e
	}
	f.committed = append(f.committed, tx.sql...)

	return nil
}

func (f *fakeDB) AcquireLock(ctx context.Context, key int64) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lockErr != nil {
		return nil, f.lockErr
	}

	f.locks++
	f.lockKey = key

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unlocks++
	}, nil
}

func (f *fakeDB) idData() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int64, 0, len(f.ledger))
	for id := range f.ledger {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	data := make([][]any, 0, len(ids))
	for _, id := range ids {
		data = append(data, []any{id})
	}
	return data
}

func (f *fakeDB) entryData() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int64, 0, len(f.ledger))
	for id := range f.ledger {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	data := make([][]any, 0, len(ids))
	for _, id := range ids {
		e := f.ledger[id]
		data = append(data, []any{e.ID, e.Name, e.ExecutedAt})
	}
	return data
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.sql = append(t.sql, sql)

	if t.db.txExecErr != nil {
		if err := t.db.txExecErr(sql); err != nil {
			return pgconn.CommandTag{}, err
		}
	}

	if strings.HasPrefix(sql, "INSERT INTO") && len(args) == 1 {
		named, ok := args[0].(db.Args)
		if !ok {
			return pgconn.CommandTag{}, errors.New("expected named args")
		}

		id := named["id"].(int64)
		if t.db.hasID(id) {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
		}

		t.inserts = append(t.inserts, migrator.Entry{
			ID:         id,
			Name:       named["name"].(string),
			ExecutedAt: named["executed_at"].(time.Time),
		})
	}

	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *fakeTx) Commit(ctx context.Context) error          { return nil }
func (t *fakeTx) Rollback(ctx context.Context) error        { return nil }
func (t *fakeTx) Conn() *pgx.Conn                           { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects            { return pgx.LargeObjects{} }

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return &fakeRows{}, nil
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &fakeRows{}
}

func (f *fakeRows) Next() bool {
	if f.current < len(f.data) {
		f.current++
		return true
	}
	return false
}

func (f *fakeRows) Scan(dest ...any) error {
	row := f.data[f.current-1]

	for i, val := range row {
		switch d := dest[i].(type) {
		case *int64:
			*d = val.(int64)
		case *string:
			*d = val.(string)
		case *time.Time:
			*d = val.(time.Time)
		}
	}

	return nil
}

func (f *fakeRows) Close()                                       {}
func (f *fakeRows) Err() error                                   { return nil }
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

// tracked builds a migration whose invocation count the test can observe.
func tracked(t *testing.T, id int64, name string, calls *int, body migrator.UpFunc) migrator.Migration {
	t.Helper()

	m, err := migrator.New(id, name, func(ctx context.Context, tx pgx.Tx) error {
		*calls++
		if body != nil {
			return body(ctx, tx)
		}
		return nil
	})
	require.NoError(t, err)

	return m
}

func TestNew(t *testing.T) {
	exec := executor.New(executor.Config{DB: newFakeDB(), Source: migrator.NewRegistry()})
	assert.NotNil(t, exec)
}

func TestExecutorMigrateToLatest(t *testing.T) {
	t.Run("applies pending migrations in identifier order", func(t *testing.T) {
		fake := newFakeDB()
		reg := migrator.NewRegistry()

		var third, first, second int
		reg.Register(tracked(t, 300, "third", &third, func(ctx context.Context, tx pgx.Tx) error {
			_, err := tx.Exec(ctx, "CREATE TABLE t300 (id bigint)")
			return err
		}))
		reg.Register(tracked(t, 100, "first", &first, func(ctx context.Context, tx pgx.Tx) error {
			_, err := tx.Exec(ctx, "CREATE TABLE t100 (id bigint)")
			return err
		}))
		reg.Register(tracked(t, 200, "second", &second, func(ctx context.Context, tx pgx.Tx) error {
			_, err := tx.Exec(ctx, "CREATE TABLE t200 (id bigint)")
			return err
		}))

		exec := executor.New(executor.Config{DB: fake, Source: reg})
		results, err := exec.MigrateToLatest(context.Background())

		require.NoError(t, err)
		require.Len(t, results, 3)
		require.Equal(t, int64(100), results[0].ID)
		require.Equal(t, int64(200), results[1].ID)
		require.Equal(t, int64(300), results[2].ID)

		for _, r := range results {
			require.Equal(t, executor.StatusApplied, r.Status)
			require.NoError(t, r.Err)
		}

		require.Equal(t, []int64{100, 200, 300}, fake.ledgerIDs())
		require.Equal(t, 1, first)
		require.Equal(t, 1, second)
		require.Equal(t, 1, third)

		// Migration bodies committed in identifier order.
		var tables []string
		for _, sql := range fake.committed {
			if strings.HasPrefix(sql, "CREATE TABLE") {
				tables = append(tables, sql)
			}
		}
		require.Equal(t, []string{
			"CREATE TABLE t100 (id bigint)",
			"CREATE TABLE t200 (id bigint)",
			"CREATE TABLE t300 (id bigint)",
		}, tables)

		// One advisory lock for the whole batch, keyed off the ledger name.
		require.Equal(t, 1, fake.locks)
		require.Equal(t, 1, fake.unlocks)
		require.Equal(t, db.LockKey(`"steward"."migrations"`), fake.lockKey)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		fake := newFakeDB()
		reg := migrator.NewRegistry()

		var calls int
		reg.Register(tracked(t, 100, "first", &calls, nil))

		exec := executor.New(executor.Config{DB: fake, Source: reg})

		results, err := exec.MigrateToLatest(context.Background())
		require.NoError(t, err)
		require.Len(t, results, 1)

		results, err = exec.MigrateToLatest(context.Background())
		require.NoError(t, err)
		require.Empty(t, results)
		require.Equal(t, 1, calls)
		require.Equal(t, []int64{100}, fake.ledgerIDs())
	})

	t.Run("skips migrations already in the ledger", func(t *testing.T) {
		fake := newFakeDB()
		fake.seed(migrator.Entry{ID: 100, Name: "first", ExecutedAt: time.Now().UTC()})

		reg := migrator.NewRegistry()

		var first, second int
		reg.Register(tracked(t, 100, "first", &first, nil))
		reg.Register(tracked(t, 200, "second", &second, nil))

		exec := executor.New(executor.Config{DB: fake, Source: reg})
		results, err := exec.MigrateToLatest(context.Background())

		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, int64(200), results[0].ID)
		require.Equal(t, 0, first)
		require.Equal(t, 1, second)
	})

	t.Run("failure aborts the batch and rolls back the failed migration", func(t *testing.T) {
		fake := newFakeDB()
		reg := migrator.NewRegistry()

		var first, broken, never int
		reg.Register(tracked(t, 100, "first", &first, nil))
		reg.Register(tracked(t, 200, "broken", &broken, func(ctx context.Context, tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, "CREATE TABLE half_done (id bigint)"); err != nil {
				return err
			}
			return errors.New("boom")
		}))
		reg.Register(tracked(t, 300, "never", &never, nil))

		exec := executor.New(executor.Config{DB: fake, Source: reg})
		results, err := exec.MigrateToLatest(context.Background())

		require.Error(t, err)
		require.Contains(t, err.Error(), "migration 200 (broken) failed")
		require.Contains(t, err.Error(), "boom")
		require.Contains(t, err.Error(), "1 migration(s) not attempted")

		require.Len(t, results, 2)
		require.Equal(t, executor.StatusApplied, results[0].Status)
		require.Equal(t, executor.StatusFailed, results[1].Status)
		require.Error(t, results[1].Err)

		// Only the successful migration is recorded or committed.
		require.Equal(t, []int64{100}, fake.ledgerIDs())
		require.NotContains(t, fake.committed, "CREATE TABLE half_done (id bigint)")
		require.Equal(t, 0, never)

		// The lock is released even when the batch aborts.
		require.Equal(t, 1, fake.unlocks)
	})

	t.Run("ledger write failure rolls back the migration", func(t *testing.T) {
		fake := newFakeDB()
		fake.txExecErr = func(sql string) error {
			if strings.HasPrefix(sql, "INSERT INTO") {
				return errors.New("disk full")
			}
			return nil
		}

		reg := migrator.NewRegistry()

		var calls int
		reg.Register(tracked(t, 100, "first", &calls, func(ctx context.Context, tx pgx.Tx) error {
			_, err := tx.Exec(ctx, "CREATE TABLE t100 (id bigint)")
			return err
		}))

		exec := executor.New(executor.Config{DB: fake, Source: reg})
		results, err := exec.MigrateToLatest(context.Background())

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to record migration 100")
		require.Len(t, results, 1)
		require.Equal(t, executor.StatusFailed, results[0].Status)
		require.Empty(t, fake.ledgerIDs())
		require.Empty(t, fake.committed)
	})

	t.Run("duplicate identifiers abort before anything runs", func(t *testing.T) {
		fake := newFakeDB()
		reg := migrator.NewRegistry()

		var a, b int
		reg.Register(tracked(t, 100, "original", &a, nil))
		reg.Register(tracked(t, 100, "copy_paste", &b, nil))

		exec := executor.New(executor.Config{DB: fake, Source: reg})
		results, err := exec.MigrateToLatest(context.Background())

		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate migration identifier 100")
		require.Contains(t, err.Error(), "original")
		require.Contains(t, err.Error(), "copy_paste")
		require.Nil(t, results)
		require.Equal(t, 0, a)
		require.Equal(t, 0, b)
		require.Empty(t, fake.ledgerIDs())
	})

	t.Run("empty source bootstraps the ledger and applies nothing", func(t *testing.T) {
		fake := newFakeDB()

		exec := executor.New(executor.Config{DB: fake, Source: migrator.NewRegistry()})
		results, err := exec.MigrateToLatest(context.Background())

		require.NoError(t, err)
		require.Empty(t, results)
		require.Equal(t, 2, fake.bootstraps())
	})

	t.Run("migration applied concurrently is reported as skipped", func(t *testing.T) {
		fake := newFakeDB()
		// Another process committed 100 after our applied-set read: the
		// ledger holds the row, but the planning query does not see it.
		fake.seed(migrator.Entry{ID: 100, Name: "first", ExecutedAt: time.Now().UTC()})
		fake.queryFunc = func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &fakeRows{}, nil
		}

		reg := migrator.NewRegistry()

		var calls int
		reg.Register(tracked(t, 100, "first", &calls, func(ctx context.Context, tx pgx.Tx) error {
			_, err := tx.Exec(ctx, "CREATE TABLE t100 (id bigint)")
			return err
		}))

		exec := executor.New(executor.Config{DB: fake, Source: reg})
		results, err := exec.MigrateToLatest(context.Background())

		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, executor.StatusSkipped, results[0].Status)
		require.NoError(t, results[0].Err)

		// The losing transaction rolled back: its statements never committed
		// and the ledger still holds exactly one row.
		require.Equal(t, 1, calls)
		require.Empty(t, fake.committed)
		require.Equal(t, []int64{100}, fake.ledgerIDs())
	})

	t.Run("lock failure aborts before planning", func(t *testing.T) {
		fake := newFakeDB()
		fake.lockErr = errors.New("lock timeout")

		exec := executor.New(executor.Config{DB: fake, Source: migrator.NewRegistry()})
		results, err := exec.MigrateToLatest(context.Background())

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to acquire migration lock")
		require.Nil(t, results)
		require.Equal(t, 0, fake.bootstraps())
	})

	t.Run("disable lock skips lock acquisition", func(t *testing.T) {
		fake := newFakeDB()

		exec := executor.New(executor.Config{DB: fake, Source: migrator.NewRegistry(), DisableLock: true})
		_, err := exec.MigrateToLatest(context.Background())

		require.NoError(t, err)
		require.Equal(t, 0, fake.locks)
	})

	t.Run("cancellation stops the batch between migrations", func(t *testing.T) {
		fake := newFakeDB()
		reg := migrator.NewRegistry()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var first, second int
		reg.Register(tracked(t, 100, "first", &first, func(ctx context.Context, tx pgx.Tx) error {
			cancel()
			return nil
		}))
		reg.Register(tracked(t, 200, "second", &second, nil))

		exec := executor.New(executor.Config{DB: fake, Source: reg})
		results, err := exec.MigrateToLatest(ctx)

		require.Error(t, err)
		require.Contains(t, err.Error(), "migration batch canceled")
		require.Len(t, results, 1)
		require.Equal(t, executor.StatusApplied, results[0].Status)
		require.Equal(t, 1, first)
		require.Equal(t, 0, second)
	})
}

func TestExecutorRunSingle(t *testing.T) {
	t.Run("applies an unapplied migration", func(t *testing.T) {
		fake := newFakeDB()

		var calls int
		m := tracked(t, 100, "first", &calls, nil)

		exec := executor.New(executor.Config{DB: fake, Source: migrator.NewRegistry()})
		result, err := exec.RunSingle(context.Background(), m)

		require.NoError(t, err)
		require.Equal(t, executor.StatusApplied, result.Status)
		require.Equal(t, 1, calls)
		require.Equal(t, []int64{100}, fake.ledgerIDs())
	})

	t.Run("skips an already applied migration without running it", func(t *testing.T) {
		fake := newFakeDB()
		fake.seed(migrator.Entry{ID: 100, Name: "first", ExecutedAt: time.Now().UTC()})

		var calls int
		m := tracked(t, 100, "first", &calls, nil)

		exec := executor.New(executor.Config{DB: fake, Source: migrator.NewRegistry()})
		result, err := exec.RunSingle(context.Background(), m)

		require.NoError(t, err)
		require.Equal(t, executor.StatusSkipped, result.Status)
		require.Equal(t, 0, calls)
	})

	t.Run("reports failures", func(t *testing.T) {
		fake := newFakeDB()

		var calls int
		m := tracked(t, 100, "broken", &calls, func(ctx context.Context, tx pgx.Tx) error {
			return errors.New("boom")
		})

		exec := executor.New(executor.Config{DB: fake, Source: migrator.NewRegistry()})
		result, err := exec.RunSingle(context.Background(), m)

		require.Error(t, err)
		require.Equal(t, executor.StatusFailed, result.Status)
		require.Error(t, result.Err)
		require.Empty(t, fake.ledgerIDs())
	})

	t.Run("rejects a migration without an upgrade action", func(t *testing.T) {
		fake := newFakeDB()

		exec := executor.New(executor.Config{DB: fake, Source: migrator.NewRegistry()})
		result, err := exec.RunSingle(context.Background(), migrator.Migration{ID: 100, Name: "empty"})

		require.Error(t, err)
		require.Contains(t, err.Error(), "no upgrade action")
		require.Equal(t, executor.StatusFailed, result.Status)
	})
}

func TestExecutorApplied(t *testing.T) {
	fake := newFakeDB()
	executedAt := time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC)
	fake.seed(
		migrator.Entry{ID: 200, Name: "second", ExecutedAt: executedAt.Add(time.Minute)},
		migrator.Entry{ID: 100, Name: "first", ExecutedAt: executedAt},
	)

	exec := executor.New(executor.Config{DB: fake, Source: migrator.NewRegistry()})
	entries, err := exec.Applied(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, int64(100), entries[0].ID)
	require.Equal(t, "first", entries[0].Name)
	require.Equal(t, int64(200), entries[1].ID)
	require.Equal(t, 2, fake.bootstraps())
}

func TestExecutorPending(t *testing.T) {
	fake := newFakeDB()
	fake.seed(migrator.Entry{ID: 100, Name: "first", ExecutedAt: time.Now().UTC()})

	reg := migrator.NewRegistry()
	reg.Register(migrator.MustNamed("_300_third", func(ctx context.Context, tx pgx.Tx) error { return nil }))
	reg.Register(migrator.MustNamed("_100_first", func(ctx context.Context, tx pgx.Tx) error { return nil }))
	reg.Register(migrator.MustNamed("_200_second", func(ctx context.Context, tx pgx.Tx) error { return nil }))

	exec := executor.New(executor.Config{DB: fake, Source: reg})
	pending, err := exec.Pending(context.Background())

	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, int64(200), pending[0].ID)
	require.Equal(t, int64(300), pending[1].ID)
}
