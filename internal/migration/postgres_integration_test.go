package migration

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
)

// Tables created by the Postgres tests; dropped on cleanup.
var pgTestTables = []string{"schema_version", "mig_test_mood", "mig_test_task"}

// pgRunner needs POSTGRES_TEST_URL, e.g.
// postgres://me@localhost:5432/mono_test?sslmode=disable
func pgRunner(t *testing.T, files map[string]string) (*Runner, *sql.DB) {
	t.Helper()
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("ping postgres: %v", err)
	}
	t.Cleanup(func() {
		for _, table := range pgTestTables {
			_, _ = db.Exec("DROP TABLE IF EXISTS " + table)
		}
		db.Close()
	})
	return NewRunner(db, scripts(files), DriverPostgres), db
}

func pgTableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var ok bool
	err := db.QueryRow("SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)", name).Scan(&ok)
	if err != nil {
		t.Fatalf("information_schema: %v", err)
	}
	return ok
}

const (
	pgCreateTask = `CREATE TABLE mig_test_task (id TEXT PRIMARY KEY, title TEXT NOT NULL);`
	pgCreateMood = `CREATE TABLE mig_test_mood (id TEXT PRIMARY KEY, date TEXT NOT NULL UNIQUE);`
)

func TestPostgresSetVersion(t *testing.T) {
	r, _ := pgRunner(t, map[string]string{"001_task.sql": pgCreateTask})
	for _, v := range []int{1, 4} {
		if err := r.SetVersion(context.Background(), v); err != nil {
			t.Fatalf("SetVersion(%d) error = %v", v, err)
		}
		wantVersion(t, r, v)
	}
}

func TestPostgresApplyMigrations(t *testing.T) {
	r, db := pgRunner(t, map[string]string{
		"001_task.sql": pgCreateTask,
		"002_mood.sql": pgCreateMood,
	})
	ctx := context.Background()

	if n, err := r.ApplyMigrations(ctx, nil); err != nil || n != 2 {
		t.Fatalf("first run = %d, %v", n, err)
	}
	if !pgTableExists(t, db, "mig_test_task") || !pgTableExists(t, db, "mig_test_mood") {
		t.Error("tables missing after migrate")
	}
	if n, err := r.ApplyMigrations(ctx, nil); err != nil || n != 0 {
		t.Errorf("second run = %d, %v", n, err)
	}
	wantVersion(t, r, 2)
}

func TestPostgresFailedMigrationRollsBack(t *testing.T) {
	r, db := pgRunner(t, map[string]string{
		"001_task.sql": pgCreateTask + "\nNOT VALID SQL;",
	})

	if _, err := r.ApplyMigrations(context.Background(), nil); err == nil {
		t.Fatal("ApplyMigrations() succeeded on invalid SQL")
	}
	wantVersion(t, r, 0)
	if pgTableExists(t, db, "mig_test_task") {
		t.Error("mig_test_task survived the rollback")
	}
}
