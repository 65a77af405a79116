package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gpatrack/gpatrack/core"
	"github.com/gpatrack/gpatrack/core/grade"
	"github.com/gpatrack/gpatrack/core/user"
	"github.com/gpatrack/gpatrack/storage/database"
)

// DBHostEnv names the env var that enables the Postgres-backed tests.
const DBHostEnv = "TEST_DATABASE_HOST"

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	isAdmin, isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		IsActive:  isActive,
		IsAdmin:   isAdmin,
		GPAScale:  grade.Scale40,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// PrepareDB opens a migrated, empty test database. The test is skipped unless $TEST_DATABASE_HOST is set.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	host := os.Getenv(DBHostEnv)
	if host == "" {
		t.Skipf("%s not set: skipping database test", DBHostEnv)
	}

	conf := core.NewTestConfig()
	conf.Database.Host = host
	conf.Database.User = envOr("TEST_DATABASE_USER", "postgres")
	conf.Database.Password = os.Getenv("TEST_DATABASE_PASSWORD")
	conf.Database.AdminUser = conf.Database.User
	conf.Database.AdminPassword = conf.Database.Password
	conf.Database.DisableTLS = true

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		t.Fatalf("CreateIfNotExist() failed: %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB, conf); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	ResetDB(t, db)
	return db
}

// ResetDB empties every application table.
func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	if _, err := db.Exec(`TRUNCATE TABLE assignment, course, "user" CASCADE`); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
