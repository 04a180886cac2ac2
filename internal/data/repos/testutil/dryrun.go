package testutil

import (
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Statement is the SQL and bind vars of the last create or query a DryRun handle built.
type Statement struct {
	mu   sync.Mutex
	SQL  string
	Vars []interface{}
}

func (s *Statement) Last() (string, []interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SQL, append([]interface{}(nil), s.Vars...)
}

// DryRun returns a Postgres-dialect handle that builds statements without a server.
func DryRun(tb testing.TB) (*gorm.DB, *Statement) {
	tb.Helper()
	gdb, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=127.0.0.1 user=dx dbname=dx sslmode=disable"}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open dry-run db: %v", err)
	}
	st := &Statement{}
	capture := func(tx *gorm.DB) {
		st.mu.Lock()
		defer st.mu.Unlock()
		st.SQL = tx.Statement.SQL.String()
		st.Vars = append([]interface{}(nil), tx.Statement.Vars...)
	}
	if err := gdb.Callback().Create().After("gorm:create").Register("testutil:capture_create", capture); err != nil {
		tb.Fatalf("register create capture: %v", err)
	}
	if err := gdb.Callback().Query().After("gorm:query").Register("testutil:capture_query", capture); err != nil {
		tb.Fatalf("register query capture: %v", err)
	}
	return gdb, st
}
