package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	coredatabase "github.com/m3rciful/insurebot/core/database"
	"github.com/m3rciful/insurebot/core/telegram/state"
)

// openTestStore connects to the database named by INSUREBOT_TEST_DB_NAME
// (with the usual DB_* variables) and applies the repository migrations.
func openTestStore(t *testing.T) *ScreenStore {
	t.Helper()
	name := os.Getenv("INSUREBOT_TEST_DB_NAME")
	if name == "" {
		t.Skip("INSUREBOT_TEST_DB_NAME not set")
	}
	cfg := coredatabase.Config{
		Host:          os.Getenv("DB_HOST"),
		Port:          os.Getenv("DB_PORT"),
		User:          os.Getenv("DB_USER"),
		Password:      os.Getenv("DB_PASSWORD"),
		Name:          name,
		MigrationsDir: filepath.Join("..", "..", "migrations"),
	}
	if err := coredatabase.RunMigrations(cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := coredatabase.Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec(`TRUNCATE user_screens`)
		_ = db.Close()
	})
	if _, err := db.Exec(`TRUNCATE user_screens`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return NewScreenStore(db)
}

func TestScreenStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, ok, err := s.Get(ctx, 1); err != nil || ok {
		t.Fatalf("unseen user: ok=%v err=%v", ok, err)
	}
	prev, err := s.Set(ctx, 1, "pricing")
	if err != nil || prev != "" {
		t.Fatalf("first set: prev=%q err=%v", prev, err)
	}
	prev, err = s.Set(ctx, 1, "start")
	if err != nil || prev != "pricing" {
		t.Fatalf("second set: prev=%q err=%v", prev, err)
	}
	st, ok, err := s.Get(ctx, 1)
	if err != nil || !ok || st != "start" {
		t.Fatalf("get: %q %v %v", st, ok, err)
	}
}

func TestScreenStoreCountsAndForget(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	for id, st := range map[int64]state.State{1: "help", 2: "help", 3: "site"} {
		if _, err := s.Set(ctx, id, st); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	counts, err := s.Counts(ctx)
	if err != nil || counts["help"] != 2 || counts["site"] != 1 {
		t.Fatalf("counts = %v, %v", counts, err)
	}
	n, err := s.Forget(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 3 {
		t.Fatalf("forget = %d, %v", n, err)
	}
}

func TestScreenStoreConcurrentSetsSameUser(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st := state.State("site")
			if i%2 == 0 {
				st = "help"
			}
			if _, err := s.Set(ctx, 9, st); err != nil {
				t.Errorf("set: %v", err)
			}
		}(i)
	}
	wg.Wait()
	counts, err := s.Counts(ctx)
	if err != nil || counts["site"]+counts["help"] != 1 {
		t.Fatalf("one row per user expected, got %v (%v)", counts, err)
	}
}
