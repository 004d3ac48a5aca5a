package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/ssobridge/internal/config"
	migrations "github.com/dropDatabas3/ssobridge/migrations/postgres"
)

func main() {
	var (
		configPath = flag.String("config", "configs/config.yaml", "Path to YAML config")
		dsn        = flag.String("dsn", "", "Postgres DSN (overrides config)")
	)
	flag.Parse()

	target := *dsn
	if target == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config load: %v", err)
		}
		target = cfg.Storage.DSN
	}
	if target == "" {
		log.Fatal("no DSN: pass -dsn or set storage.dsn / PG_DSN")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, target)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	files, err := listEmbedded()
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}
	if len(files) == 0 {
		log.Println("No migrations found. Nothing to do.")
		return
	}
	sort.Strings(files) // apply in ascending order

	log.Printf("Applying %d migration(s)...", len(files))
	for _, f := range files {
		if err := execSQL(ctx, pool, f); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}
	}
	log.Println("Migrations completed.")
}

func listEmbedded() ([]string, error) {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func execSQL(ctx context.Context, pool *pgxpool.Pool, name string) error {
	b, err := migrations.FS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	start := time.Now()
	if _, err := pool.Exec(ctx, string(b)); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	log.Printf("OK %s (%s)", name, time.Since(start).Truncate(time.Millisecond))
	return nil
}
