// Command import-snapshot loads a JSON snapshot exported from the legacy
// browser-based booking app into the relational stores.
//
// Usage: import-snapshot <snapshot.json>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/mvconsultorios/turnos-api/internal/appointments"
	"github.com/mvconsultorios/turnos-api/internal/availability"
	"github.com/mvconsultorios/turnos-api/internal/patients"
	"github.com/mvconsultorios/turnos-api/internal/snapshot"
	"github.com/mvconsultorios/turnos-api/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal("usage: import-snapshot <snapshot.json>")
	}

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("read snapshot: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	logger := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("ENV"))
	importer := snapshot.NewImporter(
		patients.NewPostgresRepository(pool),
		appointments.NewPostgresRepository(pool),
		availability.NewStore(pool),
		logger,
	)

	summary, err := importer.Import(ctx, data)
	if err != nil {
		log.Fatalf("import: %v", err)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Fatalf("encode summary: %v", err)
	}
	fmt.Println(string(out))

	if !summary.Success {
		os.Exit(1)
	}
}
