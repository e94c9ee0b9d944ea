// Package main prints the contents of the embedded SQLite backend: entity
// counts per kind and every entity's label with its translation coverage.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/listview"
	"github.com/folioadmin/folio-admin/internal/store/sqlite"
)

func main() {
	dbPath := os.Getenv("SQLITE_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/.folio-admin/catalog.db")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	st, err := sqlite.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	catalog, err := domain.NewCatalog(domain.CatalogConfig{})
	if err != nil {
		log.Fatalf("Failed to build catalog: %v", err)
	}

	ctx := context.Background()
	langs := catalog.Languages()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	incomplete := 0
	for _, schema := range catalog.Schemas() {
		entities, err := st.FetchAll(ctx, schema)
		if err != nil {
			log.Fatalf("Failed to fetch %s: %v", schema.Kind, err)
		}

		fmt.Printf("%s (%d)\n", schema.Model, len(entities))
		for _, e := range entities {
			line := fmt.Sprintf("  %s  %s", e.ID, listview.Label(schema, e))
			if missing := e.MissingLanguages(langs); len(missing) > 0 {
				incomplete++
				codes := make([]string, len(missing))
				for i, m := range missing {
					codes[i] = m.String()
				}
				line += "  [missing " + strings.Join(codes, ",") + "]"
			}
			fmt.Println(line)
		}
		fmt.Println()
	}

	if incomplete > 0 {
		fmt.Printf("⚠️  %d entities are missing translations\n", incomplete)
	}
}
