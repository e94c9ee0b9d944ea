// Package main seeds the embedded SQLite backend with sample entities of
// every kind, built through the same validation and payload pipeline the
// editor uses.
//
// Usage:
//
//	SQLITE_PATH=~/.folio-admin/catalog.db go run ./cmd/seed
//	go run ./cmd/seed --count 3
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/payload"
	"github.com/folioadmin/folio-admin/internal/store/sqlite"
	"github.com/folioadmin/folio-admin/internal/validation"
)

var count = flag.Int("count", 2, "Entities to create per kind")

func main() {
	flag.Parse()

	dbPath := os.Getenv("SQLITE_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/.folio-admin/catalog.db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	st, err := sqlite.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	catalog, err := domain.NewCatalog(domain.CatalogConfig{})
	if err != nil {
		log.Fatalf("Failed to build catalog: %v", err)
	}

	ctx := context.Background()
	validator := validation.New()
	langs := catalog.Languages()

	for _, schema := range catalog.Schemas() {
		for n := 1; n <= *count; n++ {
			form := sampleForm(schema, langs, n)
			if err := validator.ValidateForm(schema, form, langs, true); err != nil {
				log.Fatalf("Sample %s %d is invalid: %v", schema.Kind, n, err)
			}

			var image *string
			if schema.HasImage {
				ref := fmt.Sprintf("https://picsum.photos/seed/%s-%d/600/400", schema.Kind, n)
				image = &ref
			}

			p, err := payload.Build(payload.Request{
				Mode:      payload.ModeCreate,
				Schema:    schema,
				Form:      form,
				Image:     image,
				Languages: langs,
			})
			if err != nil {
				log.Fatalf("Failed to build %s payload: %v", schema.Kind, err)
			}

			entity, err := st.Create(ctx, schema, p)
			if err != nil {
				log.Fatalf("Failed to create %s: %v", schema.Kind, err)
			}
			fmt.Printf("  created %-8s %s\n", schema.Kind, entity.ID)
		}
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}
	fmt.Println()
	for _, schema := range catalog.Schemas() {
		fmt.Printf("%-10s %d\n", schema.Model, stats[schema.Kind])
	}
}

// sampleForm fills every slot of the schema with a plausible value.
func sampleForm(schema *domain.Schema, langs []domain.LanguageCode, n int) domain.Form {
	form := make(domain.Form)
	for _, sc := range schema.Scalars {
		switch {
		case sc.URL:
			form[sc.Name] = fmt.Sprintf("https://example.com/%s/%d", schema.Kind, n)
		case sc.Type == domain.ScalarInt:
			form[sc.Name] = fmt.Sprint(n * 10)
		case sc.Type == domain.ScalarBool:
			form[sc.Name] = fmt.Sprint(n%2 == 0)
		default:
			form[sc.Name] = fmt.Sprintf("%s %d", sc.Label, n)
		}
	}
	for _, lang := range langs {
		for _, f := range schema.Localized {
			form[domain.SlotKey(lang, f.Name)] = fmt.Sprintf("%s %s %d", lang.Name(), f.Label, n)
		}
	}
	return form
}
