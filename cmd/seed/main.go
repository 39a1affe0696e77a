// Package main seeds the catalog with the default genre taxonomy and prints
// the resulting tree with its validation report.
//
// Usage:
//
//	DB_PATH=~/stagepass/stagepass.db go run ./cmd/seed
//	DB_PATH=~/stagepass/stagepass.db go run ./cmd/seed -demo   # Also create sample artists and events
//
// Run it while the server is stopped; it writes the search index too.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/language"

	"github.com/stagepass/stagepass-server/internal/genre"
	"github.com/stagepass/stagepass-server/internal/logger"
	"github.com/stagepass/stagepass-server/internal/search"
	"github.com/stagepass/stagepass-server/internal/service"
	"github.com/stagepass/stagepass-server/internal/store"
	"github.com/stagepass/stagepass-server/internal/store/sqlite"
)

var (
	demo       = flag.Bool("demo", false, "Create sample artists and events")
	lang       = flag.String("lang", "en", "Collation language for sibling genres")
	searchPath = flag.String("search-path", "", "Search index directory (default: next to the database)")
)

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/stagepass/stagepass.db")
	}
	if *searchPath == "" {
		*searchPath = filepath.Join(filepath.Dir(dbPath), "search")
	}
	tag, err := language.Parse(*lang)
	if err != nil {
		log.Fatalf("Invalid language %q: %v", *lang, err)
	}

	fmt.Printf("Opening database at: %s\n", dbPath)
	quiet := logger.Discard().Logger

	st, err := sqlite.Open(dbPath, quiet)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	index, err := search.NewSearchIndex(search.Options{DataPath: *searchPath, Logger: quiet})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	cache, err := genre.NewCache(4, genre.WithLanguage(tag))
	if err != nil {
		log.Fatalf("Failed to create genre cache: %v", err)
	}

	genres := service.NewGenreService(st, cache, quiet)
	artists := service.NewArtistService(st, genres, quiet)
	events := service.NewEventService(st, genres, quiet)
	searchSvc := service.NewSearchService(index, st, genres, quiet)
	genres.SetSearchIndexer(searchSvc)
	artists.SetSearchIndexer(searchSvc)
	events.SetSearchIndexer(searchSvc)

	ctx := context.Background()

	created, err := genres.SeedDefaults(ctx)
	if err != nil {
		log.Fatalf("Failed to seed genres: %v", err)
	}
	if created == 0 {
		fmt.Println("Catalog already has genres, nothing seeded")
	} else {
		fmt.Printf("Seeded %d genres\n", created)
	}

	if *demo {
		if err := seedDemo(ctx, genres, artists, events); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	report, err := genres.Validate(ctx)
	if err != nil {
		log.Fatalf("Failed to validate genres: %v", err)
	}
	options, err := genres.Options(ctx)
	if err != nil {
		log.Fatalf("Failed to build genre tree: %v", err)
	}

	fmt.Println("\n=== Genre Tree ===")
	for _, o := range options {
		fmt.Println(o.Label)
	}

	fmt.Println("\n=== Validation ===")
	if report.OK() {
		fmt.Println("OK: no orphans, duplicates or cycles")
		return
	}
	for _, o := range report.Orphans {
		fmt.Printf("orphan: %s (missing parent %s)\n", o.ID, o.ParentID)
	}
	for _, id := range report.DuplicateIDs {
		fmt.Printf("duplicate id: %s\n", id)
	}
	for _, name := range report.DuplicateNames {
		fmt.Printf("duplicate name: %s\n", name)
	}
	for _, cycle := range report.Cycles {
		fmt.Printf("cycle: %v\n", cycle)
	}
	os.Exit(2)
}

type demoArtist struct {
	name, country string
	genres        []string
}

var demoArtists = []demoArtist{
	{"Peggy Gou", "KR", []string{"Tech House", "Deep House"}},
	{"Ben Klock", "DE", []string{"Techno"}},
	{"Floating Points", "GB", []string{"Ambient", "Deep House"}},
	{"Nubya Garcia", "GB", []string{"Jazz"}},
}

// seedDemo creates the demo line-up once; a second run finds the artists and stops.
func seedDemo(ctx context.Context, genres *service.GenreService, artists *service.ArtistService, events *service.EventService) error {
	tree, err := genres.Tree(ctx)
	if err != nil {
		return err
	}
	genreIDs := func(names []string) []string {
		ids := make([]string, 0, len(names))
		for _, name := range names {
			if n, ok := tree.LookupName(name); ok {
				ids = append(ids, n.ID)
			}
		}
		return ids
	}

	existing, err := artists.ListArtists(ctx, service.ArtistQuery{Query: demoArtists[0].name}, store.DefaultPaginationParams())
	if err != nil {
		return err
	}
	if existing.Total > 0 {
		fmt.Println("Demo data already present")
		return nil
	}

	ids := make(map[string]string, len(demoArtists))
	for _, d := range demoArtists {
		a, err := artists.CreateArtist(ctx, service.CreateArtistRequest{
			Name:     d.name,
			Country:  d.country,
			GenreIDs: genreIDs(d.genres),
		})
		if err != nil {
			return fmt.Errorf("create artist %s: %w", d.name, err)
		}
		ids[d.name] = a.ID
	}

	startsAt := time.Now().UTC().Add(14 * 24 * time.Hour).Truncate(time.Hour)
	endsAt := startsAt.Add(10 * time.Hour)
	_, err = events.CreateEvent(ctx, service.CreateEventRequest{
		Title:         "Klubnacht",
		Venue:         "Berghain",
		City:          "Berlin",
		StartsAt:      startsAt,
		EndsAt:        &endsAt,
		PriceMinCents: 2500,
		Currency:      "EUR",
		ArtistIDs:     []string{ids["Ben Klock"], ids["Peggy Gou"]},
		GenreIDs:      genreIDs([]string{"Techno", "Tech House"}),
	})
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	fmt.Printf("Created %d demo artists and 1 event\n", len(demoArtists))
	return nil
}
