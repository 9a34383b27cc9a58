// Package main seeds a catalog with a demo location, a small tag tree and
// randomly tagged files so that queries and quick search have data to work on.
//
// Usage:
//
//	DATA_PATH=/tmp/catalog go run ./cmd/seed
//	DATA_PATH=/tmp/catalog go run ./cmd/seed --files 5000 --backend sqlite
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"path"
	"time"

	"github.com/listenupapp/tagcatalog/internal/config"
	"github.com/listenupapp/tagcatalog/internal/di"
	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/service"
)

var (
	fileCount = flag.Int("files", 500, "Number of files to create")
	backend   = flag.String("backend", "", "Storage backend (badger or sqlite)")
	root      = flag.String("root", "/demo/pictures", "Absolute path of the demo location")
)

// Tag tree: top level name to children.
var tagTree = []struct {
	name     string
	color    string
	children []string
}{
	{"Places", "#2e7d32", []string{"Beach", "Mountains", "City", "Forest"}},
	{"People", "#1565c0", []string{"Family", "Friends", "Colleagues"}},
	{"Events", "#c62828", []string{"Birthday", "Wedding", "Holiday"}},
	{"Rating", "#f9a825", []string{"Favorite", "Rejected"}},
}

var (
	folders    = []string{"2021", "2022", "2023", "2024/summer", "2024/winter", "scans"}
	extensions = []string{"jpg", "jpg", "jpg", "png", "heic", "gif", "mp4"}
	words      = []string{"sunset", "portrait", "dinner", "hike", "skyline", "lake", "party", "snow", "street", "garden"}
)

func main() {
	flag.Parse()

	injector := di.NewContainer(config.Flags{Backend: *backend})
	defer func() { _ = injector.Shutdown() }()

	catalog, err := di.Bootstrap(injector)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}

	ctx := context.Background()
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))

	loc, err := catalog.Locations.CreateLocation(ctx, service.CreateLocationRequest{Path: *root})
	if err != nil {
		log.Fatalf("Failed to create location: %v", err)
	}
	fmt.Printf("Created location %s (%s)\n", loc.Path, loc.ID)

	leaves := seedTags(ctx, catalog.Tags)
	fmt.Printf("Created %d leaf tags\n", len(leaves))

	files := make([]*domain.File, 0, *fileCount)
	now := time.Now()
	for i := range *fileCount {
		ext := extensions[rng.IntN(len(extensions))]
		name := fmt.Sprintf("%s_%04d", words[rng.IntN(len(words))], i)
		rel := path.Join(folders[rng.IntN(len(folders))], name+"."+ext)
		created := now.AddDate(0, 0, -rng.IntN(4*365))

		f := &domain.File{
			LocationID:   loc.ID,
			RelativePath: rel,
			AbsolutePath: path.Join(loc.Path, rel),
			Name:         name,
			Extension:    ext,
			Size:         int64(50_000 + rng.IntN(8_000_000)),
			Width:        640 + rng.IntN(5000),
			Height:       480 + rng.IntN(4000),
			DateCreated:  created,
			DateModified: created.Add(time.Duration(rng.IntN(72)) * time.Hour),
		}

		// Roughly one file in ten stays untagged.
		if rng.IntN(10) > 0 {
			for range 1 + rng.IntN(3) {
				f.AddTags(leaves[rng.IntN(len(leaves))])
			}
		}
		files = append(files, f)
	}

	if err := catalog.Files.SaveFiles(ctx, files); err != nil {
		log.Fatalf("Failed to save files: %v", err)
	}
	fmt.Printf("Created %d files\n", len(files))

	seedSearches(ctx, catalog.Searches, leaves)

	total, err := catalog.Files.CountFiles(ctx)
	if err != nil {
		log.Fatalf("Failed to count files: %v", err)
	}
	fmt.Println("=== Seed Complete ===")
	fmt.Printf("Files in catalog: %d\n", total)
}

// seedTags creates the demo tree and returns the ids of the leaf tags.
func seedTags(ctx context.Context, tags *service.TagService) []string {
	var leaves []string
	for _, group := range tagTree {
		parent, err := tags.CreateTag(ctx, service.CreateTagRequest{Name: group.name, Color: group.color})
		if err != nil {
			log.Fatalf("Failed to create tag %s: %v", group.name, err)
		}
		for _, child := range group.children {
			t, err := tags.CreateTag(ctx, service.CreateTagRequest{ParentID: parent.ID, Name: child})
			if err != nil {
				log.Fatalf("Failed to create tag %s: %v", child, err)
			}
			leaves = append(leaves, t.ID)
		}
	}
	return leaves
}

func seedSearches(ctx context.Context, searches *service.SavedSearchService, leaves []string) {
	reqs := []service.SaveSearchRequest{
		{Name: "Untagged", Criteria: []domain.CriterionDTO{criterion("tags", "contains", []string{})}},
		{Name: "Large pictures", Criteria: []domain.CriterionDTO{criterion("size", "greaterThan", 5_000_000)}},
		{Name: "First tag", Criteria: []domain.CriterionDTO{criterion("tags", "contains", leaves[:1])}},
	}
	for _, req := range reqs {
		s, err := searches.CreateSearch(ctx, req)
		if err != nil {
			log.Printf("Failed to create search %q: %v", req.Name, err)
			continue
		}
		fmt.Printf("Created saved search %q (%s)\n", s.Name, s.ID)
	}
}

func criterion(key, op string, value any) domain.CriterionDTO {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Fatalf("Failed to encode criterion value: %v", err)
	}
	return domain.CriterionDTO{Key: key, Operator: op, Value: raw}
}
