// Command dbinspect prints a read-only inventory of a Badger catalog:
// records and index entries per kind, and files referencing missing tags.
//
// Usage:
//
//	DATA_PATH=~/TagCatalog go run ./cmd/dbinspect
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/tagcatalog/internal/domain"
)

const indexNamespace = "idx:"

type kindStats struct {
	records int
	indexes map[string]int
}

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/TagCatalog")
	}
	dbPath := filepath.Join(dataPath, "db")

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	stats := map[string]*kindStats{}
	tagIDs := map[string]bool{}
	var files []domain.File

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())

			kind, rest, ok := strings.Cut(key, ":")
			if !ok {
				fmt.Printf("Unexpected key: %q\n", key)
				continue
			}
			st := stats[kind]
			if st == nil {
				st = &kindStats{indexes: map[string]int{}}
				stats[kind] = st
			}

			if idx, ok := strings.CutPrefix(rest, indexNamespace); ok {
				name, _, _ := strings.Cut(idx, ":")
				st.indexes[name]++
				continue
			}
			st.records++

			switch kind {
			case "tag":
				tagIDs[rest] = true
			case "file":
				err := item.Value(func(val []byte) error {
					var f domain.File
					if err := json.Unmarshal(val, &f); err != nil {
						return err
					}
					files = append(files, f)
					return nil
				})
				if err != nil {
					log.Printf("Error reading file %s: %v", rest, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	fmt.Println("=== Database Inspection ===")
	fmt.Printf("Path: %s\n\n", dbPath)

	kinds := make([]string, 0, len(stats))
	for k := range stats {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	for _, k := range kinds {
		st := stats[k]
		fmt.Printf("%s: %d records\n", k, st.records)
		names := make([]string, 0, len(st.indexes))
		for n := range st.indexes {
			names = append(names, n)
		}
		slices.Sort(names)
		for _, n := range names {
			fmt.Printf("  idx %-20s %d entries\n", n, st.indexes[n])
		}
	}

	untagged, dangling := 0, 0
	for _, f := range files {
		if len(f.Tags) == 0 {
			untagged++
		}
		for _, t := range f.Tags {
			if !tagIDs[t] {
				dangling++
				if dangling <= 5 {
					fmt.Printf("File %s references missing tag %s\n", f.ID, t)
				}
			}
		}
	}

	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Printf("Files: %d (untagged: %d)\n", len(files), untagged)
	fmt.Printf("Tags: %d\n", len(tagIDs))
	fmt.Printf("Dangling tag references: %d\n", dangling)
	if dangling > 0 {
		os.Exit(1)
	}
}
