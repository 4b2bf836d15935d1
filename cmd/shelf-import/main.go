// Package main is the entry point for the shelf-import CLI tool.
//
// shelf-import reads a YAML manifest of books and loads them into a shelf
// data directory. It is the bulk-loading companion to the shelf server:
// seed a fresh catalog from an exported list, or merge additions into an
// existing one. Books whose title already exists in the catalog are skipped.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/finoptiv/shelf/internal/storage"
	"github.com/finoptiv/shelf/internal/storage/library"
)

// manifest is the YAML document shelf-import consumes.
type manifest struct {
	Books []manifestBook `yaml:"books"`
}

type manifestBook struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Genre  string `yaml:"genre"`
	Pages  int    `yaml:"pages"`
	Status string `yaml:"status"`
}

// validateManifest checks every row against the catalog's own rules before
// anything is written, so a bad row cannot leave a partial import.
func validateManifest(m *manifest) error {
	for i, b := range m.Books {
		if b.Title == "" {
			return fmt.Errorf("books[%d]: title is required", i)
		}
		if b.Author == "" {
			return fmt.Errorf("books[%d] (%q): author is required", i, b.Title)
		}
		if b.Genre == "" {
			return fmt.Errorf("books[%d] (%q): genre is required", i, b.Title)
		}
		if b.Pages <= 0 {
			return fmt.Errorf("books[%d] (%q): pages must be positive", i, b.Title)
		}
		if b.Status != "" {
			if err := library.Status(b.Status).Validate(); err != nil {
				return fmt.Errorf("books[%d] (%q): %w", i, b.Title, err)
			}
		}
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "shelf-import: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	manifestPath := flag.String("manifest", "", "Path to YAML manifest of books (required)")
	dataDir := flag.String("data-dir", "./data", "Shelf data directory")
	dryRun := flag.Bool("dry-run", false, "Show what would be imported without importing")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *manifestPath == "" {
		return errors.New("--manifest is required")
	}

	raw, err := os.ReadFile(*manifestPath) //nolint:gosec // G304: path comes from the -manifest flag
	if err != nil {
		return err
	}
	var m manifest
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(m.Books) == 0 {
		return errors.New("manifest contains no books")
	}

	if err := validateManifest(&m); err != nil {
		return err
	}

	if *dryRun {
		fmt.Printf("Would import %d books into %s:\n", len(m.Books), *dataDir)
		for _, b := range m.Books {
			status := b.Status
			if status == "" {
				status = string(library.StatusNotStarted)
			}
			fmt.Printf("  %-40s %s (%s)\n", b.Title, b.Author, status)
		}
		return nil
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	serverCfg, err := storage.LoadServerConfig(*dataDir)
	if err != nil {
		return fmt.Errorf("failed to load server_config.json: %w", err)
	}
	books, err := library.NewBookService(filepath.Join(*dataDir, "library.csv"), serverCfg.Quotas.MaxBooks)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}

	imported := 0
	skipped := 0
	for _, b := range m.Books {
		_, err := books.Add(b.Title, b.Author, b.Genre, b.Pages, library.Status(b.Status))
		switch {
		case errors.Is(err, library.ErrDuplicateTitle):
			fmt.Printf("skip %q: already in catalog\n", b.Title)
			skipped++
		case err != nil:
			return fmt.Errorf("failed to import %q: %w", b.Title, err)
		default:
			imported++
		}
	}

	fmt.Printf("\nImported %d books (%d skipped), catalog now has %d\n", imported, skipped, books.Count())
	return nil
}
