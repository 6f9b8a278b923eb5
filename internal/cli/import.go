package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrlokans/pubshelf/internal/config"
	"github.com/mrlokans/pubshelf/internal/database"
	"github.com/mrlokans/pubshelf/internal/database/publications"
	"github.com/mrlokans/pubshelf/internal/services"
)

// ImportCommand stores unpacked publications in the local database.
type ImportCommand struct {
	Dir          string
	DatabasePath string
	All          bool
	Verbose      bool
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.Dir, "dir", "", "Unpacked publication directory containing manifest.json (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.BoolVar(&cmd.All, "all", false, "Treat -dir as a library and import every subdirectory with a manifest")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -dir <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import unpacked publications into the local database.\n\n")
		fmt.Fprintf(os.Stderr, "Re-importing a publication with the same identifier replaces it.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Import a single publication:\n")
		fmt.Fprintf(os.Stderr, "  %s import -dir ./library/moby-dick\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Import a whole library:\n")
		fmt.Fprintf(os.Stderr, "  %s import -dir ./library -all -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Dir == "" {
		return fmt.Errorf("required flag -dir not provided")
	}
	return nil
}

func (cmd *ImportCommand) Run() error {
	fmt.Println("Publication Import")
	fmt.Println("==================")

	dirs, err := cmd.publicationDirs()
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		fmt.Println("No publications found")
		return nil
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	cmd.DatabasePath = absDBPath

	fmt.Printf("Saving to database: %s\n", cmd.DatabasePath)

	db, err := database.NewQuietDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	importer := services.NewImportService(publications.NewRepository(db.DB), nil, nil)
	ctx := context.Background()

	var imported, replaced int
	var importErrors []string

	for _, dir := range dirs {
		result, err := importer.ImportDir(ctx, dir)
		if err != nil {
			importErrors = append(importErrors, fmt.Sprintf("%s: %v", dir, err))
			if cmd.Verbose {
				fmt.Printf("  [ERROR] %s: %v\n", dir, err)
			}
			continue
		}

		imported++
		if result.Replaced {
			replaced++
		}
		if cmd.Verbose {
			fmt.Printf("  [OK] #%d %q from %s\n", result.Publication.ID, result.Publication.Title, dir)
		}
	}

	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("Publications saved: %d/%d\n", imported, len(dirs))
	fmt.Printf("Replaced existing: %d\n", replaced)

	if len(importErrors) > 0 {
		fmt.Printf("\n%d errors occurred:\n", len(importErrors))
		for _, errMsg := range importErrors {
			fmt.Printf("  [ERROR] %s\n", errMsg)
		}
		return fmt.Errorf("%d of %d publications failed to import", len(importErrors), len(dirs))
	}
	return nil
}

// publicationDirs lists the directories to import, stored as absolute paths.
func (cmd *ImportCommand) publicationDirs() ([]string, error) {
	root, err := filepath.Abs(cmd.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", cmd.Dir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("publication directory not found: %s", cmd.Dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", cmd.Dir)
	}

	if !cmd.All {
		return []string{root}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, services.ManifestFilename)); err == nil {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}
