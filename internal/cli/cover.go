package cli

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mrlokans/pubshelf/internal/config"
	"github.com/mrlokans/pubshelf/internal/covers"
	"github.com/mrlokans/pubshelf/internal/imaging"
	"github.com/mrlokans/pubshelf/internal/library"
	"github.com/mrlokans/pubshelf/internal/logging"
	"github.com/mrlokans/pubshelf/internal/publication"
	"github.com/mrlokans/pubshelf/internal/resources"
	"github.com/mrlokans/pubshelf/internal/services"
	"github.com/mrlokans/pubshelf/internal/utils"
)

// CoverCommand extracts the cover of an unpacked publication into an image file.
type CoverCommand struct {
	Dir          string
	ManifestPath string
	OutputPath   string
	Width        int
	Height       int
	Format       string
	OpenLibrary  bool
	Timeout      time.Duration
	Verbose      bool

	logger *slog.Logger
}

func NewCoverCommand() *CoverCommand {
	return &CoverCommand{}
}

func (cmd *CoverCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("cover", flag.ExitOnError)

	fs.StringVar(&cmd.Dir, "dir", "", "Unpacked publication directory (required)")
	fs.StringVar(&cmd.ManifestPath, "manifest", "", "Manifest file (default: <dir>/manifest.json)")
	fs.StringVar(&cmd.OutputPath, "out", "", "Output file (default: <title>.<format> in the current directory)")
	fs.IntVar(&cmd.Width, "width", 0, "Maximum cover width in pixels")
	fs.IntVar(&cmd.Height, "height", 0, "Maximum cover height in pixels")
	fs.StringVar(&cmd.Format, "format", "", "Output format: jpeg or png (default: from -out extension, else jpeg)")
	fs.BoolVar(&cmd.OpenLibrary, "openlibrary", false, "Look the cover up on Open Library by ISBN when the manifest declares none")
	fs.DurationVar(&cmd.Timeout, "timeout", time.Minute, "Give up after this long")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Log every cover candidate that was tried")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s cover -dir <publication dir> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Write the cover of a publication to an image file.\n\n")
		fmt.Fprintf(os.Stderr, "The cover is the first resource with the \"cover\" relation that decodes as an\n")
		fmt.Fprintf(os.Stderr, "image, searched in links, then reading order, then resources.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s cover -dir ./library/moby-dick -out moby.jpg\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s cover -dir ./library/moby-dick -width 200 -height 300 -format png\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Dir == "" {
		return fmt.Errorf("required flag -dir not provided")
	}
	if (cmd.Width > 0) != (cmd.Height > 0) {
		return fmt.Errorf("-width and -height must be given together")
	}
	return nil
}

func (cmd *CoverCommand) Run() error {
	format, err := cmd.outputFormat()
	if err != nil {
		return err
	}

	manifestPath := cmd.ManifestPath
	if manifestPath == "" {
		manifestPath = filepath.Join(cmd.Dir, services.ManifestFilename)
	}
	f, err := os.Open(manifestPath)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	manifest, err := publication.ParseManifest(f)
	f.Close()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	pub, err := cmd.open(manifest)
	if err != nil {
		return err
	}
	defer pub.Close()

	size := publication.Size{Width: cmd.Width, Height: cmd.Height}
	var (
		cover image.Image
		ok    bool
	)
	if size.Valid() {
		cover, ok = pub.CoverFitting(ctx, size)
	} else {
		cover, ok = pub.Cover(ctx)
	}
	if !ok {
		return fmt.Errorf("%s: %w", cmd.Dir, publication.ErrNoCover)
	}

	outputPath := cmd.OutputPath
	if outputPath == "" {
		outputPath = utils.SanitizeFilename(manifest.Metadata.Title.String()) + "." + format.Extension()
	}
	if err := writeImage(outputPath, cover, format); err != nil {
		return err
	}

	fmt.Printf("Wrote %dx%d cover to %s\n", cover.Bounds().Dx(), cover.Bounds().Dy(), outputPath)
	return nil
}

func (cmd *CoverCommand) outputFormat() (imaging.Format, error) {
	switch {
	case cmd.Format != "":
		return imaging.ParseFormat(cmd.Format)
	case cmd.OutputPath != "":
		return imaging.ParseFormat(filepath.Ext(cmd.OutputPath))
	default:
		return imaging.FormatJPEG, nil
	}
}

func (cmd *CoverCommand) open(manifest publication.Manifest) (*publication.Publication, error) {
	level := "warn"
	if cmd.Verbose {
		level = "debug"
	}
	if cmd.logger == nil {
		cmd.logger = logging.New(level, "text")
	}

	remote, err := resources.NewHTTPFetcher("", cmd.Timeout, config.DefaultMaxResourceSize)
	if err != nil {
		return nil, err
	}

	opts := library.Options{
		Remote:          remote,
		Images:          imaging.NewProvider(90),
		Logger:          cmd.logger,
		MaxResourceSize: config.DefaultMaxResourceSize,
	}
	if cmd.OpenLibrary {
		opts.CoverFactory = covers.NewOpenLibraryClient("", time.Second).Factory(false)
	}
	return library.Build(manifest, cmd.Dir, opts), nil
}

func writeImage(path string, img image.Image, format imaging.Format) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := imaging.NewProvider(90).Encode(out, img, format); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}
