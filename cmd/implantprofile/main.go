package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"implantprofile/internal/logging"
	"implantprofile/pkg/batch"
	"implantprofile/pkg/channel"
	"implantprofile/pkg/config"
	"implantprofile/pkg/mask"
	"implantprofile/pkg/visualization"
)

const defaultConfigPath = "implantprofile.yaml"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags]\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  mask         rasterize a drawn outline into a mask file")
	fmt.Fprintln(os.Stderr, "  analyze      profile every image set under a directory")
	fmt.Fprintln(os.Stderr, "  init-config  write a default configuration file")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "mask":
		err = runMask(os.Args[2:])
	case "analyze":
		err = runAnalyze(os.Args[2:])
	case "init-config":
		err = runInitConfig(os.Args[2:])
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runInitConfig(args []string) error {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Configuration file to create")
	force := fs.Bool("force", false, "Overwrite an existing file")
	fs.Parse(args)

	if _, err := os.Stat(*configPath); err == nil && !*force {
		return fmt.Errorf("%s already exists, use -force to overwrite", *configPath)
	}
	if err := config.CreateDefaultConfigFile(*configPath); err != nil {
		return err
	}
	fmt.Printf("Default configuration written to %s\n", *configPath)
	return nil
}

func runMask(args []string) error {
	fs := flag.NewFlagSet("mask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Configuration file")
	imagePath := fs.String("image", "", "Channel image the outline was drawn on")
	outlinePath := fs.String("outline", "", "Outline file with the hole and exclusion polygons")
	imageID := fs.String("id", "", "Image set id (default: name of the image directory)")
	preview := fs.Bool("preview", true, "Write a preview PNG next to the mask")
	fs.Parse(args)

	if *imagePath == "" || *outlinePath == "" {
		fs.Usage()
		return errors.New("-image and -outline are required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if !isSet(fs, "preview") {
		*preview = cfg.Output.Previews
	}
	log := logging.Component(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Console), "mask")

	img, err := channel.Load(*imagePath)
	if err != nil {
		return err
	}
	outline, err := mask.LoadOutline(*outlinePath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(*imagePath)
	id := *imageID
	if id == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		id = filepath.Base(abs)
	}

	var render func(string, *mask.Mask) error
	if *preview {
		render = func(path string, m *mask.Mask) error {
			return visualization.SavePNG(path, mask.RenderPreview(m))
		}
	}

	files, err := mask.Commit(dir, id, outline, img.Width, img.Height, render)
	if err != nil {
		if errors.Is(err, mask.ErrNoHole) {
			return fmt.Errorf("%w: draw the implant hole before saving", err)
		}
		return err
	}

	log.Info().
		Str("image_id", id).
		Int("width", img.Width).
		Int("height", img.Height).
		Int("exclusions", len(outline.Exclusions)).
		Str("mask", files.Mask).
		Msg("mask saved")
	return nil
}

func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Configuration file")
	root := fs.String("root", "", "Directory searched for mask files")
	channels := fs.String("channels", "", "Comma separated channel identifiers, e.g. DAPI,GFP")
	normalization := fs.String("normalization", "", "Comma separated normalization constants, one per channel")
	conversion := fs.Float64("conversion", 0, "Pixel size in microns")
	binWidth := fs.Int("bin", 0, "Coarse bin width in microns")
	upper := fs.Int("upper", 0, "Upper distance limit in microns")
	step := fs.Int("step", 0, "Fine bin width in microns")
	workers := fs.Int("workers", 0, "Number of image sets processed concurrently")
	method := fs.String("method", "", "Distance transform backend: edt, kdtree or opencv")
	plots := fs.Bool("plots", true, "Write an intensity plot per image set")
	outDir := fs.String("out", "", "Directory for the report (default: root)")
	fs.Parse(args)

	if *root == "" {
		fs.Usage()
		return errors.New("-root is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	// Flags given on the command line win over the file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "channels":
			cfg.Analysis.Channels = config.SplitList(*channels)
		case "normalization":
			cfg.Analysis.Normalization = config.SplitList(*normalization)
		case "conversion":
			cfg.Analysis.ConversionFactor = *conversion
		case "bin":
			cfg.Analysis.BinWidth = *binWidth
		case "upper":
			cfg.Analysis.UpperLimit = *upper
		case "step":
			cfg.Analysis.StepSize = *step
		case "workers":
			cfg.Processing.NumWorkers = *workers
		case "method":
			cfg.Processing.DistanceMethod = *method
		case "plots":
			cfg.Output.Plots = *plots
		case "out":
			cfg.Output.Dir = *outDir
		}
	})

	if err := cfg.Validate(); err != nil {
		return err
	}
	offsets, err := cfg.Offsets()
	if err != nil {
		return err
	}

	log := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Console)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	params := &batch.Params{
		Root:           *root,
		Channels:       cfg.Analysis.Channels,
		Offsets:        offsets,
		Profile:        cfg.ProfileParams(),
		Extensions:     cfg.Processing.Extensions,
		Workers:        cfg.Processing.NumWorkers,
		DistanceMethod: cfg.Processing.DistanceMethod,
		Plots:          cfg.Output.Plots,
		OutputDir:      cfg.Output.Dir,
		Logger:         &log,
		Progress: func(completed, total int, imageID string) {
			fmt.Printf("[%d/%d] %s\n", completed, total, imageID)
		},
	}

	start := time.Now()
	result, err := batch.NewProcessor(params).Run(ctx)
	if err != nil {
		return err
	}

	printSummary(log, result, time.Since(start))
	return nil
}

func printSummary(log zerolog.Logger, result *batch.Result, elapsed time.Duration) {
	fmt.Println("================================")
	fmt.Printf("Processed %d image sets in %.2f seconds\n", len(result.Images), elapsed.Seconds())
	if info, err := os.Stat(result.ReportPath); err == nil {
		fmt.Printf("Report saved to: %s (%s)\n", result.ReportPath, humanize.Bytes(uint64(info.Size())))
	} else {
		log.Warn().Err(err).Msg("report not found after writing")
	}

	if len(result.Drops) > 0 {
		fmt.Printf("\nThe following %d image sets were excluded from the analysis:\n", len(result.Drops))
		for _, d := range result.Drops {
			fmt.Printf("- %s (%s): %v\n", d.ImageID, d.Kind(), d.Reason)
		}
	}
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
