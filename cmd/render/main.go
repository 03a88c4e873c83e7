package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dbpf-mlod-renderer/internal/batch"
	"dbpf-mlod-renderer/internal/config"
	"dbpf-mlod-renderer/internal/mathutil"
	"dbpf-mlod-renderer/internal/postprocess"

	"github.com/sirupsen/logrus"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	inputDir := flag.String("input", "", "Directory holding package files (default: .)")
	pattern := flag.String("pattern", "", "File name glob (default: *.package)")
	outputDir := flag.String("output", "", "Output directory (default: <input>/export)")
	format := flag.String("format", "", "Preview format: webp, tga or none (default: webp)")
	size := flag.Int("size", 0, "Preview edge length in pixels (default: 256)")
	workers := flag.Int("workers", 0, "Number of package files decoded at once (default: NumCPU)")
	noOBJ := flag.Bool("no-obj", false, "Skip OBJ export")
	skipBroken := flag.Bool("skip-broken", false, "Leave out resources that fail to decode instead of failing the file")
	strict := flag.Bool("strict", false, "Treat indices past the vertex buffer as a decode error")
	testN := flag.Int("test", 0, "Process only the first N files")
	verbose := flag.Bool("v", false, "Debug logging")

	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.WithError(err).Fatal("loading config")
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		InputDir:      *inputDir,
		OutputDir:     *outputDir,
		Pattern:       *pattern,
		PreviewFormat: *format,
		PreviewSize:   *size,
		Workers:       *workers,
		NoOBJ:         *noOBJ,
		SkipBroken:    *skipBroken,
		Strict:        *strict,
	})

	var preview postprocess.Format
	if cfg.Previews() {
		var err error
		preview, err = postprocess.ParseFormat(cfg.PreviewFormat)
		if err != nil {
			log.WithError(err).Fatal("bad preview format")
		}
	}

	files, err := batch.FindPackages(cfg.InputDir, cfg.Pattern)
	if err != nil {
		log.WithError(err).Fatal("finding packages")
	}
	if *testN > 0 && *testN < len(files) {
		files = files[:*testN]
	}
	if len(files) == 0 {
		fmt.Println("No package files found.")
		os.Exit(0)
	}

	// Print summary
	fmt.Printf("DBPF mesh export: OBJ %v, preview %q\n", *cfg.WriteOBJ, string(preview))
	fmt.Printf("Files: %d, Workers: %d\n", len(files), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	results := batch.Run(batch.Config{
		OutputDir:      cfg.OutputDir,
		WriteOBJ:       *cfg.WriteOBJ,
		Preview:        preview,
		PreviewSize:    cfg.PreviewSize,
		Supersample:    cfg.Supersample,
		FillRatio:      cfg.FillRatio,
		View:           mathutil.ViewFromAngles(cfg.Yaw, cfg.Pitch),
		Workers:        cfg.Workers,
		DecoderWorkers: cfg.DecoderWorkers,
		SkipBroken:     cfg.SkipBroken,
		Strict:         cfg.Strict,
		Log:            logrus.NewEntry(log),
	}, files)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	var failed []batch.Result
	resources, skipped := 0, 0
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
			continue
		}
		resources += len(r.Resources)
		skipped += len(r.Skipped)
	}

	fmt.Printf("Packages: %d/%d, mesh resources: %d, skipped: %d\n",
		len(results)-len(failed), len(results), resources, skipped)

	if len(failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failed))
		for _, r := range failed[:min(len(failed), 20)] {
			fmt.Printf("  %s: %s\n", filepath.Base(r.File), r.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.WithError(err).Warn("creating output directory")
	}
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		log.WithError(err).Warn("manifest write failed")
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if len(failed) > 0 {
		os.Exit(1)
	}
}
