package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"dbpf-mlod-renderer/internal/dbpf"
	"dbpf-mlod-renderer/internal/obj"
	"dbpf-mlod-renderer/internal/postprocess"
	"dbpf-mlod-renderer/internal/raster"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config holds the settings shared by every file of a batch run.
type Config struct {
	OutputDir      string
	WriteOBJ       bool
	Preview        postprocess.Format // empty disables previews
	PreviewSize    int
	Supersample    int
	FillRatio      float64
	View           mgl64.Mat3 // zero value means the default three-quarter view
	Workers        int
	DecoderWorkers int
	SkipBroken     bool
	Strict         bool
	Log            *logrus.Entry
}

func (c *Config) logger() *logrus.Entry {
	if c.Log != nil {
		return c.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// Result holds the outcome of processing one package file.
type Result struct {
	File      string
	Success   bool
	Error     string
	Skipped   []string // resources left out under SkipBroken
	Resources []ResourceResult
}

// ResourceResult describes one exported MLOD resource. Paths are relative
// to the output directory.
type ResourceResult struct {
	Instance  uint64
	Meshes    int
	Vertices  int
	Triangles int
	OBJ       string
	Preview   string
}

// Run processes all files using a worker pool. Results keep the order of
// files.
func Run(cfg Config, files []string) []Result {
	total := len(files)
	results := make([]Result, total)
	var processed atomic.Int64
	log := cfg.logger()

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					log.WithFields(logrus.Fields{
						"done":  p,
						"total": total,
						"rate":  fmt.Sprintf("%.1f/s", float64(p)/elapsed),
					}).Info("progress")
				}
			}
		}
	}()

	fileChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range fileChan {
				results[idx] = processFile(cfg, files[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range files {
		fileChan <- i
	}
	close(fileChan)

	wg.Wait()
	close(done)

	return results
}

func processFile(cfg Config, path string) Result {
	log := cfg.logger().WithField("file", filepath.Base(path))
	fail := func(err error) Result {
		log.WithError(err).Error("export failed")
		return Result{File: path, Error: err.Error()}
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}

	dec := dbpf.Decoder{Workers: cfg.DecoderWorkers, SkipBroken: cfg.SkipBroken, Strict: cfg.Strict, Log: log}
	resources, err := dec.Decode(buf)
	var skipped dbpf.ResourceErrors
	if err != nil && !errors.As(err, &skipped) {
		return fail(err)
	}

	res := Result{File: path, Success: true}
	for _, s := range skipped {
		res.Skipped = append(res.Skipped, s.Error())
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, r := range resources {
		rr, err := exportResource(cfg, stem, r)
		if err != nil {
			return fail(errors.Wrapf(err, "instance %016x", r.Entry.Instance()))
		}
		res.Resources = append(res.Resources, rr)
	}

	log.WithFields(logrus.Fields{
		"resources": len(res.Resources),
		"skipped":   len(res.Skipped),
	}).Debug("exported package")
	return res
}

func exportResource(cfg Config, stem string, r dbpf.MeshResource) (ResourceResult, error) {
	rr := ResourceResult{
		Instance: r.Entry.Instance(),
		Meshes:   len(r.Meshes),
	}
	for _, m := range r.Meshes {
		rr.Vertices += len(m.Geometry.Vertices)
		rr.Triangles += m.Geometry.TriangleCount()
	}

	name := fmt.Sprintf("%s_%016x", stem, rr.Instance)

	if cfg.WriteOBJ {
		rr.OBJ = name + ".obj"
		err := writeFile(filepath.Join(cfg.OutputDir, rr.OBJ), func(f *os.File) error {
			return obj.WriteResource(f, r)
		})
		if err != nil {
			return ResourceResult{}, err
		}
	}

	if cfg.Preview != "" {
		rr.Preview = name + cfg.Preview.Ext()
		img := raster.Render(r, raster.Options{
			Size:        cfg.PreviewSize,
			Supersample: cfg.Supersample,
			View:        cfg.View,
		})
		if cfg.Supersample > 1 {
			img = postprocess.Downsample(img, cfg.PreviewSize)
		}
		img = postprocess.CropAndCenter(img, cfg.PreviewSize, cfg.FillRatio)

		err := writeFile(filepath.Join(cfg.OutputDir, rr.Preview), func(f *os.File) error {
			return postprocess.Encode(f, img, cfg.Preview)
		})
		if err != nil {
			return ResourceResult{}, err
		}
	}

	return rr, nil
}

func writeFile(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
