package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"somsegment/internal/app"
	"somsegment/internal/logger"
	"somsegment/internal/models"
	"somsegment/pkg/config"
	"somsegment/pkg/imageio"
	"somsegment/pkg/segmentation"
	"somsegment/pkg/visualization"
)

// job is one image to segment
type job struct {
	input   string
	output  string
	umatrix string
}

// report is the outcome of a finished job
type report struct {
	job      job
	clusters int
	metrics  segmentation.Metrics
}

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line arguments
	configPath := flag.String("config", "somsegment.yaml", "YAML configuration file (defaults are used if it does not exist)")
	writeConfig := flag.Bool("write-config", false, "Write the effective configuration to -config and exit")
	input := flag.String("input", "", "Image to segment (more images may follow as arguments)")
	output := flag.String("output", "", "Output file for a single input image")
	outputDir := flag.String("output-dir", "segmented", "Output directory used when several images are given")
	rows := flag.Int("rows", 0, "SOM grid rows (n)")
	cols := flag.Int("cols", 0, "SOM grid columns (m)")
	sigma := flag.Float64("sigma", 0, "Initial neighborhood radius")
	learningRate := flag.Float64("lr", 0, "Initial learning rate")
	iterations := flag.Int("iterations", 0, "Number of training iterations")
	seed := flag.Uint64("seed", 0, "SOM seed")
	paletteSeed := flag.Uint64("palette-seed", 0, "Palette seed (0 picks new colors every run)")
	initMethod := flag.String("init", "", "Weight initialization: random or pca")
	order := flag.String("order", "", "Sample order: sequential or random")
	constantBands := flag.String("constant-bands", "", "Zero-variance bands: error or zero")
	workers := flag.Int("workers", 0, "Number of images segmented at once")
	umatrix := flag.Bool("umatrix", false, "Also save the U-matrix of each trained map")
	verbose := flag.Bool("verbose", false, "Log training progress")
	jsonLogs := flag.Bool("json-logs", false, "Log JSON lines instead of console output")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	// Explicit flags override the configuration file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rows":
			cfg.SOM.Rows = *rows
		case "cols":
			cfg.SOM.Cols = *cols
		case "sigma":
			cfg.SOM.Sigma = *sigma
		case "lr":
			cfg.SOM.LearningRate = *learningRate
		case "iterations":
			cfg.SOM.Iterations = *iterations
		case "seed":
			cfg.SOM.Seed = *seed
		case "init":
			cfg.SOM.Init = *initMethod
		case "order":
			cfg.SOM.Order = *order
		case "palette-seed":
			cfg.Palette.Seed = *paletteSeed
		case "constant-bands":
			cfg.Features.ConstantBands = *constantBands
		case "workers":
			cfg.Processing.Workers = *workers
		case "verbose":
			cfg.Output.Verbose = *verbose
		case "json-logs":
			cfg.Output.JSONLogs = *jsonLogs
		}
	})

	var log zerolog.Logger
	if cfg.Output.JSONLogs {
		log = logger.New(os.Stderr, cfg.Output.Verbose)
	} else {
		log = logger.NewConsole(cfg.Output.Verbose)
	}
	log = logger.Component(log, "cli")

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 2
	}

	if *writeConfig {
		if err := config.SaveConfig(cfg, *configPath); err != nil {
			log.Error().Err(err).Msg("failed to write configuration")
			return 1
		}
		fmt.Printf("Configuration written to %s\n", *configPath)
		return 0
	}

	inputs := flag.Args()
	if *input != "" {
		inputs = append([]string{*input}, inputs...)
	}
	if len(inputs) == 0 {
		flag.Usage()
		return 1
	}

	jobs, err := planJobs(inputs, *output, *outputDir, *umatrix)
	if err != nil {
		log.Error().Err(err).Msg("invalid output settings")
		return 2
	}

	params, err := cfg.SegmentationParams(log)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 2
	}

	fmt.Println("================================")
	fmt.Println("IMAGE SEGMENTATION WITH A KOHONEN SELF-ORGANIZING MAP")
	fmt.Printf("Grid %dx%d, sigma %.2f, learning rate %.2f, %d iterations\n",
		cfg.SOM.Rows, cfg.SOM.Cols, cfg.SOM.Sigma, cfg.SOM.LearningRate, cfg.SOM.Iterations)
	fmt.Println("================================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	startTime := time.Now()
	reports, err := segmentAll(ctx, jobs, params, cfg, log)
	processingTime := time.Since(startTime)

	for _, r := range reports {
		fmt.Printf("\n%s -> %s\n", r.job.input, r.job.output)
		fmt.Printf("  Clusters: %d\n", r.clusters)
		fmt.Printf("  Quantization error: %.4f\n", r.metrics.QuantizationError)
		fmt.Printf("  Topographic error: %.4f\n", r.metrics.TopographicError)
		fmt.Printf("  Training time: %.2f seconds\n", r.metrics.TrainingTime.Seconds())
		if r.job.umatrix != "" {
			fmt.Printf("  U-matrix: %s\n", r.job.umatrix)
		}
	}

	if err != nil {
		log.Error().Err(err).Msg("segmentation failed")
		if errors.Is(err, models.ErrConfiguration) {
			return 2
		}
		return 1
	}

	fmt.Printf("\nSegmented %d image(s) in %.2f seconds using %d worker(s)\n",
		len(reports), processingTime.Seconds(), cfg.Processing.Workers)
	return 0
}

// planJobs derives output paths. A single input may name its output explicitly;
// otherwise results go to outputDir as <name>_segmented<ext>.
func planJobs(inputs []string, output, outputDir string, umatrix bool) ([]job, error) {
	if output != "" && len(inputs) > 1 {
		return nil, &models.ConfigError{Param: "output", Value: output, Reason: "cannot be used with several input images"}
	}
	if output != "" && !imageio.Supported(output) {
		return nil, &models.ConfigError{Param: "output", Value: output, Reason: "has an unsupported extension"}
	}

	jobs := make([]job, 0, len(inputs))
	for _, in := range inputs {
		j := job{input: in, output: output}
		if j.output == "" {
			ext := filepath.Ext(in)
			if !imageio.Supported(in) {
				ext = ".png"
			}
			name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
			j.output = filepath.Join(outputDir, name+"_segmented"+ext)
		}
		if umatrix {
			j.umatrix = strings.TrimSuffix(j.output, filepath.Ext(j.output)) + "_umatrix.png"
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// segmentAll runs every job on its own session, at most cfg.Processing.Workers at once
func segmentAll(ctx context.Context, jobs []job, params segmentation.Params, cfg *config.Config, log zerolog.Logger) ([]report, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Processing.Workers)

	var mu sync.Mutex
	reports := make([]report, 0, len(jobs))

	for _, j := range jobs {
		g.Go(func() error {
			jobLog := log.With().Str("input", j.input).Logger()
			state := app.NewState(params, cfg.Output.PreviewHeight, jobLog)
			state.OnStatus = func(msg string) {
				if msg != "" {
					jobLog.Info().Msg(msg)
				}
			}

			if err := state.Open(j.input); err != nil {
				return fmt.Errorf("%s: %w", j.input, err)
			}
			if err := state.Segment(ctx, cfg.SOM.Rows, cfg.SOM.Cols); err != nil {
				return fmt.Errorf("%s: %w", j.input, err)
			}

			if dir := filepath.Dir(j.output); dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return &models.IOError{Op: "create directory", Path: dir, Err: err}
				}
			}
			if err := state.Save(j.output); err != nil {
				return fmt.Errorf("%s: %w", j.input, err)
			}

			res := state.Result()
			if j.umatrix != "" {
				viewer, err := visualization.NewUMatrixViewer(res.UMatrix, cfg.Output.UMatrixScale)
				if err != nil {
					return fmt.Errorf("%s: %w", j.input, err)
				}
				if err := viewer.Save(j.umatrix); err != nil {
					return &models.IOError{Op: "save U-matrix", Path: j.umatrix, Err: err}
				}
			}

			mu.Lock()
			reports = append(reports, report{job: j, clusters: res.Clusters, metrics: res.Metrics})
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	return reports, err
}
