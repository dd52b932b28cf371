package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	_ "github.com/KimMachineGun/automemlimit"
	"github.com/joho/godotenv"
	sloglogrus "github.com/samber/slog-logrus/v2"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	_ "go.uber.org/automaxprocs"

	"github.com/royalcat/geolabels/geojsonstream"
	"github.com/royalcat/geolabels/internal/config"
	"github.com/royalcat/geolabels/internal/debugserver"
	"github.com/royalcat/geolabels/internal/stats"
	"github.com/royalcat/geolabels/internal/telemetry"
	"github.com/royalcat/geolabels/labeler"
	"github.com/royalcat/geolabels/pipeline"
)

const appName = "geolabels"

func main() {
	_ = godotenv.Load(".env")

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:        appName,
		Usage:       "label points for GeoJSON polygons",
		Description: "Reads polygon features and writes one label point per polygon as a GeoJSON FeatureCollection",
		ArgsUsage:   "[file|-]",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:    "precision",
				Aliases: []string{"p"},
				Value:   labeler.ConfigDefault().Precision,
				Usage:   "polylabel precision, in input coordinate units",
			},
			&cli.BoolFlag{
				Name:    "include-area",
				Aliases: []string{"a"},
				Usage:   "add the polygon area in square meters as " + labeler.AreaProperty,
			},
			&cli.StringFlag{
				Name:    "label",
				Aliases: []string{"l"},
				Value:   string(labeler.AlgorithmPolylabel),
				Usage:   "labeling algorithm: polylabel, centroid or center-of-mass",
			},
			&cli.BoolFlag{
				Name:    "by-feature",
				Aliases: []string{"f"},
				Usage:   "label only the largest polygon of each feature",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
			},
			&cli.IntFlag{
				Name:    "digits",
				Aliases: []string{"d"},
				Value:   labeler.ConfigDefault().Digits,
				Usage:   "decimals of output coordinates, negative keeps full precision",
			},
			&cli.IntFlag{
				Name:        "threads",
				Aliases:     []string{"t"},
				DefaultText: "max",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "show input progress on stderr",
			},
			&cli.StringFlag{
				Name:      "config",
				Aliases:   []string{"c"},
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:      "log-file",
				TakesFile: true,
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "log memory and cpu usage summary",
			},
			&cli.StringFlag{
				Name:        "pprof.listen",
				DefaultText: "",
			},
			&cli.BoolFlag{
				Name:        "pprof.profile",
				DefaultText: "",
			},
			&cli.BoolFlag{
				Name:        "pprof.heap",
				DefaultText: "",
			},
		},
		Action: func(ctx *cli.Context) error {
			return label(ctx, stdout)
		},
	}
}

// loadConfig layers explicitly set flags over the config file.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(ctx.String("config"))
	if err != nil {
		return nil, err
	}

	if ctx.IsSet("precision") {
		cfg.Labeler.Precision = ctx.Float64("precision")
	}
	if ctx.IsSet("include-area") {
		cfg.Labeler.IncludeArea = ctx.Bool("include-area")
	}
	if ctx.IsSet("label") {
		cfg.Labeler.Algorithm = ctx.String("label")
	}
	if ctx.IsSet("by-feature") {
		cfg.Labeler.ByFeature = ctx.Bool("by-feature")
	}
	if ctx.IsSet("digits") {
		cfg.Labeler.Digits = ctx.Int("digits")
	}
	if ctx.IsSet("threads") {
		cfg.Threads = ctx.Int("threads")
	}
	if ctx.IsSet("progress") {
		cfg.Progress = ctx.Bool("progress")
	}
	if ctx.Bool("verbose") {
		cfg.Logging.Debug = true
	}
	if ctx.IsSet("log-file") {
		cfg.Logging.Filename = ctx.String("log-file")
	}
	if ctx.IsSet("stats") {
		cfg.Debug.Stats = ctx.Bool("stats")
	}
	if ctx.IsSet("pprof.listen") {
		cfg.Debug.Listen = ctx.String("pprof.listen")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func label(ctx *cli.Context, stdout io.Writer) error {
	if ctx.NArg() > 1 {
		return fmt.Errorf("expected at most one input file, got %d", ctx.NArg())
	}
	input := ctx.Args().First()
	if input == "" {
		input = geojsonstream.StdinName
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	logger := cfg.Logging.CreateLogger(logrus.StandardLogger(), true)

	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := telemetry.Setup(runCtx, appName, logger)
	if err != nil {
		logger.WithError(err).Warn("telemetry disabled")
		slog.SetDefault(slog.New(sloglogrus.Option{Level: slog.LevelDebug, Logger: logger}.NewLogrusHandler()))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Shutdown(shutdownCtx)
		}()
	}

	log := slog.Default().With("threads", cfg.ThreadCount())

	if cfg.Debug.Listen != "" {
		go func() {
			if err := debugserver.Run(runCtx, cfg.Debug.Listen); err != nil {
				log.Error("Error starting debug server", "error", err)
			}
		}()
	}

	if ctx.Bool("pprof.profile") {
		f, err := os.OpenFile("profile.cpu.pprof", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("error creating pprof file: %w", err)
		}
		defer f.Close()
		err = pprof.StartCPUProfile(f)
		if err != nil {
			return fmt.Errorf("error starting pprof: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	if cfg.Debug.Stats {
		stopStats, err := stats.Run(runCtx, log, time.Second)
		if err != nil {
			return fmt.Errorf("error starting stats collector: %w", err)
		}
		defer stopStats()
	}

	l, err := labeler.New(cfg.Labeler, labeler.WithLogger(log))
	if err != nil {
		return err
	}
	p, err := pipeline.New(l, cfg.ThreadCount(), log)
	if err != nil {
		return err
	}

	in, err := geojsonstream.Open(input, cfg.Progress)
	if err != nil {
		return err
	}
	defer in.Close()

	log.InfoContext(runCtx, "labeling started",
		"input", input,
		"algorithm", cfg.Labeler.Algorithm,
		"precision", cfg.Labeler.Precision,
	)

	result, err := p.Run(runCtx, in, stdout)
	log.InfoContext(runCtx, "labeling finished", "result", result)
	if err != nil {
		return fmt.Errorf("error labeling %s: %w", input, err)
	}

	if ctx.Bool("pprof.heap") {
		if err := writeHeapProfile("profile"); err != nil {
			return fmt.Errorf("error writing heap profile: %w", err)
		}
	}

	return nil
}

func writeHeapProfile(name string) error {
	f, err := os.Create(name + ".heap.prof")
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}
