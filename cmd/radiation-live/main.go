package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/survey-007/iran-radiation-live/internal/config"
	"github.com/survey-007/iran-radiation-live/internal/kml"
	"github.com/survey-007/iran-radiation-live/internal/metrics"
	"github.com/survey-007/iran-radiation-live/internal/pipeline"
	"github.com/survey-007/iran-radiation-live/internal/sink"
	"github.com/survey-007/iran-radiation-live/internal/source"
	"github.com/survey-007/iran-radiation-live/internal/store"
)

// Version is set at build time via -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	var (
		cfgPath  = flag.String("config", "", "path to YAML config (built-in regions when empty)")
		output   = flag.String("output", "", "override output.path")
		interval = flag.Duration("interval", 0, "repeat every interval; 0 runs a single cycle")
		verbose  = flag.Bool("verbose", false, "enable verbose logging")
	)
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg := config.Default()
	if strings.TrimSpace(*cfgPath) != "" {
		c, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = c
	}
	cfg.ApplyEnv()
	if *output != "" {
		cfg.Output.Path = *output
	}
	if *verbose {
		log.Printf("radiation-live %s: %d region(s), output=%s", Version, len(cfg.Regions), cfg.Output.Path)
	}

	src, err := source.NewFromConfig(cfg.API, log.Default())
	if err != nil {
		log.Fatalf("build source: %v", err)
	}

	sinks := []sink.Sink{sink.NewKMLFile(cfg.Output.Path)}
	if strings.TrimSpace(cfg.Archive.Path) != "" {
		a, err := sink.NewArchive(cfg.Archive.Path)
		if err != nil {
			log.Fatalf("open archive: %v", err)
		}
		defer a.Close()
		sinks = append(sinks, a)
		if *verbose {
			log.Printf("archive enabled: %s", cfg.Archive.Path)
		}
	}

	p := &pipeline.Pipeline{
		Regions:    cfg.Regions,
		Source:     src,
		Builder:    kml.Builder{Name: cfg.Output.DocumentName},
		Sinks:      sinks,
		OutputPath: cfg.Output.Path,
		Log:        log.Default(),
		Verbose:    *verbose,
	}
	if cfg.Dedup.Enable {
		p.Dedup = store.NewDedup(cfg.Dedup.MaxKeys, cfg.Dedup.TTL)
		if *verbose {
			log.Printf("dedup enabled: max=%d ttl=%s", cfg.Dedup.MaxKeys, cfg.Dedup.TTL)
		}
	}
	if cfg.Metrics.Enable {
		p.Metrics = metrics.New()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runOnce := func() {
		start := time.Now()
		sum, err := p.Run(ctx)
		if err != nil {
			log.Printf("run: %v", err)
		}
		if p.Metrics != nil {
			if cfg.Metrics.Textfile != "" {
				if err := p.Metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
					log.Println(err)
				}
			}
			if *verbose {
				log.Printf("metrics snapshot:\n%s", p.Metrics.Dump())
			}
		}
		if *verbose {
			log.Printf("cycle finished in %s, total points=%d", time.Since(start).Truncate(time.Millisecond), sum.Total)
		}
	}

	runOnce()
	if *interval <= 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
