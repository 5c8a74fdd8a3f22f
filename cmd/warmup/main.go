// Package main provides a CLI that pre-fills the course cache for the
// courses of the top-voted learning records.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garyellow/uonline/internal/config"
	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/logger"
	"github.com/garyellow/uonline/internal/mooc"
	"github.com/garyellow/uonline/internal/search"
	"github.com/garyellow/uonline/internal/sliceutil"
	"github.com/garyellow/uonline/internal/storage"
)

// CLI flags
var (
	recordsFlag   = flag.Int("records", 20, "Number of top-voted records to warm")
	languagesFlag = flag.String("languages", "zh", "Comma-separated list of languages to warm (zh,en)")
	workersFlag   = flag.Int("workers", 2, "Number of courses searched concurrently")
	dryRunFlag    = flag.Bool("dry-run", false, "List the courses that would be warmed without searching")
)

// target is one course to warm.
type target struct {
	Course string
	Major  string
	Lang   i18n.Language
}

// warmStats counts outcomes across workers.
type warmStats struct {
	searched int64
	cached   int64
	failed   int64
}

// courseSearcher is satisfied by *mooc.Service.
type courseSearcher interface {
	Search(ctx context.Context, course, major string, lang i18n.Language) (*mooc.Result, error)
}

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting warmup tool")

	ctx, cancel := context.WithTimeout(context.Background(), config.WarmupTotal)
	defer cancel()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	log.WithField("dialect", db.Dialect()).Info("Database connected")

	records, err := db.ListTopRecords(ctx, max(*recordsFlag, 0))
	if err != nil {
		log.WithError(err).Error("Failed to list records")
		os.Exit(1)
	}

	targets := collectTargets(records, parseLanguages(*languagesFlag))
	log.WithField("records", len(records)).
		WithField("targets", len(targets)).
		Info("Warmup targets collected")

	if len(targets) == 0 {
		fmt.Println("⏭️  No courses to warm, skipping")
		return
	}

	if *dryRunFlag {
		for _, t := range targets {
			fmt.Printf("%s\t%s\t%s\n", t.Lang, t.Major, t.Course)
		}
		return
	}

	searcher := search.NewClient(search.Config{
		APIKey:      cfg.BraveAPIKey,
		BaseURL:     cfg.BraveBaseURL,
		Timeout:     cfg.SearchTimeout,
		MaxRetries:  cfg.SearchMaxRetries,
		Interval:    cfg.SearchInterval,
		Concurrency: cfg.SearchConcurrency,
	})
	if !searcher.Configured() {
		_, _ = fmt.Fprintf(os.Stderr, "%s is required for warmup\n", config.EnvBraveAPIKey)
		os.Exit(1)
	}

	start := time.Now()
	stats := warm(ctx, mooc.NewService(searcher, db, nil), targets, *workersFlag, log)
	duration := time.Since(start)

	searched := atomic.LoadInt64(&stats.searched)
	cached := atomic.LoadInt64(&stats.cached)
	failed := atomic.LoadInt64(&stats.failed)

	if failed > 0 {
		log.WithField("duration", duration).Error("Warmup completed with errors")
		_, _ = fmt.Fprintf(os.Stderr, "\n❌ Warmup completed with errors: %d searched, %d already cached, %d failed\n",
			searched, cached, failed)
		_, _ = fmt.Fprintf(os.Stderr, "Total time: %v\n", duration.Round(time.Second))
		os.Exit(1)
	}

	log.WithField("duration", duration).Info("Warmup complete")
	fmt.Printf("\n✅ Warmup complete: %d searched, %d already cached\n", searched, cached)
	fmt.Printf("Total time: %v\n", duration.Round(time.Second))
}

func openDatabase(ctx context.Context, cfg *config.Config) (*storage.DB, error) {
	if cfg.UsesPostgres() {
		return storage.NewPostgres(ctx, cfg.DatabaseURL)
	}
	return storage.New(ctx, cfg.SQLitePath())
}

// parseLanguages parses a comma-separated language list, dropping
// duplicates after normalization.
func parseLanguages(s string) []i18n.Language {
	var langs []i18n.Language
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		langs = append(langs, i18n.Parse(part))
	}
	return sliceutil.Deduplicate(langs, func(l i18n.Language) i18n.Language { return l })
}

// collectTargets expands records into one target per course and language,
// keeping the first occurrence of each (course, major, language).
func collectTargets(records []storage.LearningPathRecord, langs []i18n.Language) []target {
	var targets []target
	for _, lang := range langs {
		for _, r := range records {
			for _, c := range r.Courses {
				name := strings.TrimSpace(c.Name)
				if name == "" {
					continue
				}
				targets = append(targets, target{Course: name, Major: strings.TrimSpace(r.Major), Lang: lang})
			}
		}
	}
	return sliceutil.Deduplicate(targets, func(t target) target { return t })
}

// warm searches every target with at most workers in flight. Failures are
// logged and counted; they do not stop the run.
func warm(ctx context.Context, s courseSearcher, targets []target, workers int, log *logger.Logger) *warmStats {
	stats := &warmStats{}

	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for _, t := range targets {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			result, err := s.Search(ctx, t.Course, t.Major, t.Lang)
			switch {
			case err != nil:
				atomic.AddInt64(&stats.failed, 1)
				log.WithError(err).
					WithField("course", t.Course).
					WithField("major", t.Major).
					Warn("Course warmup failed")
			case result.FromCache:
				atomic.AddInt64(&stats.cached, 1)
			default:
				atomic.AddInt64(&stats.searched, 1)
				log.WithField("course", t.Course).
					WithField("moocs", len(result.Courses)).
					WithField("textbooks", len(result.Textbooks)).
					Debug("Course warmed")
			}
			return nil
		})
	}
	_ = g.Wait()

	return stats
}
