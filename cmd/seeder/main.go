package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"horoscope-hub/internal/adapters/generator"
	"horoscope-hub/internal/adapters/repo"
	"horoscope-hub/internal/domain"
	"horoscope-hub/internal/infra/config"
	"horoscope-hub/internal/infra/db"
	applog "horoscope-hub/internal/infra/log"
)

type options struct {
	before  int
	after   int
	publish bool
	date    string
}

// seedStore: часть хранилища, которая нужна сидеру.
type seedStore interface {
	InsertIfAbsent(ctx context.Context, h domain.Horoscope) (bool, error)
	DateSummary(ctx context.Context, from, to string) ([]domain.DateCount, error)
}

type report struct {
	Inserted int
	Skipped  int
	Summary  []domain.DateCount
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "seeder",
		Short: "Fill the content store with generated horoscopes",
		Long: `Generates horoscopes for all twelve signs over a window of days around
the anchor date and inserts them without overwriting existing records.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().IntVar(&opts.before, "days-before", 2, "Days before the anchor date")
	cmd.Flags().IntVar(&opts.after, "days-after", 2, "Days after the anchor date")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Insert records as published")
	cmd.Flags().StringVar(&opts.date, "date", "", "Anchor date YYYY-MM-DD (default: today in CONTENT_TZ)")
	return cmd
}

func run(parent context.Context, out io.Writer, opts options) error {
	cfg := config.Load()
	log := applog.NewLogger(cfg.AppEnv).With().Str("component", "seeder").Logger()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PG.DSN, cfg.PG.MaxConns)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	anchor := opts.date
	if anchor == "" {
		anchor = domain.DateIn(time.Now(), cfg.Location())
	}
	rep, err := seed(ctx, repo.NewPostgres(pool), generator.NewRuleBased(), anchor, opts, time.Now, log)
	if err != nil {
		return err
	}
	printReport(out, rep)
	return nil
}

// seed генерирует записи окна дат и вставляет отсутствующие.
func seed(ctx context.Context, store seedStore, gen domain.Generator, anchor string, opts options, now func() time.Time, log zerolog.Logger) (report, error) {
	day, err := domain.ParseDate(anchor)
	if err != nil {
		return report{}, err
	}
	if opts.before < 0 || opts.after < 0 {
		return report{}, domain.NewValidationError("days", "day window must not be negative")
	}

	var rep report
	from := day.AddDate(0, 0, -opts.before)
	to := day.AddDate(0, 0, opts.after)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		date := d.Format(domain.DateLayout)
		for _, sign := range domain.Signs {
			h, err := gen.Generate(sign, date)
			if err != nil {
				return rep, fmt.Errorf("generate %s %s: %w", sign, date, err)
			}
			inserted, err := store.InsertIfAbsent(ctx, generator.Dummy(h, opts.publish, now()))
			if err != nil {
				return rep, fmt.Errorf("insert %s %s: %w", sign, date, err)
			}
			if inserted {
				rep.Inserted++
			} else {
				rep.Skipped++
			}
		}
		log.Debug().Str("date", date).Msg("date seeded")
	}

	rep.Summary, err = store.DateSummary(ctx, from.Format(domain.DateLayout), to.Format(domain.DateLayout))
	if err != nil {
		return rep, fmt.Errorf("date summary: %w", err)
	}
	log.Info().Int("inserted", rep.Inserted).Int("skipped", rep.Skipped).Msg("seeding finished")
	return rep, nil
}

func printReport(out io.Writer, rep report) {
	fmt.Fprintf(out, "Inserted: %d, skipped existing: %d\n", rep.Inserted, rep.Skipped)
	for _, c := range rep.Summary {
		fmt.Fprintf(out, "%s: %d horoscopes (%d published)\n", c.Date, c.Count, c.Published)
	}
}
