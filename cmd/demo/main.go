// Package main runs the reserve-requirement-cut walkthrough against a local
// market database: fit the windows, print the index, industry and stock
// effects, then the best holding period for one stock.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/aristath/eventscope/internal/config"
	"github.com/aristath/eventscope/internal/di"
	"github.com/aristath/eventscope/internal/domain"
	"github.com/aristath/eventscope/internal/modules/analysis"
	"github.com/aristath/eventscope/pkg/logger"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

type options struct {
	configPath string
	event      string
	dates      []string
	industry   string
	stock      string
	limit      int
	detail     bool
}

func main() {
	var opts options
	flag.StringVarP(&opts.configPath, "config", "c", "", "optional config file")
	flag.StringVar(&opts.event, "event", "降准", "event keyword used for the attention series")
	flag.StringSliceVar(&opts.dates, "dates", analysis.DefaultEventDates(), "event dates, YYYY-MM-DD")
	flag.StringVar(&opts.industry, "industry", "银行III", "industry for the stock effect (empty = top industry)")
	flag.StringVar(&opts.stock, "stock", "600036.XSHG", "stock code for the holding period search")
	flag.IntVar(&opts.limit, "limit", 5, "rows kept in ranked tables (0 = all)")
	flag.BoolVar(&opts.detail, "detail", false, "print every evaluated holding period")
	flag.Parse()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr})

	if err := run(context.Background(), cfg, opts, os.Stdout, log); err != nil {
		log.Fatal().Err(err).Msg("Demo failed")
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, out io.Writer, log zerolog.Logger) error {
	container, err := di.Wire(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to wire dependencies: %w", err)
	}
	defer container.Close()

	svc := container.AnalysisService

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	fit, err := svc.Fit(ctx, opts.dates, opts.event)
	if err != nil {
		return err
	}
	printWindows(out, fit)

	index, err := svc.IndexEffect(ctx)
	if err != nil {
		return err
	}
	printTable(out, "Index effect", index)

	industries, err := svc.IndustryEffect(ctx, false, opts.limit)
	if err != nil {
		return err
	}
	printTable(out, "Industry effect (excess over "+svc.Benchmark()+")", industries)

	stocks, err := svc.StockEffect(ctx, opts.industry, false, opts.limit)
	if err != nil {
		return err
	}
	printTable(out, "Stock effect "+opts.industry, stocks)

	result, err := svc.StockAnalysis(ctx, opts.stock, cfg.Analysis.MaxBefore, cfg.Analysis.MaxAfter, opts.detail)
	if err != nil {
		return err
	}
	printAnalysis(out, result)

	return nil
}

func printWindows(out io.Writer, fit *analysis.FitResult) {
	fmt.Fprintf(out, "Influenced windows for %s (fit %s)\n", fit.Event, fit.FitID)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "event\tstart\tend\tdays")
	for _, w := range fit.Windows.Windows() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", w.Event, w.Start, w.End, w.Days())
	}
	tw.Flush()
	fmt.Fprintln(out)
}

func printTable(out io.Writer, title string, table *domain.EffectTable) {
	fmt.Fprintln(out, title)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\treturn\tup_prob\tevents\tvolume\t\n", table.GroupField)
	for _, r := range table.Rows {
		fmt.Fprintf(tw, "%s\t%.4f%%\t%.2f\t%d\t%.0f\t\n", r.Entity, r.Return*100, r.UpProb, r.Events, r.Volume)
	}
	tw.Flush()
	fmt.Fprintln(out)
}

func printAnalysis(out io.Writer, a *analysis.StockAnalysis) {
	fmt.Fprintf(out, "Holding period for %s", a.Code)
	if a.Industry != "" {
		fmt.Fprintf(out, " (%s)", a.Industry)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "buy %d days before, sell %d days after: %.4f%% (industry %.4f%%), %d periods evaluated\n",
		a.BestBefore, a.BestAfter, a.BestStockReturn*100, a.PairedIndustryReturn*100, a.Evaluated)

	if len(a.Grid) == 0 {
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "before\tafter\treturn\tevents\tind_return\tind_events\t")
	for _, c := range a.Grid {
		fmt.Fprintf(tw, "%d\t%d\t%.4f%%\t%d\t%.4f%%\t%d\t\n",
			c.Before, c.After, c.StockReturn*100, c.StockEvents, c.IndustryReturn*100, c.IndustryEvents)
	}
	tw.Flush()
}
