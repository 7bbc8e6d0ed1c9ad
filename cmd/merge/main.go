// Command merge builds unified multi-year catalogs from a saved collaborator
// document or a live EDGAR fetch, and writes them as JSON and optionally XLSX.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"financial_catalog/pkg/core/config"
	"financial_catalog/pkg/core/export"
	"financial_catalog/pkg/core/ingest"
	"financial_catalog/pkg/core/logger"
	"financial_catalog/pkg/core/merge"
)

type output struct {
	Ticker     string                                        `json:"ticker"`
	Summary    *ingest.Summary                               `json:"summary,omitempty"`
	Statements map[merge.StatementType]*merge.UnifiedCatalog `json:"statements"`
}

func main() {
	in := flag.String("in", "", "collaborator JSON document to merge")
	ticker := flag.String("ticker", "", "fetch this ticker from EDGAR instead of reading -in")
	years := flag.Int("years", 5, "years of annual filings to fetch")
	out := flag.String("out", "-", "write merged catalogs as JSON here (- for stdout)")
	xlsx := flag.String("xlsx", "", "also write an XLSX workbook here")
	save := flag.String("save", "", "write the fetched collaborator document here")
	configPath := flag.String("config", config.DefaultPath, "path to the YAML configuration")
	flag.Parse()

	if (*in == "") == (*ticker == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -in or -ticker is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *in, *ticker, *years, *out, *xlsx, *save); err != nil {
		log.Error("merge failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger, in, ticker string, years int, out, xlsx, save string) error {
	var (
		set     *merge.FilingSet
		summary *ingest.Summary
	)
	if in != "" {
		f, err := os.Open(in)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", in, err)
		}
		defer f.Close()
		if set, err = merge.DecodeFilingSet(f); err != nil {
			return err
		}
	} else {
		fetcher, err := cfg.NewFetcher(log)
		if err != nil {
			return err
		}
		res, err := fetcher.Fetch(ctx, ticker, years)
		if err != nil {
			return err
		}
		set, summary = res.Set, &res.Summary
		if save != "" {
			if err := writeFile(save, func(w io.Writer) error { return merge.EncodeFilingSet(w, set) }); err != nil {
				return err
			}
		}
	}

	catalogs, err := merge.NewMerger(cfg.MergeOptions(), log).BuildAll(set)
	if err != nil {
		return err
	}

	doc := output{Ticker: set.Ticker, Summary: summary, Statements: catalogs}
	encode := func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	if out == "-" {
		if err := encode(os.Stdout); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else if err := writeFile(out, encode); err != nil {
		return err
	}

	if xlsx != "" {
		if err := writeFile(xlsx, func(w io.Writer) error { return export.WriteWorkbook(w, set.Ticker, catalogs) }); err != nil {
			return err
		}
		log.Info("workbook written", "path", xlsx)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
