package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"TradeCouncil/internal/config"
	"TradeCouncil/internal/logger"
	"TradeCouncil/internal/notifier"
	"TradeCouncil/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	var (
		cfgPath = flag.String("config", defaultCfg, "path to the YAML config file")
		daemon  = flag.Bool("daemon", false, "run scheduled watchlist analysis until interrupted")
		verify  = flag.String("verify", "", "cross-check a symbol's quote across providers and exit")
		history = flag.String("history", "", "list recorded runs for a ticker (use ALL for every ticker) and exit")
		asJSON  = flag.Bool("json", false, "print the analysis as JSON")
		notify  = flag.Bool("notify", false, "also send a one-shot analysis to Telegram")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] \"AAPL 1D breakout?\"\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	base, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.WithComponent(base, "main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, base)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.WithError(err).Warn("close resources")
		}
	}()

	switch {
	case *daemon:
		return runDaemon(ctx, a, cfg, base)
	case *verify != "":
		return runVerify(ctx, a, *verify, *asJSON)
	case *history != "":
		return runHistory(a, *history)
	}

	text := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if text == "" {
		flag.Usage()
		return errors.New("no ticker text given")
	}
	analysis, err := a.orch.AnalyzeText(ctx, text)
	if err != nil {
		return err
	}
	if err := a.recorder.RecordAnalysis(analysis); err != nil {
		log.WithError(err).Warn("record analysis")
	}
	if *notify {
		if err := a.notifier.SendWithRetry(ctx, notifier.FormatAnalysis(analysis), 3); err != nil {
			log.WithError(err).Warn("send analysis")
		}
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}
	fmt.Println(notifier.FormatAnalysis(analysis))
	return nil
}

func runDaemon(ctx context.Context, a *app, cfg *config.Config, base *logrus.Logger) error {
	log := logger.WithComponent(base, "main")
	if !cfg.Notifications() {
		log.Warn("telegram not configured, reports will only be logged and recorded")
	}

	sched := scheduler.NewScheduler(ctx, scheduler.Options{
		Analyzer: a.orch,
		Quota:    a.cache,
		Notifier: a.notifier,
		Recorder: a.recorder,
		Limits:   a.limits,
		Log:      logger.WithComponent(base, "scheduler"),
	})
	if err := sched.RegisterAll(cfg.Schedule.WatchlistCron, cfg.Schedule.QuotaCron, cfg.Schedule.Watchlist); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	sched.RunQuotaCheckNow()
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, analyzing watchlist now")
		go sched.RunWatchlist(cfg.Schedule.Watchlist)
	}

	log.WithField("watchlist", cfg.Schedule.Watchlist).Info("TradeCouncil is running, press Ctrl+C to stop")
	<-ctx.Done()
	log.Info("shutdown signal received, stopping")
	return nil
}

func runVerify(ctx context.Context, a *app, symbol string, asJSON bool) error {
	v := a.quotes.Verify(ctx, strings.ToUpper(symbol))
	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(v)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tPRICE\tCHANGE%")
	for _, q := range v.Quotes {
		fmt.Fprintf(w, "%s\t%.2f\t%+.2f\n", q.Source, q.Price, q.ChangePercent)
	}
	for _, f := range v.Failures {
		fmt.Fprintf(w, "%s\tfailed\t%v\n", f.Provider, f.Err)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("spread %.3f%%, reliable: %v\n", v.SpreadPercent, v.Reliable)
	return nil
}

func runHistory(a *app, ticker string) error {
	if strings.EqualFold(ticker, "all") {
		ticker = ""
	}
	runs, err := a.recorder.RecentRuns(strings.ToUpper(ticker), 20)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTICKER\tTF\tPRICE\tCALL\tCONF\tR/R\tDEBATE\tRISK")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%.0f\t%.2f\t%s\t%s\n",
			r.Timestamp.Format("2006-01-02 15:04"), r.Ticker, r.Timeframe, r.Price,
			r.Recommendation, r.Confidence, r.RiskReward, r.Winner, r.FinalDecision)
	}
	return w.Flush()
}
