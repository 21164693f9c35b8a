package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RunFleet/RunFleet/internal/config"
	"github.com/RunFleet/RunFleet/internal/history"
	"github.com/RunFleet/RunFleet/internal/httpclient"
	"github.com/RunFleet/RunFleet/internal/logger"
	"github.com/RunFleet/RunFleet/internal/metrics"
	"github.com/RunFleet/RunFleet/internal/report"
	"github.com/RunFleet/RunFleet/internal/schedule"
	"github.com/RunFleet/RunFleet/internal/server"
	"github.com/RunFleet/RunFleet/internal/shutdown"
	"github.com/RunFleet/RunFleet/pkg/runner"
)

var (
	version = "1.0.0"

	// Global flags
	verbose bool
	debug   bool

	// Run flags
	endpointsFile string
	sequential    bool
	workers       int
	rateLimit     float64
	outputFile    string
	outputFormat  string
	prettyOutput  bool
	insecure      bool

	// Serve flags
	port        int
	historyFile string

	// Schedule flags
	cronSpec string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "runfleet",
		Short: "RunFleet - HTTP Endpoint Batch Runner",
		Long: `RunFleet - A concurrent batch runner for HTTP endpoints.

Executes a configured list of HTTP endpoints in parallel or sequentially,
isolates per-endpoint failures, and produces an order-preserving aggregate
report of successes and failures.`,
		Version: version,
	}

	// Run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the configured endpoints once",
		Long:  "Execute the configured endpoint batch once and write the report.",
		RunE:  runBatch,
	}

	// Serve command
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  "Start the HTTP server exposing execute, metrics, history, and live outcome streaming.",
		RunE:  runServe,
	}

	// Schedule command
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Execute the configured endpoints on a cron schedule",
		Long:  "Run the endpoint batch repeatedly according to a cron expression until interrupted.",
		RunE:  runSchedule,
	}

	// Validate command
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the endpoint configuration",
		Long:  "Load and validate the endpoint descriptors without executing them.",
		RunE:  runValidate,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug mode")
	rootCmd.PersistentFlags().StringVarP(&endpointsFile, "endpoints-file", "f", "", "Endpoint descriptor file (YAML or JSON, default: ENDPOINTS env)")

	// Run flags
	runCmd.Flags().BoolVar(&sequential, "sequential", false, "Execute endpoints one at a time in input order")
	runCmd.Flags().IntVarP(&workers, "workers", "w", runner.DefaultMaxWorkers, "Maximum concurrent invocations")
	runCmd.Flags().Float64VarP(&rateLimit, "rate-limit", "r", 0, "Requests per second (0 disables)")
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	runCmd.Flags().StringVar(&outputFormat, "format", "json", "Report format (json, text)")
	runCmd.Flags().BoolVar(&prettyOutput, "pretty", false, "Indent JSON output")
	runCmd.Flags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")

	// Serve flags
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default: PORT env or 8080)")
	serveCmd.Flags().StringVar(&historyFile, "history-file", "", "Run history database file (default: HISTORY_FILE env)")

	// Schedule flags
	scheduleCmd.Flags().StringVar(&cronSpec, "cron", "", "Cron expression (e.g. \"*/5 * * * *\")")
	scheduleCmd.MarkFlagRequired("cron")
	scheduleCmd.Flags().BoolVar(&sequential, "sequential", false, "Execute endpoints one at a time in input order")
	scheduleCmd.Flags().IntVarP(&workers, "workers", "w", runner.DefaultMaxWorkers, "Maximum concurrent invocations")
	scheduleCmd.Flags().StringVar(&outputFormat, "format", "json", "Report format (json, text)")
	scheduleCmd.Flags().BoolVar(&prettyOutput, "pretty", false, "Indent JSON output")

	// Add commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(component string) *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Component = component
	if verbose {
		cfg.Level = logger.InfoLevel
	} else {
		cfg.Level = logger.WarnLevel
	}
	if debug {
		cfg.Level = logger.DebugLevel
	}
	return logger.New(cfg)
}

func buildPolicy(cmd *cobra.Command) runner.Policy {
	policy := runner.DefaultPolicy()
	if sequential {
		policy.Parallel = false
	}
	if cmd.Flags().Changed("workers") {
		policy.MaxWorkers = workers
	}
	return policy
}

func loadEndpoints() ([]runner.Endpoint, error) {
	return config.LoadEndpoints(endpointsFile)
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := newLogger("runner")

	endpoints, err := loadEndpoints()
	if err != nil {
		return fmt.Errorf("failed to load endpoints: %w", err)
	}

	opts := []runner.Option{runner.WithLogger(log)}
	if cmd.Flags().Changed("rate-limit") && rateLimit > 0 {
		opts = append(opts, runner.WithRateLimit(rateLimit, 1))
	}
	if insecure {
		clientCfg := httpclient.DefaultConfig()
		clientCfg.SkipTLSVerify = true
		opts = append(opts, runner.WithClientConfig(clientCfg))
	}

	r, err := runner.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	out := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to open output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	writer := report.NewWriter(out, report.Config{Format: outputFormat, Pretty: prettyOutput})
	defer writer.Close()

	rep := r.Execute(context.Background(), endpoints, buildPolicy(cmd), nil)
	if err := writer.WriteReport(rep); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if !rep.Success {
		os.Exit(1)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger("server")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if cmd.Flags().Changed("history-file") {
		cfg.HistoryFile = historyFile
	}

	handler := shutdown.NewDefault()

	var store *history.Store
	if cfg.HistoryFile != "" {
		store, err = history.Open(cfg.HistoryFile)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		handler.RegisterFunc("history", func() { store.Close() })
	}

	collector := metrics.New()
	hub := server.NewHub(log)
	handler.RegisterFunc("websocket", hub.Close)

	r, err := runner.New(
		runner.WithLogger(log.WithComponent("runner")),
		runner.WithMetrics(collector),
		runner.WithOutcomeCallback(hub.BroadcastOutcome),
	)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	srv := server.New(server.Options{
		Config:        cfg,
		Runner:        r,
		Metrics:       collector,
		History:       store,
		Logger:        log,
		Hub:           hub,
		EndpointsFile: endpointsFile,
	})

	errCh := make(chan error, 1)
	go func() {
		err := srv.Run(handler.Context())
		// Unblocks Wait when the listener dies on its own.
		handler.Trigger()
		errCh <- err
	}()

	handler.Wait()
	return <-errCh
}

func runSchedule(cmd *cobra.Command, args []string) error {
	log := newLogger("scheduler")

	if _, err := config.Load(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	r, err := runner.New(runner.WithLogger(log.WithComponent("runner")))
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	writer := report.NewWriter(os.Stdout, report.Config{Format: outputFormat, Pretty: prettyOutput})
	defer writer.Close()

	policy := buildPolicy(cmd)
	sched := schedule.New(log)
	err = sched.Add(cronSpec, func(ctx context.Context) {
		// Descriptors are re-read every tick so edits to the source take
		// effect without a restart.
		endpoints, err := loadEndpoints()
		if err != nil {
			log.Errorf("skipping run, failed to load endpoints: %v", err)
			return
		}
		rep := r.Execute(ctx, endpoints, policy, nil)
		if err := writer.WriteReport(rep); err != nil {
			log.Errorf("failed to write report: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	handler := shutdown.NewDefault()
	handler.RegisterFunc("scheduler", sched.Stop)

	log.Infof("scheduling runs with cron %q", cronSpec)
	sched.Start()
	handler.Wait()
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	endpoints, err := loadEndpoints()
	if err != nil {
		return fmt.Errorf("invalid endpoint configuration: %w", err)
	}

	fmt.Printf("Configuration valid: %d endpoint(s)\n", len(endpoints))
	for i, ep := range endpoints {
		fmt.Printf("  %d. [%s] %s (timeout %s)\n", i+1, ep.Method, ep.URL, ep.Timeout)
	}
	return nil
}
