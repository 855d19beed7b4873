package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/evanofslack/zone-update/acme"
	"github.com/evanofslack/zone-update/async"
	"github.com/evanofslack/zone-update/internal/config"
	"github.com/evanofslack/zone-update/internal/dnscheck"
	"github.com/evanofslack/zone-update/internal/logger"
	"github.com/evanofslack/zone-update/internal/metrics"
	"github.com/evanofslack/zone-update/internal/reconcile"
	"github.com/evanofslack/zone-update/internal/rest"
	"github.com/evanofslack/zone-update/internal/source"
	"github.com/evanofslack/zone-update/internal/source/remote"
	"github.com/evanofslack/zone-update/internal/state"
	"github.com/evanofslack/zone-update/provider"
	_ "github.com/evanofslack/zone-update/provider/all"
)

var (
	configPath = flag.StringP("config", "c", "config.yaml", "path to config file (.yaml, .toml or .json)")
	dryRun     = flag.Bool("dry-run", false, "log mutating calls instead of sending them")
	debug      = flag.Bool("debug", false, "enable debug output")
	once       = flag.Bool("once", false, "sync: run a single pass and exit")
	wait       = flag.Duration("wait", 0, "check: keep polling for up to this long")
	help       = flag.BoolP("help", "h", false, "Print help message")
)

const usage = `usage: zone-update [flags] <command> [args]

commands:
  get <type> <host>                 print a record value
  create <type> <host> <value>      create a record
  update <type> <host> <value>      update a record
  delete <type> <host>              delete a record
  txt get|set|delete <host> [text]  manage a TXT record, quoting handled
  a get|set|delete <host> [ipv4]    manage an A record
  acme present|cleanup <domain> <keyAuth>
                                    answer a DNS-01 challenge
  check <type> <host> <value>       ask the configured nameserver for a value
  sync                              converge the zone to the configured records
  providers                         list available providers

flags:
`

func main() {
	flag.Parse()
	if *help || flag.NArg() == 0 {
		fmt.Fprint(os.Stderr, usage+flag.CommandLine.FlagUsages())
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if *debug {
		cfg.Log.Level = "debug"
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Env)

	if err := run(cfg, flag.Args()); err != nil {
		slog.Error("Command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, args []string) error {
	cmd, args := args[0], args[1:]
	if cmd == "providers" {
		fmt.Println(strings.Join(provider.Names(), "\n"))
		return nil
	}
	if cmd == "sync" {
		return runService(cfg)
	}
	if cmd == "check" {
		return runCheck(cfg, args)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dp, err := newProvider(cfg, nil)
	if err != nil {
		return err
	}
	client := provider.NewClient(dp)

	switch cmd {
	case "get":
		if err := nargs(args, 2); err != nil {
			return err
		}
		rtype, err := provider.ParseRecordType(args[0])
		if err != nil {
			return err
		}
		return printValue(dp.GetRecord(ctx, rtype, args[1]))
	case "create", "update":
		if err := nargs(args, 3); err != nil {
			return err
		}
		rtype, err := provider.ParseRecordType(args[0])
		if err != nil {
			return err
		}
		if cmd == "create" {
			return dp.CreateRecord(ctx, rtype, args[1], args[2])
		}
		return dp.UpdateRecord(ctx, rtype, args[1], args[2])
	case "delete":
		if err := nargs(args, 2); err != nil {
			return err
		}
		rtype, err := provider.ParseRecordType(args[0])
		if err != nil {
			return err
		}
		return dp.DeleteRecord(ctx, rtype, args[1])
	case "txt":
		return runTXT(ctx, client, args)
	case "a":
		return runA(ctx, client, args)
	case "acme":
		return runACME(cfg, dp, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func nargs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("expected %d arguments, got %d", n, len(args))
	}
	return nil
}

func printValue(r *provider.Record, err error) error {
	if err != nil {
		return err
	}
	if r == nil {
		return provider.ErrRecordNotFound
	}
	fmt.Println(r.Value)
	return nil
}

func runTXT(ctx context.Context, c provider.Client, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: txt get|set|delete <host> [text]")
	}
	op, host := args[0], args[1]
	switch op {
	case "get":
		v, err := c.GetTXTRecord(ctx, host)
		if err != nil {
			return err
		}
		if v == nil {
			return provider.ErrRecordNotFound
		}
		fmt.Println(*v)
		return nil
	case "set":
		if err := nargs(args, 3); err != nil {
			return err
		}
		existing, err := c.GetTXTRecord(ctx, host)
		if err != nil {
			return err
		}
		if existing == nil {
			return c.CreateTXTRecord(ctx, host, args[2])
		}
		return c.UpdateTXTRecord(ctx, host, args[2])
	case "delete":
		return c.DeleteTXTRecord(ctx, host)
	}
	return fmt.Errorf("unknown txt operation %q", op)
}

func runA(ctx context.Context, c provider.Client, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: a get|set|delete <host> [ipv4]")
	}
	op, host := args[0], args[1]
	switch op {
	case "get":
		v, err := c.GetARecord(ctx, host)
		if err != nil {
			return err
		}
		if v == nil {
			return provider.ErrRecordNotFound
		}
		fmt.Println(v.String())
		return nil
	case "set":
		if err := nargs(args, 3); err != nil {
			return err
		}
		addr, err := netip.ParseAddr(args[2])
		if err != nil {
			return fmt.Errorf("%w: %w", provider.ErrAddrParse, err)
		}
		existing, err := c.GetARecord(ctx, host)
		if err != nil {
			return err
		}
		if existing == nil {
			return c.CreateARecord(ctx, host, addr)
		}
		return c.UpdateARecord(ctx, host, addr)
	case "delete":
		return c.DeleteARecord(ctx, host)
	}
	return fmt.Errorf("unknown a operation %q", op)
}

func runACME(cfg *config.Config, dp provider.Provider, args []string) error {
	if err := nargs(args, 3); err != nil {
		return err
	}
	p := acme.New(dp, cfg.Domain)
	switch args[0] {
	case "present":
		return p.Present(args[1], "", args[2])
	case "cleanup":
		return p.CleanUp(args[1], "", args[2])
	}
	return fmt.Errorf("unknown acme operation %q", args[0])
}

func runCheck(cfg *config.Config, args []string) error {
	if err := nargs(args, 3); err != nil {
		return err
	}
	if cfg.Check.Nameserver == "" {
		return errors.New("check.nameserver is not configured")
	}
	rtype, err := provider.ParseRecordType(args[0])
	if err != nil {
		return err
	}
	name := provider.FQDN(args[1], cfg.Domain)
	checker := dnscheck.New(cfg.Check.Nameserver, cfg.Check.Timeout.Std())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *wait > 0 {
		ctx, cancel = context.WithTimeout(ctx, *wait)
		defer cancel()
		if err := checker.Wait(ctx, rtype, name, args[2], time.Second); err != nil {
			return err
		}
		slog.Info("Record propagated", "name", name, "type", rtype)
		return nil
	}
	ok, err := checker.Propagated(ctx, rtype, name, args[2])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %s", dnscheck.ErrNotPropagated, rtype, name)
	}
	slog.Info("Record propagated", "name", name, "type", rtype)
	return nil
}

func newProvider(cfg *config.Config, m *metrics.Metrics) (provider.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dp, err := provider.New(cfg.Provider.Name, cfg.ProviderConfig(), cfg.Provider.Settings)
	if err != nil {
		return nil, fmt.Errorf("initialize %s provider: %w", cfg.Provider.Name, err)
	}
	return metrics.Wrap(dp, cfg.Domain, m), nil
}

func newSource(cfg *config.Config, m *metrics.Metrics) source.Source {
	static := make(source.Static, 0, len(cfg.Records))
	for _, r := range cfg.Records {
		static = append(static, source.Record{Host: r.Host, Type: r.Type, Value: r.Value})
	}
	if cfg.Source.URL == "" {
		return static
	}
	var auth rest.Authenticator
	if cfg.Source.Token != "" {
		auth = rest.Bearer{Token: cfg.Source.Token}
	}
	return source.Merge{static, remote.New(cfg.Source.URL, auth, m)}
}

func runService(cfg *config.Config) error {
	// Initialize metrics
	metrics := metrics.New(true)

	dp, err := newProvider(cfg, metrics)
	if err != nil {
		return err
	}

	stateManager, err := state.New(cfg.StatePath, metrics)
	if err != nil {
		return fmt.Errorf("initialize state manager: %w", err)
	}
	defer stateManager.Close()

	pool := async.NewPool(cfg.Async.Workers, cfg.Async.Queue)
	defer pool.Close()
	offloader := metricsOffloader(pool, metrics)

	engine := reconcile.NewEngine(stateManager, async.New(dp, offloader), reconcile.Options{
		Domain:    cfg.Domain,
		Owner:     cfg.Owner,
		DryRun:    cfg.DryRun,
		Protected: cfg.Protected,
	}, metrics)
	src := newSource(cfg, metrics)

	if *once {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return performSync(ctx, src, engine, metrics)
	}

	// Set up HTTP server for metrics and health checks
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Starting metrics server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server failed", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.Info("Starting zone-update service", "provider", cfg.Provider.Name, "domain", cfg.Domain, "dry_run", cfg.DryRun)

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go runSyncLoop(ctx, wg, src, engine, metrics, cfg.SyncInterval.Std())

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("Shutdown signal received")
	cancel()

	serverShutdownCtx, cancelServer := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelServer()
	if err := server.Shutdown(serverShutdownCtx); err != nil {
		slog.Error("Metrics server shutdown error", "error", err)
	}

	// Wait for sync loop to finish
	wg.Wait()
	slog.Info("Service shutdown complete")
	return nil
}

func metricsOffloader(o async.Offloader, m *metrics.Metrics) async.Offloader {
	return metrics.CountJobs(o, m)
}

func runSyncLoop(ctx context.Context, wg *sync.WaitGroup, src source.Source, engine reconcile.Engine, metrics *metrics.Metrics, interval time.Duration) {
	defer wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := performSync(ctx, src, engine, metrics); err != nil {
			slog.Error("Sync operation failed", "error", err)
		}

		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			slog.Info("Stopping sync loop")
			return
		}
	}
}

func performSync(ctx context.Context, src source.Source, engine reconcile.Engine, metrics *metrics.Metrics) error {
	slog.Info("Starting sync operation")
	start := time.Now()
	defer func() {
		metrics.SetSyncDuration(time.Since(start))
	}()

	records, err := src.Records(ctx)
	if err != nil {
		metrics.IncSyncRun(false)
		return err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Host < records[j].Host })

	slog.Info("Reconciling records", "count", len(records))
	results, err := engine.Reconcile(ctx, records)
	if err != nil {
		metrics.IncSyncRun(false)
		return err
	}

	slog.Info("Sync completed",
		"run", results.RunID,
		"created", len(results.Created),
		"updated", len(results.Updated),
		"deleted", len(results.Deleted),
		"skipped", len(results.Skipped),
		"failed", len(results.Failures))
	metrics.IncSyncRun(len(results.Failures) == 0)

	return nil
}
