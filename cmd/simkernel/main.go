// Command simkernel is a reference embedder for the actor runtime: it
// loads a declarative simulation config, builds a registry and chunk
// handler from it, spawns a handful of demo actors, and drives the
// scheduler turn by turn.
//
// Logging follows the same discipline the rest of this module uses: a
// single base logger is constructed here and passed down by dependency
// injection, never accessed through a package global. The base handler
// is a logging.ComponentFilterHandler, so every component-scoped logger
// handed to the chunk handler and to the CLI itself shares
// one adjustable set of per-component levels (see the --debug-component
// flag below).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/citybound/citybound-sub001/internal/actor"
	"github.com/citybound/citybound-sub001/internal/chunk"
	"github.com/citybound/citybound-sub001/internal/config"
	"github.com/citybound/citybound-sub001/internal/config/file"
	"github.com/citybound/citybound-sub001/internal/logging"
	"github.com/citybound/citybound-sub001/internal/scheduler"

	"github.com/citybound/citybound-sub001/cmd/simkernel/demo"
)

func main() {
	// The text handler is kept permissive (Debug) so the component
	// filter, not the handler underneath it, is the real gate on what
	// gets printed.
	base := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	filter := logging.NewComponentFilterHandler(base, slog.LevelInfo)
	logger := slog.New(filter)

	rootCmd := &cobra.Command{
		Use:   "simkernel",
		Short: "Reference embedder for the actor runtime substrate",
	}
	rootCmd.PersistentFlags().String("config", "simkernel.json", "path to the run's config file")
	rootCmd.PersistentFlags().String("debug-component", "", "enable debug logging for a single component (e.g. chunk-handler, cmd)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if component, _ := cmd.Flags().GetString("debug-component"); component != "" {
			filter.SetLevel(component, slog.LevelDebug)
		}
		return nil
	}

	rootCmd.AddCommand(
		newInitCmd(logger),
		newRunCmd(logger),
		newInspectCmd(logger),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withFatalRecover returns a function to defer at the top of a command's
// body. It recovers a fatal panic raised by chunk.Fatalf or actor.Fatalf,
// logs it as a single diagnostic through the component-scoped logger, and
// re-raises so the process still terminates with a non-zero exit status.
func withFatalRecover(logger *slog.Logger) func() {
	return func() {
		if r := recover(); r != nil {
			logger.Error("fatal error, terminating", "panic", r)
			panic(r)
		}
	}
}

func configPath(cmd *cobra.Command) string {
	p, _ := cmd.Flags().GetString("config")
	return p
}

func newInitCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a bootstrap config file for a new run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := logger.With("component", "cmd")
			defer withFatalRecover(cmdLogger)()

			store := file.NewStore(configPath(cmd))
			cfg, err := config.Bootstrap(cmd.Context(), store)
			if err != nil {
				return fmt.Errorf("bootstrap config: %w", err)
			}
			cmdLogger.Info("wrote bootstrap config", "path", configPath(cmd), "run_id", cfg.RunID)
			return nil
		},
	}
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation for a number of turns",
		RunE: func(cmd *cobra.Command, args []string) error {
			turns, _ := cmd.Flags().GetInt("turns")
			spawn, _ := cmd.Flags().GetInt("spawn")
			limit, _ := cmd.Flags().GetUint64("limit")

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			return runSimulation(ctx, logger, configPath(cmd), turns, spawn, limit)
		},
	}
	cmd.Flags().Int("turns", 10, "number of scheduler turns to run")
	cmd.Flags().Int("spawn", 3, "number of demo ticker actors to spawn")
	cmd.Flags().Uint64("limit", 5, "tick count at which a ticker dies (0 = never)")
	return cmd
}

func runSimulation(ctx context.Context, logger *slog.Logger, path string, turns, spawnCount int, limit uint64) error {
	cmdLogger := logger.With("component", "cmd")
	defer withFatalRecover(cmdLogger)()

	store := file.NewStore(path)
	cfg, err := config.Bootstrap(ctx, store)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cmdLogger.Info("loaded config", "run_id", cfg.RunID, "backend", cfg.Storage.Backend)

	handler, err := config.OpenHandler(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open chunk handler: %w", err)
	}

	reg := actor.NewRegistry(handler)
	defer reg.Close()
	world := reg.NewWorld()

	tt, err := demo.RegisterType(reg, actor.TypeOptions{})
	if err != nil {
		return fmt.Errorf("register ticker type: %w", err)
	}

	for i := 0; i < spawnCount; i++ {
		id, err := actor.Spawn(tt, &demo.Ticker{Limit: limit})
		if err != nil {
			return fmt.Errorf("spawn ticker %d: %w", i, err)
		}
		actor.Send(world, id, demo.SlotTick, demo.TickCodec, demo.TickMsg{})
	}

	for turn := 0; turn < turns; turn++ {
		select {
		case <-ctx.Done():
			cmdLogger.Info("interrupted", "turn", turn)
			return ctx.Err()
		default:
		}
		scheduler.RunTurn(reg, world)
	}

	live := tt.All()
	cmdLogger.Info("run complete", "turns", turns, "live_tickers", len(live), "stale_drops", reg.StaleDrops())
	for _, t := range live {
		fmt.Printf("ticker %d: count=%d limit=%d\n", t.ID().InstanceID, t.Count, t.Limit)
	}
	return nil
}

func newInspectCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "List the chunks persisted by an mmap-backed run, without driving any turns",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := logger.With("component", "cmd")
			defer withFatalRecover(cmdLogger)()

			store := file.NewStore(configPath(cmd))
			cfg, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg == nil {
				return fmt.Errorf("no config at %s; run \"simkernel init\" first", configPath(cmd))
			}
			if cfg.Storage.Backend != "mmap" {
				return fmt.Errorf("inspect only supports the mmap backend, run uses %q", cfg.Storage.Backend)
			}

			handlerIface, err := config.OpenHandler(cmd.Context(), cfg.Storage, logger)
			if err != nil {
				return fmt.Errorf("open chunk handler: %w", err)
			}
			mh, ok := handlerIface.(*chunk.MmapHandler)
			if !ok {
				return fmt.Errorf("internal error: mmap backend did not produce an *chunk.MmapHandler")
			}

			idents, err := mh.ListPersisted(chunk.NewIdent("actor"))
			if err != nil {
				return fmt.Errorf("list persisted chunks: %w", err)
			}
			for _, ident := range idents {
				fmt.Println(ident.String())
			}
			cmdLogger.Info("inspected run", "run_id", cfg.RunID, "chunks", len(idents))
			return nil
		},
	}
}
