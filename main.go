package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"LumenForge/commands"
	"LumenForge/internal/config"
	"LumenForge/internal/game"
	"LumenForge/internal/logging"
	"LumenForge/internal/mirror"
	"LumenForge/internal/olc"
)

var (
	configPath   string
	addrFlag     string
	areasFlag    string
	accountsFlag string
	adminFlag    string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "lumenforge",
	Short: "LumenForge - a telnet world server with in-game building",
	Long: `LumenForge serves a text world over telnet. Builders reshape rooms,
mobiles, objects, zones, dialogs and scripts from inside the game with the
online creation editors (redit, medit, oedit, zedit, dedit, sedit).

Run without a subcommand to start the server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the telnet server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <kind> <key>",
	Short: "Print a stored entity as a template script",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		kind, ok := game.ParseKind(args[0])
		if !ok {
			return fmt.Errorf("unknown kind %q", args[0])
		}
		world, err := game.NewWorld(cfg.Areas)
		if err != nil {
			return err
		}
		setup, err := olc.NewSetup(world, nil, nil)
		if err != nil {
			return err
		}
		info, err := setup.Kinds.Lookup(kind)
		if err != nil {
			return err
		}
		value, ok := world.CloneOf(kind, args[1], info.Ops.Clone)
		if !ok {
			return fmt.Errorf("no %s named %q", kind, args[1])
		}
		script, err := olc.Export(setup.Kinds, kind, value)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), script)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the world and compile every script",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		world, err := game.NewWorld(cfg.Areas)
		if err != nil {
			return err
		}
		var failed []string
		for _, key := range world.Keys(game.KindScript) {
			source, _ := world.ScriptSource(key)
			if err := game.CompileScript(source); err != nil {
				failed = append(failed, key)
				fmt.Fprintf(cmd.ErrOrStderr(), "script %s: %v\n", key, err)
			}
		}
		for _, kind := range game.StoredKinds {
			fmt.Fprintf(cmd.OutOrStdout(), "%-7s %d\n", kind, len(world.Keys(kind)))
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d script(s) failed to compile: %s", len(failed), strings.Join(failed, ", "))
		}
		return nil
	},
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror [kind]",
	Short: "Show what the Redis mirror holds",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Redis.Addr == "" {
			return errors.New("redis.addr is not configured")
		}
		store := mirror.New(cfg.Redis.Addr, mirror.WithPrefix(cfg.Redis.Prefix))
		defer store.Close()
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if len(args) == 0 {
			kinds, err := store.Kinds(ctx)
			if err != nil {
				return err
			}
			for _, kind := range kinds {
				fmt.Fprintln(cmd.OutOrStdout(), kind)
			}
			return nil
		}
		kind, ok := game.ParseKind(args[0])
		if !ok {
			return fmt.Errorf("unknown kind %q", args[0])
		}
		data, err := store.Snapshot(ctx, kind)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "lumenforge.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "TCP address to listen on (overrides config)")
	rootCmd.PersistentFlags().StringVar(&areasFlag, "areas", "", "Directory containing world area definitions (overrides config)")
	rootCmd.PersistentFlags().StringVar(&accountsFlag, "accounts", "", "Path to the player accounts database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&adminFlag, "admin", "", "Account granted administrator privileges (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn or error (overrides config)")

	rootCmd.AddCommand(serveCmd, exportCmd, checkCmd, mirrorCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	for target, value := range map[*string]string{
		&cfg.Addr:     addrFlag,
		&cfg.Areas:    areasFlag,
		&cfg.Accounts: accountsFlag,
		&cfg.Admin:    adminFlag,
		&cfg.LogLevel: logLevelFlag,
	} {
		if strings.TrimSpace(value) != "" {
			*target = value
		}
	}
	return cfg, cfg.Validate()
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	accounts, err := game.NewAccountManager(cfg.Accounts)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	accounts.SetAdminAccount(cfg.Admin)

	world, err := game.NewWorld(cfg.Areas)
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}
	world.SetLogger(logger.Named("world"))

	if cfg.Redis.Addr != "" {
		store := mirror.New(cfg.Redis.Addr, mirror.WithPrefix(cfg.Redis.Prefix))
		defer store.Close()
		world.AttachMirror(store)
		logger.Info("redis mirror enabled", zap.String("addr", cfg.Redis.Addr), zap.String("prefix", cfg.Redis.Prefix))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := olc.NewMetrics(reg)
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, reg, logger)
	}

	editorLogger := logger.Named("olc")
	setup, err := olc.NewSetup(world, editorLogger, metrics)
	if err != nil {
		return err
	}
	autosave, err := cfg.AutosaveKinds()
	if err != nil {
		return err
	}
	if err := olc.ConfigureAutosave(setup.Kinds, autosave); err != nil {
		return err
	}
	bindings := make([]olc.ExtensionBinding, len(cfg.OLC.Extensions))
	for i, ext := range cfg.OLC.Extensions {
		bindings[i] = olc.ExtensionBinding{Kind: ext.Kind, Key: ext.Key, Script: ext.Script}
	}
	bridge := olc.NewYaegiBridge(world.ScriptSource)
	if err := olc.RegisterScriptedExtensions(setup.Kinds, bridge, bindings, editorLogger); err != nil {
		return err
	}

	dispatcher := commands.NewDispatcher(commands.Env{
		OLC:      setup.Router,
		Accounts: accounts,
		Logger:   logger.Named("commands"),
	})
	return game.ListenAndServe(cfg.Addr, world, accounts, dispatcher, game.WithLogger(logger))
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
