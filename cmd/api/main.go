// Command paydesk runs the Monoova proxy service and its operator tools.
package main

import (
    "context"
    "errors"
    "fmt"
    "io"
    "log/slog"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "syscall"
    "time"

    "github.com/spf13/cobra"

    "paydesk/internal/api"
    "paydesk/internal/config"
)

const shutdownGrace = 30 * time.Second

var envFiles []string

func main() {
    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()
    if err := newRootCmd().ExecuteContext(ctx); err != nil {
        fmt.Fprintln(os.Stderr, "error:", err)
        os.Exit(1)
    }
}

func newRootCmd() *cobra.Command {
    root := &cobra.Command{
        Use:           "paydesk",
        Short:         "Monoova payment API proxy with webhook recording",
        SilenceUsage:  true,
        SilenceErrors: true,
        RunE:          runServe,
    }
    root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv file(s) to load before reading the environment (default .env)")
    root.AddCommand(
        &cobra.Command{Use: "serve", Short: "Run the HTTP server (default)", Args: cobra.NoArgs, RunE: runServe},
        newMigrateCmd(),
        newPingCmd(),
        newTailCmd(),
        newVersionCmd(),
    )
    return root
}

func loadConfig() (config.Config, error) {
    return config.Load(envFiles...)
}

// newLogger returns a JSON slog logger at the given level.
func newLogger(w io.Writer, level string) *slog.Logger {
    var lv slog.Level
    if err := lv.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
        lv = slog.LevelInfo
    }
    return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv}))
}

func runServe(cmd *cobra.Command, _ []string) error {
    cfg, err := loadConfig()
    if err != nil { return err }
    logger := newLogger(cmd.OutOrStdout(), cfg.LogLevel)
    slog.SetDefault(logger)

    ctx := cmd.Context()
    srv, err := api.Open(ctx, cfg, logger)
    if err != nil { return fmt.Errorf("init server: %w", err) }
    defer func() {
        if err := srv.Close(); err != nil { logger.Warn("close", "error", err) }
    }()

    hs := &http.Server{
        Addr:              cfg.Addr(),
        Handler:           srv.Routes(),
        ReadHeaderTimeout: 5 * time.Second,
    }

    errc := make(chan error, 1)
    go func() {
        logger.Info("API listening", "addr", hs.Addr)
        errc <- hs.ListenAndServe()
    }()

    select {
    case err := <-errc:
        if err != nil && !errors.Is(err, http.ErrServerClosed) { return fmt.Errorf("server error: %w", err) }
        return nil
    case <-ctx.Done():
    }

    logger.Info("shutting down", "grace", shutdownGrace.String())
    sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
    defer cancel()
    if err := hs.Shutdown(sctx); err != nil { return fmt.Errorf("shutdown: %w", err) }
    return nil
}
