package main

import (
    "bytes"
    "encoding/json"
    "fmt"

    "github.com/spf13/cobra"

    "paydesk/internal/buildinfo"
    "paydesk/internal/mode"
    "paydesk/internal/monoova"
    "paydesk/internal/store"
)

func newMigrateCmd() *cobra.Command {
    return &cobra.Command{
        Use:   "migrate",
        Short: "Apply database migrations to the live and sandbox stores",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, _ []string) error {
            cfg, err := loadConfig()
            if err != nil { return err }
            logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
            dsns := map[mode.Mode]string{mode.Live: cfg.DatabaseURL, mode.Sandbox: cfg.SandboxDatabaseURL}
            for _, m := range mode.All() {
                st, err := store.Open(cmd.Context(), dsns[m])
                if err != nil { return fmt.Errorf("%s store: %w", m, err) }
                pg, ok := st.(*store.Postgres)
                if !ok {
                    logger.Info("memory store; nothing to migrate", "mode", m.String())
                    _ = st.Close()
                    continue
                }
                err = pg.Migrate(cmd.Context())
                _ = pg.Close()
                if err != nil { return fmt.Errorf("%s store: %w", m, err) }
                logger.Info("migrations applied", "mode", m.String())
            }
            return nil
        },
    }
}

func newPingCmd() *cobra.Command {
    var sandbox bool
    cmd := &cobra.Command{
        Use:   "ping",
        Short: "Call the provider ping endpoint and print the response",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, _ []string) error {
            cfg, err := loadConfig()
            if err != nil { return err }
            m := modeFlag(sandbox)
            c := monoova.NewClient(cfg.ProviderFor(m), cfg.ProviderTimeout, monoova.WithLabel(m.String()))
            out, err := c.Ping(cmd.Context())
            if err != nil { return fmt.Errorf("ping %s (%s): %w", m, c.BaseURL(), err) }
            return printJSON(cmd, out)
        },
    }
    cmd.Flags().BoolVar(&sandbox, "sandbox", false, "use the sandbox provider")
    return cmd
}

func newVersionCmd() *cobra.Command {
    return &cobra.Command{
        Use:   "version",
        Short: "Print build information",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, _ []string) error {
            b, err := json.Marshal(buildinfo.Info())
            if err != nil { return err }
            return printJSON(cmd, b)
        },
    }
}

func modeFlag(sandbox bool) mode.Mode {
    if sandbox { return mode.Sandbox }
    return mode.Live
}

func printJSON(cmd *cobra.Command, raw []byte) error {
    var buf bytes.Buffer
    if err := json.Indent(&buf, raw, "", "  "); err != nil {
        buf.Reset()
        buf.Write(raw)
    }
    buf.WriteByte('\n')
    _, err := cmd.OutOrStdout().Write(buf.Bytes())
    return err
}

