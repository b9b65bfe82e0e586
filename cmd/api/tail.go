package main

import (
    "encoding/json"
    "errors"
    "fmt"
    "net/url"
    "os"
    "strings"

    "github.com/gorilla/websocket"
    "github.com/spf13/cobra"

    "paydesk/internal/mode"
)

func newTailCmd() *cobra.Command {
    var (
        sandbox bool
        server  string
    )
    cmd := &cobra.Command{
        Use:   "tail",
        Short: "Stream recorded webhook events from a running server",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, _ []string) error {
            u, err := streamURL(server, modeFlag(sandbox))
            if err != nil { return err }
            c, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), u, nil)
            if err != nil { return fmt.Errorf("dial %s: %w", u, err) }
            defer func() { _ = c.Close() }()
            fmt.Fprintf(cmd.ErrOrStderr(), "streaming %s\n", u)

            go func() {
                <-cmd.Context().Done()
                _ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
                _ = c.Close()
            }()

            enc := json.NewEncoder(cmd.OutOrStdout())
            for {
                var m json.RawMessage
                if err := c.ReadJSON(&m); err != nil {
                    if cmd.Context().Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
                        return nil
                    }
                    return fmt.Errorf("read: %w", err)
                }
                if err := enc.Encode(m); err != nil { return err }
            }
        },
    }
    cmd.Flags().BoolVar(&sandbox, "sandbox", false, "stream sandbox events")
    cmd.Flags().StringVar(&server, "server", defaultServer(), "base URL of the paydesk server")
    return cmd
}

func defaultServer() string {
    if v := os.Getenv("PUBLIC_API_BASE_URL"); v != "" { return v }
    port := os.Getenv("PORT")
    if port == "" { port = "8080" }
    return "http://localhost:" + port
}

// streamURL turns a server base URL into the event stream WebSocket URL for m.
func streamURL(server string, m mode.Mode) (string, error) {
    u, err := url.Parse(strings.TrimSpace(server))
    if err != nil { return "", fmt.Errorf("server url: %w", err) }
    switch u.Scheme {
    case "http", "ws":
        u.Scheme = "ws"
    case "https", "wss":
        u.Scheme = "wss"
    default:
        return "", errors.New("server url must be http(s) or ws(s)")
    }
    if u.Host == "" { return "", errors.New("server url has no host") }
    path := "/api/events/ws"
    if m == mode.Sandbox { path = "/sandbox/api/events/ws" }
    u.Path = strings.TrimSuffix(u.Path, "/") + path
    u.RawQuery, u.Fragment = "", ""
    return u.String(), nil
}
