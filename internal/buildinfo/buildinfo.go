// Package buildinfo exposes version metadata stamped at link time, e.g.
// -ldflags "-X paydesk/internal/buildinfo.Version=v1.2.0".
package buildinfo

import "runtime/debug"

var (
    Version = "dev"
    Commit  = ""
    BuiltAt = ""
)

// Info returns the build metadata. When Commit was not stamped it falls back
// to the VCS revision recorded by the Go toolchain.
func Info() map[string]string {
    commit, builtAt := Commit, BuiltAt
    if bi, ok := debug.ReadBuildInfo(); ok && (commit == "" || builtAt == "") {
        for _, s := range bi.Settings {
            switch s.Key {
            case "vcs.revision":
                if commit == "" { commit = s.Value }
            case "vcs.time":
                if builtAt == "" { builtAt = s.Value }
            }
        }
    }
    return map[string]string{
        "version": Version,
        "commit":  commit,
        "builtAt": builtAt,
    }
}
