package buildinfo

import "testing"

func TestInfoUsesStampedValues(t *testing.T) {
    oldV, oldC, oldB := Version, Commit, BuiltAt
    defer func() { Version, Commit, BuiltAt = oldV, oldC, oldB }()
    Version, Commit, BuiltAt = "v1.2.3", "abc123", "2024-05-01T00:00:00Z"

    got := Info()
    if got["version"] != "v1.2.3" || got["commit"] != "abc123" || got["builtAt"] != "2024-05-01T00:00:00Z" {
        t.Fatalf("unexpected info: %v", got)
    }
}
