// Package bundle embeds the core command plugins shipped with bunnylol
// itself (GitHub, YouTube, and a Jira issue-key resolver), so a development
// build has a working bindings index without requiring a separate install
// step.
package bundle

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed commands/*.lua
var commands embed.FS

// ExtractTo writes every bundled plugin into dir, skipping any file that
// already exists there so a user's locally edited copy (e.g. jira.lua with
// its host filled in) is never overwritten.
func ExtractTo(dir string) error {
	entries, err := fs.ReadDir(commands, "commands")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, entry := range entries {
		dst := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(dst); err == nil {
			continue
		}

		data, err := commands.ReadFile("commands/" + entry.Name())
		if err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
