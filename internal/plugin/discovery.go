package plugin

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// pluginExtension is the only file suffix discovery treats as a plugin
// candidate.
const pluginExtension = ".lua"

// discover walks dirs in order and returns every regular .lua file found,
// recursively, following symlinks. Paths within one directory are sorted
// lexicographically, and directories earlier in dirs come first in the
// result. This order does not decide binding conflicts: buildSnapshot
// re-sorts the claimants of each binding purely by source path.
//
// A directory that does not exist is skipped rather than treated as an
// error — an absent user plugin directory on a fresh install is normal,
// not catastrophic.
func discover(dirs []string) []string {
	var all []string
	for _, dir := range dirs {
		all = append(all, discoverOne(dir)...)
	}
	return all
}

func discoverOne(dir string) []string {
	var found []string

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Permission errors or a vanished subdirectory: skip this
			// entry, keep walking the rest of the tree.
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			info, err := os.Stat(resolved)
			if err != nil {
				return nil
			}
			if info.IsDir() {
				found = append(found, discoverOne(resolved)...)
			} else if filepath.Ext(resolved) == pluginExtension {
				found = append(found, path)
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) == pluginExtension {
			found = append(found, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil
	}

	sort.Strings(found)
	return found
}
