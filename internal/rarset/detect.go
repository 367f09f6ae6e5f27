package rarset

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// volumeExtRegex matches the extension of secondary volumes: r00, r01, s00...
var volumeExtRegex = regexp.MustCompile(`^[A-Za-z]\d\d$`)

// ArchiveSet is the primary archive of a directory plus its secondary volumes.
// It is built once per directory and not changed afterwards.
type ArchiveSet struct {
	Dir     string
	Primary string   // empty when the directory holds no primary archive
	Volumes []string // in directory order
}

// HasPrimary reports whether the set can be extracted.
func (s ArchiveSet) HasPrimary() bool {
	return s.Primary != ""
}

// Members returns the primary followed by the volumes.
func (s ArchiveSet) Members() []string {
	members := make([]string, 0, len(s.Volumes)+1)
	if s.Primary != "" {
		members = append(members, s.Primary)
	}
	return append(members, s.Volumes...)
}

// Detect classifies the regular files directly inside dir. primaryExt is the
// extension without its dot, compared case-insensitively. An unreadable
// directory yields an empty set; the error is logged, not returned, so a walk
// can carry on.
func Detect(logger *slog.Logger, dir, primaryExt string) ArchiveSet {
	set := ArchiveSet{Dir: dir}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Error("Failed to read directory, treating it as empty.", "dir", dir, "error", err)
		return set
	}

	for _, entry := range entries {
		// Type() comes from the directory listing, so symlinks are not followed.
		if !entry.Type().IsRegular() {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(entry.Name()), ".")
		if ext == "" {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		switch {
		case strings.EqualFold(ext, primaryExt):
			if set.Primary == "" {
				set.Primary = path
			} else {
				logger.Warn("Multiple primary archives in directory, keeping the first.",
					"dir", dir, "kept", filepath.Base(set.Primary), "ignored", entry.Name())
			}
		case volumeExtRegex.MatchString(ext):
			set.Volumes = append(set.Volumes, path)
		}
	}

	return set
}
