// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobPrefix starts every temp artifact name.
const JobPrefix = "clip-"

// ErrArtifactNotFound means no file carries the requested prefix.
var ErrArtifactNotFound = errors.New("artifact not found")

// yt-dlp leaves these behind for interrupted downloads; they are never a result.
var partialSuffixes = []string{".part", ".ytdl", ".temp"}

// NewJobID returns a random identifier safe to embed in file names.
func NewJobID() string {
	return JobPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func inputTemplate(dir, jobID string) string {
	return filepath.Join(dir, jobID+"-input.%(ext)s")
}

func inputPrefix(jobID string) string {
	return jobID + "-input."
}

func outputPath(dir, jobID string) string {
	return filepath.Join(dir, jobID+"-output.mp3")
}

// LocateArtifact finds the file in dir produced under prefix. A preferred
// path reported by the tool wins when it is a regular file directly inside
// dir carrying the prefix. Otherwise dir is scanned; several candidates
// resolve to the newest mtime, then the lexically smallest name.
func LocateArtifact(dir, prefix, preferred string) (string, error) {
	if preferred != "" {
		p := filepath.Clean(preferred)
		if filepath.Dir(p) == filepath.Clean(dir) && isCandidate(filepath.Base(p), prefix) {
			if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
				return p, nil
			}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	type candidate struct {
		name  string
		mtime time.Time
	}
	var found []candidate
	for _, e := range entries {
		if !e.Type().IsRegular() || !isCandidate(e.Name(), prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{name: e.Name(), mtime: info.ModTime()})
	}
	if len(found) == 0 {
		return "", ErrArtifactNotFound
	}
	sort.Slice(found, func(i, j int) bool {
		if !found[i].mtime.Equal(found[j].mtime) {
			return found[i].mtime.After(found[j].mtime)
		}
		return found[i].name < found[j].name
	})
	return filepath.Join(dir, found[0].name), nil
}

func isCandidate(name, prefix string) bool {
	if !strings.HasPrefix(name, prefix) {
		return false
	}
	for _, s := range partialSuffixes {
		if strings.HasSuffix(name, s) {
			return false
		}
	}
	return true
}

// SweepJob removes every entry in dir whose name contains jobID.
func SweepJob(dir, jobID string) (int, error) {
	if jobID == "" {
		return 0, nil
	}
	return sweep(dir, func(e os.DirEntry) bool {
		return strings.Contains(e.Name(), jobID)
	})
}

// SweepStale removes job artifacts in dir last modified before cutoff.
func SweepStale(dir string, cutoff time.Time) (int, error) {
	return sweep(dir, func(e os.DirEntry) bool {
		if !strings.HasPrefix(e.Name(), JobPrefix) {
			return false
		}
		info, err := e.Info()
		return err == nil && info.ModTime().Before(cutoff)
	})
}

func sweep(dir string, match func(os.DirEntry) bool) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	var (
		removed int
		errs    []error
	)
	for _, e := range entries {
		if e.IsDir() || !match(e) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// removeIfExists deletes path; a missing file is not an error.
func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
