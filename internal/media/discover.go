package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrDirectoryNotFound is returned when the search directory does not exist.
var ErrDirectoryNotFound = errors.New("directory not found")

// ErrNotADirectory is returned when the search path is not a directory.
var ErrNotADirectory = errors.New("not a directory")

// DefaultFileTypes lists the media extensions searched when the caller does
// not narrow them down.
var DefaultFileTypes = []string{"mp3", "mp4", "wav", "m4a", "webm", "ogg", "flac", "mov", "avi"}

// normalizeExtensions lowercases extensions and strips leading dots.
func normalizeExtensions(fileTypes []string) map[string]bool {
	if len(fileTypes) == 0 {
		fileTypes = DefaultFileTypes
	}
	set := make(map[string]bool, len(fileTypes))
	for _, ext := range fileTypes {
		set[strings.TrimPrefix(strings.ToLower(ext), ".")] = true
	}
	return set
}

// IsMediaFile reports whether path has one of the given media extensions.
func IsMediaFile(path string, fileTypes []string) bool {
	extensions := normalizeExtensions(fileTypes)
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return extensions[ext]
}

// FindFiles returns the sorted, de-duplicated absolute paths of all media
// files in dir with one of the given extensions. Extension matching is
// case-insensitive. When recursive is false only the directory itself is
// searched.
func FindFiles(dir string, fileTypes []string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, dir)
	}

	extensions := normalizeExtensions(fileTypes)
	seen := make(map[string]bool)
	var files []string

	record := func(path string) error {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if !extensions[ext] {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
		return nil
	}

	if recursive {
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			return record(path)
		})
	} else {
		var entries []fs.DirEntry
		entries, err = os.ReadDir(dir)
		if err == nil {
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				if err = record(filepath.Join(dir, entry.Name())); err != nil {
					break
				}
			}
		}
	}
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
