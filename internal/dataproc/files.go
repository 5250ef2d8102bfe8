// Package dataproc prepares Dataproc template runs: syncing the
// dataproc-templates repository, matching a template to a task with the
// model, and staging a modified copy with transformation logic embedded.
package dataproc

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"plumber/internal/gitops"
)

// Languages the template repository covers.
const (
	LangPython = "python"
	LangJava   = "java"
)

// ParseLanguage validates a template language.
func ParseLanguage(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case LangPython:
		return LangPython, nil
	case LangJava:
		return LangJava, nil
	default:
		return "", fmt.Errorf("unknown language %q (valid: python, java)", s)
	}
}

// templatePattern returns the glob template scripts follow per language.
func templatePattern(language string) string {
	if language == LangJava {
		return "*to*.java"
	}
	return "*_to_*.py"
}

// Sync makes dir a checkout of the dataproc-templates repository,
// cloning or pulling as needed.
func Sync(ctx context.Context, gitURL, dir string) (string, error) {
	return gitops.CloneOrPull(ctx, gitURL, dir, "main")
}

// FindFiles walks dir and returns files whose base name matches pattern
// case-insensitively, skipping anything with "config" in the name and the
// .git tree. Results are sorted.
func FindFiles(dir, pattern string) ([]string, error) {
	pattern = strings.ToLower(pattern)

	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := strings.ToLower(d.Name())
		if d.IsDir() {
			if name == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.Contains(name, "config") {
			return nil
		}
		ok, err := filepath.Match(pattern, name)
		if err != nil {
			return err
		}
		if ok {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(out)
	return out, nil
}
