package steprun

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/specialistvlad/shipgrid/internal/ctxlog"
)

// ArchiveRunner zips a step's declared sources into a named bundle inside
// the target's output namespace. A source entry may be a file, a directory
// (added recursively) or a glob pattern relative to the working directory.
type ArchiveRunner struct{}

// Run implements the Runner interface.
func (r *ArchiveRunner) Run(ctx context.Context, inv Invocation) error {
	logger := ctxlog.FromContext(ctx)
	spec := inv.Step.Archive

	files, err := resolveSources(inv.WorkDir, spec.Sources)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("archive sources %v matched no files", spec.Sources)
	}

	outPath := filepath.Join(inv.OutputDir, spec.Output)
	if err := os.MkdirAll(inv.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output namespace: %w", err)
	}

	logger.Debug("Creating archive bundle.", "output", spec.Output, "files", len(files))

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create archive %q: %w", outPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return err
		}
		if err := addFile(zw, inv.WorkDir, file); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive %q: %w", outPath, err)
	}

	return nil
}

// resolveSources expands each source entry into concrete file paths.
func resolveSources(workDir string, sources []string) ([]string, error) {
	var files []string
	for _, source := range sources {
		root := filepath.Join(workDir, source)

		info, err := os.Stat(root)
		switch {
		case err == nil && info.IsDir():
			err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to walk archive source %q: %w", source, err)
			}
		case err == nil:
			files = append(files, root)
		default:
			matches, err := filepath.Glob(root)
			if err != nil {
				return nil, fmt.Errorf("invalid archive source pattern %q: %w", source, err)
			}
			files = append(files, matches...)
		}
	}
	return files, nil
}

// addFile writes one file into the archive under its workspace-relative name.
func addFile(zw *zip.Writer, workDir, path string) error {
	rel, err := filepath.Rel(workDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive source %q: %w", path, err)
	}
	defer src.Close()

	dst, err := zw.Create(filepath.ToSlash(rel))
	if err != nil {
		return fmt.Errorf("failed to add %q to archive: %w", rel, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write %q into archive: %w", rel, err)
	}
	return nil
}
