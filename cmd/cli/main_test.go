package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/shipgrid/internal/cli"
)

func TestRun(t *testing.T) {
	t.Run("no arguments prints usage and exits cleanly", func(t *testing.T) {
		var out bytes.Buffer
		err := run(&out, nil)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("help flag exits cleanly", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(&out, []string{"-h"}))
	})

	t.Run("missing version is a usage error", func(t *testing.T) {
		var out bytes.Buffer
		err := run(&out, []string{"--matrix-config", "matrix.hcl"})
		require.Error(t, err)

		var exitErr *cli.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, cli.ExitUsage, exitErr.Code)
	})

	t.Run("dry run builds the matrix end to end", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("end-to-end run requires a POSIX shell")
		}

		dir := t.TempDir()
		matrixPath := filepath.Join(dir, "matrix.hcl")
		require.NoError(t, os.WriteFile(matrixPath, []byte(`
target "linux" "amd64" {
  artifacts = ["*.zip"]

  step "build" {
    run = ["sh", "-c", "touch \"$SHIPGRID_OUTPUT_DIR/app-${version}.zip\""]
  }
}
`), 0o644))

		var out bytes.Buffer
		err := run(&out, []string{
			"--version", "v9.9.9",
			"--matrix-config", matrixPath,
			"--artifacts-dir", filepath.Join(dir, "dist"),
			"--workdir", dir,
			"--dry-run",
			"--log-level", "error",
		})
		require.NoError(t, err)

		text := out.String()
		assert.Contains(t, text, "linux-amd64")
		assert.Contains(t, text, "app-v9.9.9.zip")
		assert.Contains(t, text, "release v9.9.9")
	})

	t.Run("a failing build surfaces the failure exit code", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("end-to-end run requires a POSIX shell")
		}

		dir := t.TempDir()
		matrixPath := filepath.Join(dir, "matrix.hcl")
		require.NoError(t, os.WriteFile(matrixPath, []byte(`
target "linux" "amd64" {
  artifacts = ["*.zip"]

  step "build" {
    run = ["false"]
  }
}
`), 0o644))

		var out bytes.Buffer
		err := run(&out, []string{
			"--version", "v9.9.9",
			"--matrix-config", matrixPath,
			"--artifacts-dir", filepath.Join(dir, "dist"),
			"--dry-run",
			"--log-level", "error",
		})
		require.Error(t, err)

		var exitErr *cli.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, cli.ExitFailed, exitErr.Code)
	})
}
