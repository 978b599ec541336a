package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/moby/go-archive"
)

// BundleManifest accompanies a preprocessed .jshd grid inside its bundle,
// recording enough provenance to reproduce the preprocessing step.
type BundleManifest struct {
	Source        string    `json:"source"`
	Variable      string    `json:"variable"`
	Units         string    `json:"units"`
	CRS           string    `json:"crs"`
	DefaultValue  float64   `json:"default_value"`
	TimestepStart int       `json:"timestep_start"`
	TimestepEnd   int       `json:"timestep_end"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// Bundle tars dataPath (a preprocessed .jshd file) together with a JSON
// manifest into destPath, for provenance-preserving distribution of
// preprocessed inputs (the `preprocess --bundle` flag).
func Bundle(dataPath string, manifest BundleManifest, destPath string) error {
	dir, err := os.MkdirTemp("", "joshsim-bundle-*")
	if err != nil {
		return fmt.Errorf("output: bundle temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := copyFile(dataPath, filepath.Join(dir, filepath.Base(dataPath))); err != nil {
		return err
	}
	manifestBytes, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("output: marshal bundle manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), manifestBytes, 0o644); err != nil {
		return fmt.Errorf("output: write bundle manifest: %w", err)
	}

	reader, err := archive.TarWithOptions(dir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("output: tar bundle: %w", err)
	}
	defer reader.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("output: create bundle %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("output: write bundle %s: %w", destPath, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("output: open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", dst, err)
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
