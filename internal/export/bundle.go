// Package export freezes a project definition into a portable bundle: the
// descriptor plus every env file it references, packed as a gzipped tar.
// Bundles can be written to a local file or pushed to S3 for sharing.
package export

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sarth-shah20/berth/internal/config"
)

// Bundle writes the project's bundle to w. descriptor is the path of the
// loaded descriptor file. Entries are stored under their project-relative
// names so the bundle unpacks into a working project directory.
func Bundle(w io.Writer, cfg *config.Config, descriptor string) error {
	files, err := bundleFiles(cfg, descriptor)
	if err != nil {
		return err
	}

	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	for _, rel := range files {
		if err := addFile(tw, cfg.Dir, rel); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalize bundle: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finalize bundle: %w", err)
	}
	return nil
}

// bundleFiles collects the descriptor and every referenced env file,
// de-duplicated, in stable order.
func bundleFiles(cfg *config.Config, descriptor string) ([]string, error) {
	rel, err := relToProject(cfg, descriptor)
	if err != nil {
		return nil, err
	}
	set := map[string]bool{rel: true}

	for _, svc := range cfg.Services {
		if svc.EnvFile == "" {
			continue
		}
		rel, err := relToProject(cfg, cfg.Resolve(svc.EnvFile))
		if err != nil {
			return nil, err
		}
		set[rel] = true
	}

	files := make([]string, 0, len(set))
	for f := range set {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func relToProject(cfg *config.Config, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	rel, err := filepath.Rel(cfg.Dir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the project directory", path)
	}
	return rel, nil
}

func addFile(tw *tar.Writer, baseDir, rel string) error {
	path := filepath.Join(baseDir, rel)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", rel, err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("tar header for %s: %w", rel, err)
	}
	hdr.Name = filepath.ToSlash(rel)

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header for %s: %w", rel, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", rel, err)
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}
