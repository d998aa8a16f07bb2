package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/textgen/core/errors"
)

// Bundle extensions.
const (
	ExtXz = ".tar.xz"
	ExtGz = ".tar.gz"
)

// epoch is stamped on every entry so identical output trees produce
// identical archives.
var epoch = time.Unix(0, 0).UTC()

// CheckFormat returns an UnsupportedError unless path ends in a bundle
// extension.
func CheckFormat(path string) error {
	if strings.HasSuffix(path, ExtXz) || strings.HasSuffix(path, ExtGz) {
		return nil
	}
	return errors.NewUnsupported("archive format", filepath.Base(path))
}

// Create bundles files, given as slash-separated paths relative to srcDir,
// into dstPath. Entries are named baseDir/<path> and written in sorted
// order. The compression follows the extension of dstPath.
func Create(srcDir, dstPath, baseDir string, files []string) error {
	switch {
	case strings.HasSuffix(dstPath, ExtXz):
		return CreateTarXz(srcDir, dstPath, baseDir, files)
	case strings.HasSuffix(dstPath, ExtGz):
		return CreateTarGz(srcDir, dstPath, baseDir, files)
	}
	return CheckFormat(dstPath)
}

// CreateTarXz is Create with xz compression regardless of extension.
func CreateTarXz(srcDir, dstPath, baseDir string, files []string) error {
	return create(srcDir, dstPath, baseDir, files, func(w io.Writer) (io.WriteCloser, error) {
		return xz.NewWriter(w)
	})
}

// CreateTarGz is Create with gzip compression regardless of extension.
func CreateTarGz(srcDir, dstPath, baseDir string, files []string) error {
	return create(srcDir, dstPath, baseDir, files, func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriter(w), nil
	})
}

func create(srcDir, dstPath, baseDir string, files []string, compress func(io.Writer) (io.WriteCloser, error)) error {
	names := slices.Clone(files)
	slices.Sort(names)
	names = slices.Compact(names)
	for _, name := range names {
		if !fs.ValidPath(name) || name == "." {
			return errors.NewValidation("archive entry", fmt.Sprintf("%q is not a relative path", name))
		}
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return errors.NewIO("create", filepath.Dir(dstPath), err)
	}
	outFile, err := os.Create(dstPath)
	if err != nil {
		return errors.NewIO("create", dstPath, err)
	}
	defer outFile.Close()

	cw, err := compress(outFile)
	if err != nil {
		return fmt.Errorf("failed to create compressor: %w", err)
	}
	tw := tar.NewWriter(cw)

	for _, name := range names {
		if err := addFile(tw, filepath.Join(srcDir, filepath.FromSlash(name)), path.Join(baseDir, name)); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to finish compression: %w", err)
	}
	return outFile.Close()
}

func addFile(tw *tar.Writer, src, name string) error {
	file, err := os.Open(src)
	if err != nil {
		return errors.NewIO("read", src, err)
	}
	defer file.Close()

	fi, err := file.Stat()
	if err != nil {
		return errors.NewIO("stat", src, err)
	}
	if !fi.Mode().IsRegular() {
		return errors.NewValidation("archive entry", fmt.Sprintf("%s is not a regular file", src))
	}

	header := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Size:     fi.Size(),
		Mode:     0644,
		ModTime:  epoch,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", name, err)
	}
	if _, err := io.Copy(tw, file); err != nil {
		return errors.NewIO("archive", src, err)
	}
	return nil
}
