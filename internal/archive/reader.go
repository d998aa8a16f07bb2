// Package archive bundles the files of a generation run into a compressed
// tar archive and reads such bundles back. It supports tar.xz and tar.gz.
package archive

import (
	"archive/tar"
	"compress/gzip"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/textgen/core/cas"
	"github.com/FocuswithJustin/textgen/core/errors"
)

// Entry is one file of a bundle. Name is relative to the bundle's base
// directory.
type Entry struct {
	Name   string
	Digest cas.Digest
}

// errStop ends a Walk early without an error.
var errStop = stderrors.New("stop")

// Walk calls fn for every regular file of the bundle at path, in stored
// order. Names passed to fn have the base directory removed.
func Walk(path string, fn func(name string, r io.Reader) error) error {
	if err := CheckFormat(path); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.NewIO("open", path, err)
	}
	defer f.Close()

	var r io.Reader
	if strings.HasSuffix(path, ExtXz) {
		if r, err = xz.NewReader(f); err != nil {
			return errors.NewParse("xz", path, err)
		}
	} else {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return errors.NewParse("gzip", path, err)
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.NewParse("tar", path, err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		if err := fn(stripBase(header.Name), tr); err != nil {
			if err == errStop {
				return nil
			}
			return err
		}
	}
}

func stripBase(name string) string {
	if _, rest, ok := strings.Cut(name, "/"); ok {
		return rest
	}
	return name
}

// Contents returns every file of the bundle with its digest.
func Contents(path string) ([]Entry, error) {
	var entries []Entry
	err := Walk(path, func(name string, r io.Reader) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return errors.NewIO("read", name, err)
		}
		entries = append(entries, Entry{Name: name, Digest: cas.Sum(data)})
		return nil
	})
	return entries, err
}

// ReadFile returns the content of one file of the bundle.
func ReadFile(path, name string) ([]byte, error) {
	var content []byte
	found := false
	err := Walk(path, func(entry string, r io.Reader) error {
		if entry != name {
			return nil
		}
		found = true
		var err error
		if content, err = io.ReadAll(r); err != nil {
			return errors.NewIO("read", name, err)
		}
		return errStop
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewNotFound("archive entry", fmt.Sprintf("%s in %s", name, path))
	}
	return content, nil
}
