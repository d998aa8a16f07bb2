package output

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/FocuswithJustin/textgen/core/errors"
	"github.com/FocuswithJustin/textgen/internal/archive"
)

// Problem is a difference between a bundle and the manifest inside it.
type Problem struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// VerifyArchive checks a bundle written by Write against its manifest.json:
// every listed file must be present with the recorded size and hashes, and
// nothing else may be bundled.
func VerifyArchive(path string) (*Manifest, []Problem, error) {
	data, err := archive.ReadFile(path, ManifestFile)
	if err != nil {
		return nil, nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, nil, errors.NewParse(ManifestFile, path, err)
	}

	entries, err := archive.Contents(path)
	if err != nil {
		return &m, nil, err
	}
	bundled := make(map[string]archive.Entry, len(entries))
	for _, e := range entries {
		bundled[e.Name] = e
	}

	var problems []Problem
	listed := map[string]bool{ManifestFile: true}
	for _, f := range m.Files {
		listed[f.Path] = true
		e, ok := bundled[f.Path]
		switch {
		case !ok:
			problems = append(problems, Problem{f.Path, "missing"})
		case e.Digest.Size != f.Size:
			problems = append(problems, Problem{f.Path, "size mismatch"})
		case e.Digest.SHA256 != f.SHA256:
			problems = append(problems, Problem{f.Path, "sha256 mismatch"})
		case e.Digest.BLAKE3 != f.BLAKE3:
			problems = append(problems, Problem{f.Path, "blake3 mismatch"})
		}
	}
	for _, e := range entries {
		if !listed[e.Name] {
			problems = append(problems, Problem{e.Name, "not in manifest"})
		}
	}
	slices.SortFunc(problems, func(a, b Problem) int {
		return strings.Compare(a.Path, b.Path)
	})
	return &m, problems, nil
}
