// Package textinfo loads the description of a translation from its input
// directory: the reader's info.json, or a Digital Bible Library
// metadata.xml when no info.json exists.
package textinfo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/FocuswithJustin/textgen/core/errors"
	"github.com/FocuswithJustin/textgen/core/generator"
	"github.com/FocuswithJustin/textgen/core/xml"
)

// File names looked up in the input directory, in order.
const (
	InfoFile     = "info.json"
	MetadataFile = "metadata.xml"
)

// DefaultGenerator is recorded in info.json when the source names none.
const DefaultGenerator = "uw_usfm"

// rtlScripts are written right to left.
var rtlScripts = map[string]bool{
	"Arab": true, "Hebr": true, "Syrc": true, "Thaa": true,
	"Nkoo": true, "Adlm": true, "Samr": true, "Mand": true,
}

// Load reads the text info for dir and fills in the derived fields.
func Load(dir string) (generator.TextInfo, error) {
	infoPath := filepath.Join(dir, InfoFile)
	if _, err := os.Stat(infoPath); err == nil {
		info, err := ReadJSON(infoPath)
		if err != nil {
			return info, err
		}
		return Normalize(info, filepath.Base(dir)), nil
	}

	metaPath := filepath.Join(dir, MetadataFile)
	if _, err := os.Stat(metaPath); err == nil {
		info, err := ReadDBL(metaPath)
		if err != nil {
			return info, err
		}
		return Normalize(info, filepath.Base(dir)), nil
	}

	return generator.TextInfo{}, errors.NewNotFound("text info", dir)
}

// ReadJSON parses an info.json file.
func ReadJSON(path string) (generator.TextInfo, error) {
	var info generator.TextInfo
	data, err := os.ReadFile(path)
	if err != nil {
		return info, errors.NewIO("read", path, err)
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, errors.NewParse(InfoFile, path, err)
	}
	return info, nil
}

// ReadDBL parses a DBL metadata.xml file.
func ReadDBL(path string) (generator.TextInfo, error) {
	var info generator.TextInfo
	data, err := os.ReadFile(path)
	if err != nil {
		return info, errors.NewIO("read", path, err)
	}
	doc, err := xml.Parse(data)
	if err != nil {
		return info, errors.NewParse(MetadataFile, path, err)
	}
	root := doc.Root()
	if root == nil || root.Name() != "DBLMetadata" {
		return info, &errors.ParseError{Format: MetadataFile, Path: path, Message: "missing DBLMetadata root"}
	}

	info.ID = root.Attr("id")
	fields := []struct {
		dst  *string
		expr string
	}{
		{&info.Name, "/DBLMetadata/identification/nameLocal"},
		{&info.NameEnglish, "/DBLMetadata/identification/name"},
		{&info.Abbr, "/DBLMetadata/identification/abbreviationLocal"},
		{&info.Lang, "/DBLMetadata/language/iso"},
		{&info.LangName, "/DBLMetadata/language/nameLocal"},
		{&info.LangNameEnglish, "/DBLMetadata/language/name"},
		{&info.Dir, "/DBLMetadata/language/scriptDirection"},
	}
	for _, f := range fields {
		v, err := doc.XPathText(f.expr)
		if err != nil {
			return info, errors.NewParse(MetadataFile, path, err)
		}
		*f.dst = v
	}
	if info.Abbr == "" {
		info.Abbr, _ = doc.XPathText("/DBLMetadata/identification/abbreviation")
	}
	if info.Name == "" {
		info.Name = info.NameEnglish
	}
	if strings.EqualFold(info.Name, info.NameEnglish) {
		info.NameEnglish = ""
	}
	info.Dir = strings.ToLower(info.Dir)
	return info, nil
}

// Normalize fills the fields a source may leave out: the id (from
// fallbackID), the text direction and language names (from the language
// tag) and the generator name.
func Normalize(info generator.TextInfo, fallbackID string) generator.TextInfo {
	if info.ID == "" {
		info.ID = fallbackID
	}
	if info.Generator == "" {
		info.Generator = DefaultGenerator
	}

	tag, err := language.Parse(info.Lang)
	if err != nil {
		if info.Dir == "" {
			info.Dir = "ltr"
		}
		return info
	}

	if info.Dir == "" {
		info.Dir = Direction(tag)
	}
	if info.LangNameEnglish == "" {
		info.LangNameEnglish = display.English.Languages().Name(tag)
	}
	if info.LangName == "" {
		info.LangName = display.Self.Name(tag)
	}
	return info
}

// Direction returns "rtl" when the most likely script of tag is written
// right to left, and "ltr" otherwise.
func Direction(tag language.Tag) string {
	script, _ := tag.Script()
	if rtlScripts[script.String()] {
		return "rtl"
	}
	return "ltr"
}
