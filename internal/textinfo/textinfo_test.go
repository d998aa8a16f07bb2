package textinfo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/language"

	texterrors "github.com/FocuswithJustin/textgen/core/errors"
	"github.com/FocuswithJustin/textgen/core/generator"
)

const udbInfo = `{"id":"uw_en_udb","abbr":"UDB","name":"Unlocked Dynamic Bible","nameEnglish":"","lang":"eng","langName":"English","langNameEnglish":"English","dir":"ltr","generator":"uw_usfm"}`

const dblMetadata = `<?xml version="1.0" encoding="utf-8"?>
<DBLMetadata id="a1b2c3" version="2.0">
  <identification>
    <name>Arabic Van Dyck</name>
    <nameLocal>الكتاب المقدس</nameLocal>
    <abbreviation>AVD</abbreviation>
  </identification>
  <language>
    <iso>arb</iso>
    <name>Arabic</name>
    <scriptDirection>RTL</scriptDirection>
  </language>
</DBLMetadata>`

func write(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestLoadInfoJSON(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, InfoFile, udbInfo)

	info, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := generator.TextInfo{
		ID:              "uw_en_udb",
		Abbr:            "UDB",
		Name:            "Unlocked Dynamic Bible",
		Lang:            "eng",
		LangName:        "English",
		LangNameEnglish: "English",
		Dir:             "ltr",
		Generator:       "uw_usfm",
	}
	if info != want {
		t.Errorf("Load() = %+v, want %+v", info, want)
	}
}

func TestLoadPrefersInfoJSON(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, InfoFile, udbInfo)
	write(t, dir, MetadataFile, dblMetadata)

	info, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if info.ID != "uw_en_udb" {
		t.Errorf("ID = %q, want info.json to win", info.ID)
	}
}

func TestLoadDBL(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, MetadataFile, dblMetadata)

	info, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if info.ID != "a1b2c3" || info.Abbr != "AVD" {
		t.Errorf("identification = %+v", info)
	}
	if info.Name != "الكتاب المقدس" || info.NameEnglish != "Arabic Van Dyck" {
		t.Errorf("names = %q / %q", info.Name, info.NameEnglish)
	}
	if info.Lang != "arb" || info.LangNameEnglish != "Arabic" {
		t.Errorf("language = %q / %q", info.Lang, info.LangNameEnglish)
	}
	if info.Dir != "rtl" {
		t.Errorf("Dir = %q, want rtl", info.Dir)
	}
	if info.Generator != DefaultGenerator {
		t.Errorf("Generator = %q", info.Generator)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, texterrors.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"bad json", InfoFile, `{"id":`},
		{"bad xml", MetadataFile, `<DBLMetadata><language></DBLMetadata>`},
		{"wrong root", MetadataFile, `<metadata id="x"/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			write(t, dir, tt.file, tt.body)
			_, err := Load(dir)
			var perr *texterrors.ParseError
			if !errors.As(err, &perr) {
				t.Errorf("Load() error = %v, want ParseError", err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       generator.TextInfo
		wantID   string
		wantDir  string
		wantLang string
	}{
		{"fills id and names", generator.TextInfo{Lang: "fr"}, "fallback", "ltr", "French"},
		{"hebrew is rtl", generator.TextInfo{ID: "wlc", Lang: "he"}, "wlc", "rtl", "Hebrew"},
		{"explicit dir kept", generator.TextInfo{Lang: "ar", Dir: "ltr"}, "fallback", "ltr", "Arabic"},
		{"unparseable lang", generator.TextInfo{Lang: "not a tag"}, "fallback", "ltr", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in, "fallback")
			if got.ID != tt.wantID || got.Dir != tt.wantDir || got.LangNameEnglish != tt.wantLang {
				t.Errorf("Normalize() = %+v", got)
			}
			if got.Generator != DefaultGenerator {
				t.Errorf("Generator = %q", got.Generator)
			}
		})
	}
}

func TestDirection(t *testing.T) {
	tests := map[string]string{
		"en":      "ltr",
		"ar":      "rtl",
		"fa":      "rtl",
		"ur":      "rtl",
		"he":      "rtl",
		"sr-Latn": "ltr",
		"zh":      "ltr",
	}
	for lang, want := range tests {
		if got := Direction(language.MustParse(lang)); got != want {
			t.Errorf("Direction(%s) = %q, want %q", lang, got, want)
		}
	}
}
