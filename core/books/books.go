// Package books provides the book metadata catalog used to title chapters
// and order source files.
//
// Codes are the two-character division codes used in chapter ids ("GN",
// "PS", "J3"). Each book also carries its USFM and OSIS identifiers so that
// source files, which name books by USFM code, can be mapped onto the catalog.
package books

import (
	"slices"
	"strings"
)

// Testament groups books into the sections a reader shows together.
type Testament string

// Testament values.
const (
	TestamentNone  Testament = ""
	TestamentOld   Testament = "OT"
	TestamentDeut  Testament = "DC"
	TestamentNew   Testament = "NT"
	TestamentOther Testament = "XX"
)

// Book describes one book of the catalog.
type Book struct {
	Code      string   `json:"code"`
	USFM      string   `json:"usfm"`
	OSIS      string   `json:"osis"`
	Names     []string `json:"names"`
	SortOrder int      `json:"sortOrder"`

	// Chapters is the chapter count, or 0 when unknown.
	Chapters int `json:"chapters,omitempty"`
}

// DisplayName returns the name used in chapter titles.
func (b Book) DisplayName() string {
	if len(b.Names) == 0 {
		return b.Code
	}
	return b.Names[0]
}

// IsPsalms reports whether chapters of this book are titled "Psalm N".
func (b Book) IsPsalms() bool {
	return b.Code == "PS"
}

// Testament returns the section the book belongs to, derived from its sort
// order.
func (b Book) Testament() Testament {
	switch {
	case b.SortOrder >= 2 && b.SortOrder <= 40:
		return TestamentOld
	case b.SortOrder >= 41 && b.SortOrder <= 69:
		return TestamentDeut
	case b.SortOrder >= 70 && b.SortOrder <= 96:
		return TestamentNew
	case b.SortOrder > 96:
		return TestamentOther
	}
	return TestamentNone
}

// Catalog resolves book codes to metadata.
type Catalog interface {
	Lookup(code string) (Book, bool)
}

// Table is an in-memory Catalog indexed by division code and USFM code.
type Table struct {
	books  []Book
	byCode map[string]int
	byUSFM map[string]int
}

// NewTable builds a Table from books. Later entries replace earlier ones
// with the same code. The books are kept in sort order.
func NewTable(list []Book) *Table {
	t := &Table{
		byCode: make(map[string]int, len(list)),
		byUSFM: make(map[string]int, len(list)),
	}
	for _, b := range list {
		code := strings.ToUpper(b.Code)
		if i, ok := t.byCode[code]; ok {
			t.books[i] = b
			continue
		}
		t.byCode[code] = len(t.books)
		t.books = append(t.books, b)
	}

	slices.SortStableFunc(t.books, func(a, b Book) int {
		return a.SortOrder - b.SortOrder
	})
	clear(t.byCode)
	for i, b := range t.books {
		t.byCode[strings.ToUpper(b.Code)] = i
		if b.USFM != "" {
			t.byUSFM[strings.ToUpper(b.USFM)] = i
		}
	}
	return t
}

// Lookup returns the book with the given division code. Matching is
// case-insensitive.
func (t *Table) Lookup(code string) (Book, bool) {
	i, ok := t.byCode[strings.ToUpper(code)]
	if !ok {
		return Book{}, false
	}
	return t.books[i], true
}

// LookupUSFM returns the book with the given USFM identifier ("GEN", "3JN").
func (t *Table) LookupUSFM(usfm string) (Book, bool) {
	i, ok := t.byUSFM[strings.ToUpper(usfm)]
	if !ok {
		return Book{}, false
	}
	return t.books[i], true
}

// Books returns all books in sort order.
func (t *Table) Books() []Book {
	return slices.Clone(t.books)
}

// Len returns the number of books in the table.
func (t *Table) Len() int {
	return len(t.books)
}

// Default returns the standard catalog. A new Table is built on every call
// so callers may not observe each other's changes.
func Default() *Table {
	return NewTable(defaultBooks())
}

func defaultBooks() []Book {
	return []Book{
		{Code: "FR", USFM: "FRT", OSIS: "Preface", Names: []string{"Front matter"}, SortOrder: 0, Chapters: 0},
		{Code: "IN", USFM: "INT", OSIS: "Intro", Names: []string{"Introduction"}, SortOrder: 1, Chapters: 0},
		{Code: "GN", USFM: "GEN", OSIS: "Gen", Names: []string{"Genesis", "Ge", "Gen"}, SortOrder: 2, Chapters: 50},
		{Code: "EX", USFM: "EXO", OSIS: "Exod", Names: []string{"Exodus", "Ex", "Exo"}, SortOrder: 3, Chapters: 40},
		{Code: "LV", USFM: "LEV", OSIS: "Lev", Names: []string{"Leviticus", "Le", "Lev"}, SortOrder: 4, Chapters: 27},
		{Code: "NU", USFM: "NUM", OSIS: "Num", Names: []string{"Numbers", "Nu", "Num"}, SortOrder: 5, Chapters: 36},
		{Code: "DT", USFM: "DEU", OSIS: "Deut", Names: []string{"Deuteronomy", "Dt", "Deut", "Deu", "De"}, SortOrder: 6, Chapters: 34},
		{Code: "JS", USFM: "JOS", OSIS: "Josh", Names: []string{"Joshua", "Js", "Jos", "Josh"}, SortOrder: 7, Chapters: 24},
		{Code: "JG", USFM: "JDG", OSIS: "Judg", Names: []string{"Judges", "Jg", "Jdg", "Jdgs"}, SortOrder: 8, Chapters: 21},
		{Code: "RT", USFM: "RUT", OSIS: "Ruth", Names: []string{"Ruth", "Ru", "Rut"}, SortOrder: 9, Chapters: 4},
		{Code: "S1", USFM: "1SA", OSIS: "1Sam", Names: []string{"1 Samuel", "1S", "1 Sam", "1Sam", "1 Sa", "1Sa", "I Samuel", "I Sam", "I Sa"}, SortOrder: 10, Chapters: 31},
		{Code: "S2", USFM: "2SA", OSIS: "2Sam", Names: []string{"2 Samuel", "2S", "2 Sam", "2Sam", "2 Sa", "2Sa", "II Samuel", "II Sam", "II Sa", "IIS"}, SortOrder: 11, Chapters: 24},
		{Code: "K1", USFM: "1KI", OSIS: "1Kgs", Names: []string{"1 Kings", "1K", "1 Kin", "1Kin", "1 Ki", "IK", "1Ki", "I Kings", "I Kin", "I Ki"}, SortOrder: 12, Chapters: 22},
		{Code: "K2", USFM: "2KI", OSIS: "2Kgs", Names: []string{"2 Kings", "2K", "2 Kin", "2Kin", "2 Ki", "IIK", "2Ki", "II Kings", "II Kin", "II Ki"}, SortOrder: 13, Chapters: 25},
		{Code: "R1", USFM: "1CH", OSIS: "1Chr", Names: []string{"1 Chronicles", "1Ch", "1 Chr", "1Chr", "1 Ch", "ICh", "I Chronicles", "I Chr", "I Ch"}, SortOrder: 14, Chapters: 29},
		{Code: "R2", USFM: "2CH", OSIS: "2Chr", Names: []string{"2 Chronicles", "2Ch", "2 Chr", "2Chr", "2 Ch", "IICh", "II Chronicles", "II Chr", "II Ch"}, SortOrder: 15, Chapters: 36},
		{Code: "ER", USFM: "EZR", OSIS: "Ezra", Names: []string{"Ezra", "Ezr"}, SortOrder: 16, Chapters: 10},
		{Code: "NH", USFM: "NEH", OSIS: "Neh", Names: []string{"Nehemiah", "Ne", "Neh"}, SortOrder: 17, Chapters: 13},
		{Code: "ET", USFM: "EST", OSIS: "Esth", Names: []string{"Esther", "Es", "Est", "Esth"}, SortOrder: 18, Chapters: 10},
		{Code: "JB", USFM: "JOB", OSIS: "Job", Names: []string{"Job", "Jb"}, SortOrder: 19, Chapters: 42},
		{Code: "PS", USFM: "PSA", OSIS: "Ps", Names: []string{"Psalm", "Ps", "Psa"}, SortOrder: 20, Chapters: 150},
		{Code: "PR", USFM: "PRO", OSIS: "Prov", Names: []string{"Proverbs", "Pr", "Prov", "Pro"}, SortOrder: 21, Chapters: 31},
		{Code: "EC", USFM: "ECC", OSIS: "Eccl", Names: []string{"Ecclesiastes", "Ec", "Ecc", "Qohelet"}, SortOrder: 22, Chapters: 12},
		{Code: "SS", USFM: "SNG", OSIS: "Song", Names: []string{"Song of Songs", "So", "Sos", "Song of Solomon", "SOS", "SongOfSongs", "SongofSolomon", "Canticle of Canticles"}, SortOrder: 23, Chapters: 8},
		{Code: "IS", USFM: "ISA", OSIS: "Isa", Names: []string{"Isaiah", "Is", "Isa"}, SortOrder: 24, Chapters: 66},
		{Code: "JR", USFM: "JER", OSIS: "Jer", Names: []string{"Jeremiah", "Je", "Jer"}, SortOrder: 25, Chapters: 52},
		{Code: "LM", USFM: "LAM", OSIS: "Lam", Names: []string{"Lamentations", "La", "Lam", "Lament"}, SortOrder: 26, Chapters: 5},
		{Code: "EK", USFM: "EZK", OSIS: "Ezek", Names: []string{"Ezekiel", "Ek", "Ezek", "Eze"}, SortOrder: 27, Chapters: 48},
		{Code: "DN", USFM: "DAN", OSIS: "Dan", Names: []string{"Daniel", "Da", "Dan", "Dl", "Dnl"}, SortOrder: 28, Chapters: 12},
		{Code: "HS", USFM: "HOS", OSIS: "Hos", Names: []string{"Hosea", "Ho", "Hos"}, SortOrder: 29, Chapters: 14},
		{Code: "JL", USFM: "JOL", OSIS: "Joel", Names: []string{"Joel", "Jl", "Joe"}, SortOrder: 30, Chapters: 3},
		{Code: "AM", USFM: "AMO", OSIS: "Amos", Names: []string{"Amos", "Am", "Amo"}, SortOrder: 31, Chapters: 9},
		{Code: "OB", USFM: "OBA", OSIS: "Obad", Names: []string{"Obadiah", "Ob", "Oba", "Obd", "Odbh"}, SortOrder: 32, Chapters: 1},
		{Code: "JH", USFM: "JON", OSIS: "Jonah", Names: []string{"Jonah", "Jh", "Jon", "Jnh"}, SortOrder: 33, Chapters: 4},
		{Code: "MC", USFM: "MIC", OSIS: "Mic", Names: []string{"Micah", "Mi", "Mic"}, SortOrder: 34, Chapters: 7},
		{Code: "NM", USFM: "NAM", OSIS: "Nah", Names: []string{"Nahum", "Na", "Nah"}, SortOrder: 35, Chapters: 3},
		{Code: "HK", USFM: "HAB", OSIS: "Hab", Names: []string{"Habakkuk", "Hb", "Hab", "Hk", "Habk"}, SortOrder: 36, Chapters: 3},
		{Code: "ZP", USFM: "ZEP", OSIS: "Zeph", Names: []string{"Zephaniah", "Zp", "Zep", "Zeph"}, SortOrder: 37, Chapters: 3},
		{Code: "HG", USFM: "HAG", OSIS: "Hag", Names: []string{"Haggai", "Ha", "Hag", "Hagg"}, SortOrder: 38, Chapters: 2},
		{Code: "ZC", USFM: "ZEC", OSIS: "Zech", Names: []string{"Zechariah", "Zc", "Zech", "Zec"}, SortOrder: 39, Chapters: 14},
		{Code: "ML", USFM: "MAL", OSIS: "Mal", Names: []string{"Malachi", "Ml", "Mal", "Mlc"}, SortOrder: 40, Chapters: 4},
		{Code: "TB", USFM: "TOB", OSIS: "Tob", Names: []string{"Tobit"}, SortOrder: 41, Chapters: 7},
		{Code: "JT", USFM: "JDT", OSIS: "Jdt", Names: []string{"Judith"}, SortOrder: 42, Chapters: 0},
		{Code: "EG", USFM: "ESG", OSIS: "EsthGr", Names: []string{"Esther (Greek)"}, SortOrder: 43, Chapters: 16},
		{Code: "AE", USFM: "ADE", OSIS: "AddEsth", Names: []string{"Additions to Esther"}, SortOrder: 44, Chapters: 0},
		{Code: "WS", USFM: "WIS", OSIS: "Wis", Names: []string{"Wisdom", "Wisdom of Solomon"}, SortOrder: 45, Chapters: 0},
		{Code: "SR", USFM: "SIR", OSIS: "Sir", Names: []string{"Sirach", "Ecclesiasticus"}, SortOrder: 46, Chapters: 0},
		{Code: "BR", USFM: "BAR", OSIS: "Bar", Names: []string{"Baruch"}, SortOrder: 47, Chapters: 0},
		{Code: "LJ", USFM: "LJE", OSIS: "EpJer", Names: []string{"Letter of Jeremiah"}, SortOrder: 48, Chapters: 0},
		{Code: "PA", USFM: "S3Y", OSIS: "PrAzar", Names: []string{"Prayer of Azariah"}, SortOrder: 49, Chapters: 0},
		{Code: "SN", USFM: "SUS", OSIS: "Sus", Names: []string{"Susanna"}, SortOrder: 50, Chapters: 0},
		{Code: "BL", USFM: "BEL", OSIS: "Bel", Names: []string{"Bel and the Dragon"}, SortOrder: 51, Chapters: 0},
		{Code: "M1", USFM: "1MA", OSIS: "1Macc", Names: []string{"1 Maccabees"}, SortOrder: 52, Chapters: 0},
		{Code: "M2", USFM: "2MA", OSIS: "2Macc", Names: []string{"2 Maccabees"}, SortOrder: 53, Chapters: 0},
		{Code: "E1", USFM: "1ES", OSIS: "1Esd", Names: []string{"1 Esdras"}, SortOrder: 54, Chapters: 0},
		{Code: "PX", USFM: "PS2", OSIS: "AddPs", Names: []string{"Psalm 151"}, SortOrder: 56, Chapters: 0},
		{Code: "M3", USFM: "3MA", OSIS: "3Macc", Names: []string{"3 Maccabees"}, SortOrder: 57, Chapters: 0},
		{Code: "E2", USFM: "2ES", OSIS: "2Esd", Names: []string{"2 Esdras", "5 Ezra"}, SortOrder: 58, Chapters: 0},
		{Code: "M4", USFM: "4MA", OSIS: "4Macc", Names: []string{"4 Maccabees"}, SortOrder: 59, Chapters: 0},
		{Code: "OS", USFM: "ODS", OSIS: "OdesSol", Names: []string{"Odes of Solomon"}, SortOrder: 60, Chapters: 0},
		{Code: "SP", USFM: "PSS", OSIS: "PssSol", Names: []string{"Psalms of Solomon"}, SortOrder: 61, Chapters: 0},
		{Code: "LL", USFM: "EPL", OSIS: "EpLao", Names: []string{"Epistle to the Laodiceans"}, SortOrder: 62, Chapters: 0},
		{Code: "N1", USFM: "1EN", OSIS: "1En", Names: []string{"Ethiopic Apocalypse of Enoch"}, SortOrder: 63, Chapters: 0},
		{Code: "JE", USFM: "JUB", OSIS: "Jub", Names: []string{"Jubilees"}, SortOrder: 64, Chapters: 0},
		{Code: "AD", USFM: "DNT", OSIS: "AddDan", Names: []string{"Additions to Daniel"}, SortOrder: 65, Chapters: 14},
		{Code: "DG", USFM: "DAG", OSIS: "DanGr", Names: []string{"Daniel (Greek)"}, SortOrder: 66, Chapters: 12},
		{Code: "MT", USFM: "MAT", OSIS: "Matt", Names: []string{"Matthew", "Mt", "Matt", "Mat"}, SortOrder: 70, Chapters: 28},
		{Code: "MK", USFM: "MRK", OSIS: "Mark", Names: []string{"Mark", "Mk", "Mar", "Mrk"}, SortOrder: 71, Chapters: 16},
		{Code: "LK", USFM: "LUK", OSIS: "Luke", Names: []string{"Luke", "Lk", "Luk", "Lu"}, SortOrder: 72, Chapters: 24},
		{Code: "JN", USFM: "JHN", OSIS: "John", Names: []string{"John", "Jn", "Joh", "Jo"}, SortOrder: 73, Chapters: 21},
		{Code: "AC", USFM: "ACT", OSIS: "Acts", Names: []string{"Acts", "Ac", "Act"}, SortOrder: 74, Chapters: 28},
		{Code: "RM", USFM: "ROM", OSIS: "Rom", Names: []string{"Romans", "Ro", "Rom", "Rmn", "Rmns"}, SortOrder: 75, Chapters: 16},
		{Code: "C1", USFM: "1CO", OSIS: "1Cor", Names: []string{"1 Corinthians", "1Co", "1 Cor", "1Cor", "ICo", "1 Co", "I Corinthians", "I Cor", "I Co"}, SortOrder: 76, Chapters: 16},
		{Code: "C2", USFM: "2CO", OSIS: "2Cor", Names: []string{"2 Corinthians", "2Co", "2 Cor", "2Cor", "IICo", "2 Co", "II Corinthians", "II Cor", "II Co"}, SortOrder: 77, Chapters: 13},
		{Code: "GL", USFM: "GAL", OSIS: "Gal", Names: []string{"Galatians", "Ga", "Gal", "Gltns"}, SortOrder: 78, Chapters: 6},
		{Code: "EP", USFM: "EPH", OSIS: "Eph", Names: []string{"Ephesians", "Ep", "Eph", "Ephn"}, SortOrder: 79, Chapters: 6},
		{Code: "PP", USFM: "PHP", OSIS: "Phil", Names: []string{"Philippians", "Pp", "Phi", "Phil"}, SortOrder: 80, Chapters: 4},
		{Code: "CL", USFM: "COL", OSIS: "Col", Names: []string{"Colossians", "Co", "Col", "Colo", "Cln", "Clns"}, SortOrder: 81, Chapters: 4},
		{Code: "H1", USFM: "1TH", OSIS: "1Thess", Names: []string{"1 Thessalonians", "1Th", "1 Thess", "1Thess", "ITh", "1 Thes", "1Thes", "1 The", "1The", "1 Th", "I Thessalonians", "I Thess", "I The", "I Th"}, SortOrder: 82, Chapters: 5},
		{Code: "H2", USFM: "2TH", OSIS: "2Thess", Names: []string{"2 Thessalonians", "2Th", "2 Thess", "2Thess", "IITh", "2 Thes", "2Thes", "2 The", "2The", "2 Th", "II Thessalonians", "II Thess", "II The", "II Th"}, SortOrder: 83, Chapters: 3},
		{Code: "T1", USFM: "1TI", OSIS: "1Tim", Names: []string{"1 Timothy", "1Ti", "1 Tim", "1Tim", "1 Ti", "ITi", "I Timothy", "I Tim", "I Ti"}, SortOrder: 84, Chapters: 6},
		{Code: "T2", USFM: "2TI", OSIS: "2Tim", Names: []string{"2 Timothy", "2Ti", "2 Tim", "2Tim", "2 Ti", "IITi", "II Timothy", "II Tim", "II Ti"}, SortOrder: 85, Chapters: 4},
		{Code: "TT", USFM: "TIT", OSIS: "Titus", Names: []string{"Titus", "Ti", "Tit", "Tt", "Ts"}, SortOrder: 86, Chapters: 3},
		{Code: "PM", USFM: "PHM", OSIS: "Phlm", Names: []string{"Philemon", "Pm", "Phile", "Philm"}, SortOrder: 87, Chapters: 1},
		{Code: "HB", USFM: "HEB", OSIS: "Heb", Names: []string{"Hebrews", "He", "Heb", "Hw"}, SortOrder: 88, Chapters: 13},
		{Code: "JM", USFM: "JAS", OSIS: "Jas", Names: []string{"James", "Jm", "Jam", "Jas", "Ja"}, SortOrder: 89, Chapters: 5},
		{Code: "P1", USFM: "1PE", OSIS: "1Pet", Names: []string{"1 Peter", "1P", "1 Pet", "1Pet", "IPe", "I Peter", "I Pet", "I Pe"}, SortOrder: 90, Chapters: 5},
		{Code: "P2", USFM: "2PE", OSIS: "2Pet", Names: []string{"2 Peter", "2P", "2 Pet", "2Pet", "2Pe", "IIP", "II Peter", "II Pet", "II Pe"}, SortOrder: 91, Chapters: 3},
		{Code: "J1", USFM: "1JN", OSIS: "1John", Names: []string{"1 John", "1J", "1 Jn", "1Jn", "1 Jo", "IJo", "I John", "I Jo", "I Jn"}, SortOrder: 92, Chapters: 5},
		{Code: "J2", USFM: "2JN", OSIS: "2John", Names: []string{"2 John", "2J", "2 Jn", "2Jn", "2 Jo", "IIJo", "II John", "II Jo", "II Jn"}, SortOrder: 93, Chapters: 1},
		{Code: "J3", USFM: "3JN", OSIS: "3John", Names: []string{"3 John", "3J", "3 Jn", "3Jn", "3 Jo", "IIIJo", "III John", "III Jo", "III Jn"}, SortOrder: 94, Chapters: 1},
		{Code: "JD", USFM: "JUD", OSIS: "Jude", Names: []string{"Jude"}, SortOrder: 95, Chapters: 1},
		{Code: "RV", USFM: "REV", OSIS: "Rev", Names: []string{"Revelation", "Re", "Rev", "Rvltn"}, SortOrder: 96, Chapters: 22},
		{Code: "BK", USFM: "BAK", OSIS: "Back", Names: []string{"Back matter"}, SortOrder: 97, Chapters: 0},
		{Code: "OH", USFM: "OTH", OSIS: "Other", Names: []string{"Other"}, SortOrder: 98, Chapters: 0},
		{Code: "GS", USFM: "GLO", OSIS: "Glossary", Names: []string{"Glossary"}, SortOrder: 106, Chapters: 0},
		{Code: "CN", USFM: "CNC", OSIS: "Conc", Names: []string{"Concordance"}, SortOrder: 107, Chapters: 0},
		{Code: "TX", USFM: "TDX", OSIS: "Topic", Names: []string{"Topical Index"}, SortOrder: 108, Chapters: 0},
		{Code: "NX", USFM: "NDX", OSIS: "Name", Names: []string{"Names Index"}, SortOrder: 109, Chapters: 0},
	}
}
