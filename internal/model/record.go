package model

// Version is the trimlcov release string printed by --version.
const Version = "1.0.0"

// RecordKind classifies a tracefile record by its keyword.
type RecordKind int

const (
	KindOther RecordKind = iota
	KindSourceFile
	KindBranchData
	KindLineData
)

func (k RecordKind) String() string {
	switch k {
	case KindSourceFile:
		return "SF"
	case KindBranchData:
		return "BRDA"
	case KindLineData:
		return "DA"
	default:
		return "other"
	}
}

// Record is one line of an LCOV tracefile.
type Record struct {
	Raw     string     // Exact input text, terminator stripped
	Keyword string     // Text before the first colon (whole line if none)
	Rest    string     // Text after the first colon
	Kind    RecordKind // Classification of Keyword
	Number  int        // 1-based line number in the input stream
}

// SourceFile is the cached content of the most recently declared SF path.
type SourceFile struct {
	Path  string
	Lines []string
}

// Suppression describes a coverage record that was dropped from the output.
type Suppression struct {
	Kind       RecordKind
	Path       string // Source file the record refers to
	Line       int    // 1-based source line
	Keyword    string // Keyword that matched
	SourceText string // Text of the source line
	Record     string // Raw record that was dropped
}

// Summary holds the counters of one filtering pass.
type Summary struct {
	RecordsRead       int
	RecordsKept       int
	SourceFilesLoaded int
	LineDataSeen      int
	LineDataDropped   int
	BranchDataSeen    int
	BranchDataDropped int
	KeywordHits       map[string]int
	Suppressions      []Suppression
}
