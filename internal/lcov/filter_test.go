package lcov

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"trimlcov/internal/model"
)

// writeSource creates a source file in a temp dir and returns its path.
func writeSource(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runFilter(t *testing.T, f *Filter, input string) (string, model.Summary, error) {
	t.Helper()
	var out strings.Builder
	s, err := f.Run(strings.NewReader(input), &out)
	return out.String(), s, err
}

func TestRun_Scenarios(t *testing.T) {
	foo := writeSource(t, "foo.c",
		"#include <glib.h>",
		"void f(void) {",
		"  g_assert_not_reached();",
		"}",
		"int x = 1;",
	)
	bar := writeSource(t, "bar.c",
		"void g(int x) {",
		"  g_return_if_fail(x);",
		"}",
	)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "unreachable line suppressed",
			input: "SF:" + foo + "\nDA:3,0\n",
			want:  "SF:" + foo + "\n",
		},
		{
			name:  "plain line kept",
			input: "SF:" + foo + "\nDA:5,10\n",
			want:  "SF:" + foo + "\nDA:5,10\n",
		},
		{
			name:  "precondition branch suppressed",
			input: "SF:" + bar + "\nBRDA:2,0,0,1\n",
			want:  "SF:" + bar + "\n",
		},
		{
			name:  "other records pass through without SF",
			input: "FN:1,main\n",
			want:  "FN:1,main\n",
		},
		{
			name:  "unreachable line also drops its branches",
			input: "SF:" + foo + "\nBRDA:3,0,0,-\nBRDA:5,0,0,1\n",
			want:  "SF:" + foo + "\nBRDA:5,0,0,1\n",
		},
		{
			name:  "branch keyword does not apply to lines",
			input: "SF:" + bar + "\nDA:2,4\n",
			want:  "SF:" + bar + "\nDA:2,4\n",
		},
		{
			name:  "blank lines and colonless records pass through",
			input: "TN:\n\nend_of_record\n",
			want:  "TN:\n\nend_of_record\n",
		},
		{
			name:  "order preserved across files",
			input: "TN:t\nSF:" + foo + "\nFN:2,f\nDA:2,1\nDA:3,0\nDA:5,1\nLH:2\nend_of_record\nSF:" + bar + "\nBRDA:1,0,0,1\nBRDA:2,0,0,1\nBRDA:2,0,1,0\nend_of_record\n",
			want:  "TN:t\nSF:" + foo + "\nFN:2,f\nDA:2,1\nDA:5,1\nLH:2\nend_of_record\nSF:" + bar + "\nBRDA:1,0,0,1\nend_of_record\n",
		},
		{
			name:  "missing final newline",
			input: "SF:" + foo + "\nDA:5,1",
			want:  "SF:" + foo + "\nDA:5,1\n",
		},
		{
			name:  "CR-only input",
			input: "SF:" + foo + "\rDA:3,0\rDA:5,1\r",
			want:  "SF:" + foo + "\nDA:5,1\n",
		},
		{
			name:  "CRLF input",
			input: "SF:" + foo + "\r\nDA:3,0\r\nDA:5,1\r\n",
			want:  "SF:" + foo + "\nDA:5,1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := runFilter(t, NewFilter(Options{}), tt.input)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Run() output =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestRun_Faults(t *testing.T) {
	src := writeSource(t, "foo.c", "a", "b")
	missing := filepath.Join(t.TempDir(), "missing.c")

	tests := []struct {
		name       string
		input      string
		wantErr    error
		wantOutput string
	}{
		{
			name:       "DA before any SF",
			input:      "TN:\nDA:1,5\n",
			wantErr:    ErrLineOutOfRange,
			wantOutput: "TN:\n",
		},
		{
			name:       "BRDA before any SF",
			input:      "BRDA:1,0,0,1\n",
			wantErr:    ErrLineOutOfRange,
			wantOutput: "",
		},
		{
			name:       "line beyond end of file",
			input:      "SF:" + src + "\nDA:2,1\nDA:3,1\nDA:1,1\n",
			wantErr:    ErrLineOutOfRange,
			wantOutput: "SF:" + src + "\nDA:2,1\n",
		},
		{
			name:       "line zero",
			input:      "SF:" + src + "\nDA:0,1\n",
			wantErr:    ErrLineOutOfRange,
			wantOutput: "SF:" + src + "\n",
		},
		{
			name:       "negative line",
			input:      "SF:" + src + "\nBRDA:-1,0,0,1\n",
			wantErr:    ErrLineOutOfRange,
			wantOutput: "SF:" + src + "\n",
		},
		{
			name:       "non-numeric line",
			input:      "SF:" + src + "\nDA:x,1\n",
			wantErr:    ErrMalformedRecord,
			wantOutput: "SF:" + src + "\n",
		},
		{
			name:       "empty DA payload",
			input:      "SF:" + src + "\nDA\n",
			wantErr:    ErrMalformedRecord,
			wantOutput: "SF:" + src + "\n",
		},
		{
			name:       "unreadable source",
			input:      "TN:\nSF:" + missing + "\nDA:1,1\n",
			wantErr:    ErrSourceUnreadable,
			wantOutput: "TN:\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := runFilter(t, NewFilter(Options{}), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.wantOutput {
				t.Errorf("Run() output = %q, want %q", got, tt.wantOutput)
			}
		})
	}
}

func TestRun_UnreadableSourceKeepsCause(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.c")
	_, _, err := runFilter(t, NewFilter(Options{}), "SF:"+missing+"\n")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Run() error = %v, want wrapped fs.ErrNotExist", err)
	}
	if !strings.Contains(err.Error(), "input line 1") {
		t.Errorf("Run() error = %v, want input line number", err)
	}
}

func TestRun_CROnlySource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mac.c")
	if err := os.WriteFile(path, []byte("void f(void) {\r  g_assert_not_reached ();\r}\r"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, _, err := runFilter(t, NewFilter(Options{}), "SF:"+path+"\nDA:2,0\nDA:3,1\n")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := "SF:" + path + "\nDA:3,1\n"; got != want {
		t.Errorf("Run() output = %q, want %q", got, want)
	}
}

func TestRun_SFReplacesCache(t *testing.T) {
	long := writeSource(t, "long.c", "a", "b", "c", "g_assert_not_reached();")
	short := writeSource(t, "short.c", "a")

	_, _, err := runFilter(t, NewFilter(Options{}), "SF:"+long+"\nDA:4,0\nSF:"+short+"\nDA:4,0\n")
	if !errors.Is(err, ErrLineOutOfRange) {
		t.Fatalf("Run() error = %v, want ErrLineOutOfRange after cache replacement", err)
	}
}

func TestRun_Summary(t *testing.T) {
	src := writeSource(t, "foo.c",
		"g_assert(x);",
		"g_assert_not_reached();",
		"G_DEFINE_TYPE(Foo, foo, G_TYPE_OBJECT)",
		"x++;",
	)
	input := strings.Join([]string{
		"TN:",
		"SF:" + src,
		"DA:1,1",
		"DA:2,0",
		"DA:4,3",
		"BRDA:1,0,0,1",
		"BRDA:1,0,1,0",
		"BRDA:2,0,0,-",
		"BRDA:3,0,0,1",
		"BRDA:4,0,0,1",
		"end_of_record",
	}, "\n") + "\n"

	_, s, err := runFilter(t, NewFilter(Options{}), input)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if s.RecordsRead != 11 {
		t.Errorf("RecordsRead = %d, want 11", s.RecordsRead)
	}
	if s.RecordsKept != 6 {
		t.Errorf("RecordsKept = %d, want 6", s.RecordsKept)
	}
	if s.SourceFilesLoaded != 1 {
		t.Errorf("SourceFilesLoaded = %d, want 1", s.SourceFilesLoaded)
	}
	if s.LineDataSeen != 3 || s.LineDataDropped != 1 {
		t.Errorf("line data = %d seen/%d dropped, want 3/1", s.LineDataSeen, s.LineDataDropped)
	}
	if s.BranchDataSeen != 5 || s.BranchDataDropped != 4 {
		t.Errorf("branch data = %d seen/%d dropped, want 5/4", s.BranchDataSeen, s.BranchDataDropped)
	}
	// "g_assert" precedes "g_assert_not_reached" in the branch set
	if got := s.KeywordHits["g_assert"]; got != 3 {
		t.Errorf("KeywordHits[g_assert] = %d, want 3", got)
	}
	if got := s.KeywordHits["G_DEFINE_TYPE"]; got != 1 {
		t.Errorf("KeywordHits[G_DEFINE_TYPE] = %d, want 1", got)
	}
	if got := s.KeywordHits["g_assert_not_reached"]; got != 1 {
		t.Errorf("KeywordHits[g_assert_not_reached] = %d, want 1", got)
	}

	if len(s.Suppressions) != 5 {
		t.Fatalf("len(Suppressions) = %d, want 5", len(s.Suppressions))
	}
	first := s.Suppressions[0]
	if first.Kind != model.KindLineData || first.Line != 2 || first.Record != "DA:2,0" || first.Path != src {
		t.Errorf("Suppressions[0] = %+v", first)
	}
}

func TestProcess_CustomKeywordsAndLoader(t *testing.T) {
	sources := map[string][]string{
		"src/a.c": {"ASSERT(p);", "call();", "UNREACHABLE();"},
	}
	var loaded []string
	f := NewFilter(Options{
		LineKeywords:   KeywordSet{"UNREACHABLE"},
		BranchKeywords: KeywordSet{"ASSERT"},
		Loader: LoaderFunc(func(path string) ([]string, error) {
			loaded = append(loaded, path)
			lines, ok := sources[path]
			if !ok {
				return nil, fs.ErrNotExist
			}
			return lines, nil
		}),
	})

	steps := []struct {
		raw  string
		keep bool
	}{
		{"SF:src/a.c", true},
		{"BRDA:1,0,0,1", false},
		{"DA:1,1", true},
		{"BRDA:3,0,0,1", true},
		{"DA:3,0", false},
		{"DA:2,1", true},
	}
	for i, st := range steps {
		keep, err := f.Process(Parse(st.raw, i+1))
		if err != nil {
			t.Fatalf("Process(%q) error = %v", st.raw, err)
		}
		if keep != st.keep {
			t.Errorf("Process(%q) = %v, want %v", st.raw, keep, st.keep)
		}
	}
	if len(loaded) != 1 || loaded[0] != "src/a.c" {
		t.Errorf("loader calls = %v, want [src/a.c]", loaded)
	}
}

func TestProcess_EmptyKeywordSetsKeepEverything(t *testing.T) {
	f := NewFilter(Options{
		LineKeywords:   KeywordSet{},
		BranchKeywords: KeywordSet{},
		Loader: LoaderFunc(func(string) ([]string, error) {
			return []string{"g_assert_not_reached();"}, nil
		}),
	})
	for i, raw := range []string{"SF:x.c", "DA:1,0", "BRDA:1,0,0,1"} {
		keep, err := f.Process(Parse(raw, i+1))
		if err != nil || !keep {
			t.Errorf("Process(%q) = %v, %v; want true, nil", raw, keep, err)
		}
	}
}

type countingObserver struct {
	seen       map[model.RecordKind]int
	suppressed map[string]int
	loaded     []string
}

func (o *countingObserver) RecordSeen(k model.RecordKind) { o.seen[k]++ }
func (o *countingObserver) RecordSuppressed(k model.RecordKind, kw string) {
	o.suppressed[k.String()+"/"+kw]++
}
func (o *countingObserver) SourceLoaded(path string, _ int) { o.loaded = append(o.loaded, path) }

func TestRun_ObserverAndLogging(t *testing.T) {
	src := writeSource(t, "foo.c", "g_return_val_if_fail(p, NULL);", "g_assert_not_reached();")
	obs := &countingObserver{seen: map[model.RecordKind]int{}, suppressed: map[string]int{}}
	core, logs := observer.New(zap.DebugLevel)

	f := NewFilter(Options{Observer: obs, Logger: zap.New(core)})
	_, _, err := runFilter(t, f, "TN:\nSF:"+src+"\nBRDA:1,0,0,1\nDA:2,0\nDA:1,1\n")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if obs.seen[model.KindOther] != 1 || obs.seen[model.KindSourceFile] != 1 ||
		obs.seen[model.KindBranchData] != 1 || obs.seen[model.KindLineData] != 2 {
		t.Errorf("observer seen = %v", obs.seen)
	}
	if obs.suppressed["BRDA/g_return_val_if_fail"] != 1 || obs.suppressed["DA/g_assert_not_reached"] != 1 {
		t.Errorf("observer suppressed = %v", obs.suppressed)
	}
	if len(obs.loaded) != 1 || obs.loaded[0] != src {
		t.Errorf("observer loaded = %v", obs.loaded)
	}

	if n := logs.FilterMessage("record suppressed").Len(); n != 2 {
		t.Errorf("record suppressed log entries = %d, want 2", n)
	}
	if n := logs.FilterMessage("tracefile filtered").Len(); n != 1 {
		t.Errorf("tracefile filtered log entries = %d, want 1", n)
	}
}

func TestSummary_IsSnapshot(t *testing.T) {
	f := NewFilter(Options{Loader: LoaderFunc(func(string) ([]string, error) {
		return []string{"g_assert_not_reached();"}, nil
	})})
	for i, raw := range []string{"SF:x.c", "DA:1,0"} {
		if _, err := f.Process(Parse(raw, i+1)); err != nil {
			t.Fatal(err)
		}
	}
	snap := f.Summary()
	snap.KeywordHits["g_assert_not_reached"] = 99
	snap.Suppressions[0].Path = "changed"

	again := f.Summary()
	if again.KeywordHits["g_assert_not_reached"] != 1 {
		t.Errorf("KeywordHits mutated through snapshot")
	}
	if again.Suppressions[0].Path != "x.c" {
		t.Errorf("Suppressions mutated through snapshot")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRun_WriteFailure(t *testing.T) {
	f := NewFilter(Options{})
	_, err := f.Run(strings.NewReader("TN:\n"), failingWriter{})
	if !errors.Is(err, ErrWrite) {
		t.Errorf("Run() error = %v, want ErrWrite", err)
	}
}
