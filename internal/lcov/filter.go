package lcov

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"slices"

	"go.uber.org/zap"

	"trimlcov/internal/model"
)

// Observer is notified as the filter classifies records.
type Observer interface {
	RecordSeen(kind model.RecordKind)
	RecordSuppressed(kind model.RecordKind, keyword string)
	SourceLoaded(path string, lines int)
}

type nopObserver struct{}

func (nopObserver) RecordSeen(model.RecordKind)               {}
func (nopObserver) RecordSuppressed(model.RecordKind, string) {}
func (nopObserver) SourceLoaded(string, int)                  {}

// Options configures a Filter. Zero values select the defaults.
type Options struct {
	LineKeywords   KeywordSet // nil selects DefaultLineKeywords
	BranchKeywords KeywordSet // nil selects DefaultBranchKeywords
	Loader         SourceLoader
	Observer       Observer
	Logger         *zap.Logger
}

// Filter drops DA and BRDA records whose source line contains a keyword.
// It holds the most recently declared source file and is not safe for
// concurrent use.
type Filter struct {
	line     KeywordSet
	branch   KeywordSet
	loader   SourceLoader
	observer Observer
	logger   *zap.Logger

	source  model.SourceFile
	summary model.Summary
}

func NewFilter(opts Options) *Filter {
	f := &Filter{
		line:     opts.LineKeywords,
		branch:   opts.BranchKeywords,
		loader:   opts.Loader,
		observer: opts.Observer,
		logger:   opts.Logger,
		summary:  model.Summary{KeywordHits: map[string]int{}},
	}
	if f.line == nil {
		f.line = DefaultLineKeywords()
	}
	if f.branch == nil {
		f.branch = DefaultBranchKeywords()
	}
	if f.loader == nil {
		f.loader = FileLoader{}
	}
	if f.observer == nil {
		f.observer = nopObserver{}
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	return f
}

// Process decides whether rec is kept. SF records replace the source cache
// and are always kept.
func (f *Filter) Process(rec model.Record) (bool, error) {
	f.summary.RecordsRead++
	f.observer.RecordSeen(rec.Kind)

	keep := true
	switch rec.Kind {
	case model.KindSourceFile:
		src, err := loadSource(f.loader, rec.Rest)
		if err != nil {
			return false, recordError(rec, err)
		}
		f.source = src
		f.summary.SourceFilesLoaded++
		f.observer.SourceLoaded(src.Path, len(src.Lines))
		f.logger.Debug("source loaded", zap.String("path", src.Path), zap.Int("lines", len(src.Lines)))

	case model.KindBranchData:
		f.summary.BranchDataSeen++
		dropped, err := f.suppress(rec, f.branch)
		if err != nil {
			return false, recordError(rec, err)
		}
		if dropped {
			f.summary.BranchDataDropped++
		}
		keep = !dropped

	case model.KindLineData:
		f.summary.LineDataSeen++
		dropped, err := f.suppress(rec, f.line)
		if err != nil {
			return false, recordError(rec, err)
		}
		if dropped {
			f.summary.LineDataDropped++
		}
		keep = !dropped
	}

	if keep {
		f.summary.RecordsKept++
	}
	return keep, nil
}

func (f *Filter) suppress(rec model.Record, keywords KeywordSet) (bool, error) {
	line, err := sourceLine(rec.Rest)
	if err != nil {
		return false, err
	}
	if line < 1 || line > len(f.source.Lines) {
		return false, fmt.Errorf("%w: line %d, %q has %d lines", ErrLineOutOfRange, line, f.source.Path, len(f.source.Lines))
	}

	text := f.source.Lines[line-1]
	kw, ok := keywords.Match(text)
	if !ok {
		return false, nil
	}

	f.summary.KeywordHits[kw]++
	f.summary.Suppressions = append(f.summary.Suppressions, model.Suppression{
		Kind:       rec.Kind,
		Path:       f.source.Path,
		Line:       line,
		Keyword:    kw,
		SourceText: text,
		Record:     rec.Raw,
	})
	f.observer.RecordSuppressed(rec.Kind, kw)
	f.logger.Debug("record suppressed",
		zap.String("record", rec.Raw),
		zap.String("path", f.source.Path),
		zap.Int("line", line),
		zap.String("keyword", kw),
	)
	return true, nil
}

func recordError(rec model.Record, err error) error {
	return fmt.Errorf("input line %d %q: %w", rec.Number, rec.Raw, err)
}

// Summary returns a snapshot of the counters collected so far.
func (f *Filter) Summary() model.Summary {
	s := f.summary
	s.KeywordHits = maps.Clone(f.summary.KeywordHits)
	s.Suppressions = slices.Clone(f.summary.Suppressions)
	return s
}

// Run filters every record of r into w. Output is flushed before returning,
// so records emitted ahead of a failure remain in w.
func (f *Filter) Run(r io.Reader, w io.Writer) (model.Summary, error) {
	out := bufio.NewWriter(w)

	err := f.run(r, out)
	if ferr := out.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("%w: %w", ErrWrite, ferr)
	}
	if err != nil {
		return f.Summary(), err
	}

	s := f.Summary()
	f.logger.Info("tracefile filtered",
		zap.Int("records_read", s.RecordsRead),
		zap.Int("records_kept", s.RecordsKept),
		zap.Int("source_files", s.SourceFilesLoaded),
		zap.Int("line_data_dropped", s.LineDataDropped),
		zap.Int("branch_data_dropped", s.BranchDataDropped),
	)
	return s, nil
}

func (f *Filter) run(r io.Reader, out *bufio.Writer) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)
	scanner.Split(model.ScanUniversalLines)

	number := 0
	for scanner.Scan() {
		number++
		rec := Parse(scanner.Text(), number)

		keep, err := f.Process(rec)
		if err != nil {
			return err
		}
		if !keep {
			continue
		}

		if _, err := out.WriteString(rec.Raw); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
		if err := out.WriteByte('\n'); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input after line %d: %w", number, err)
	}
	return nil
}
