package lcov

import (
	"fmt"
	"strconv"
	"strings"

	"trimlcov/internal/model"
)

// Parse classifies one tracefile line. Lines without a colon keep the whole
// text as keyword and pass through as KindOther.
func Parse(raw string, number int) model.Record {
	keyword, rest, _ := strings.Cut(raw, ":")

	rec := model.Record{
		Raw:     raw,
		Keyword: keyword,
		Rest:    rest,
		Number:  number,
	}

	switch keyword {
	case "SF":
		rec.Kind = model.KindSourceFile
	case "BRDA":
		rec.Kind = model.KindBranchData
	case "DA":
		rec.Kind = model.KindLineData
	default:
		rec.Kind = model.KindOther
	}
	return rec
}

// sourceLine extracts the 1-based line number from the first comma-separated
// field of a DA or BRDA payload.
func sourceLine(rest string) (int, error) {
	field, _, _ := strings.Cut(rest, ",")
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("%w: line number %q: %w", ErrMalformedRecord, field, err)
	}
	return n, nil
}
