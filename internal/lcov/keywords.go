package lcov

import (
	"fmt"
	"strings"
)

// KeywordSet is an ordered list of substrings that mark a source line as
// uninteresting for coverage.
type KeywordSet []string

// DefaultLineKeywords returns the keywords that suppress DA records.
func DefaultLineKeywords() KeywordSet {
	return KeywordSet{"g_assert_not_reached"}
}

// DefaultBranchKeywords returns the keywords that suppress BRDA records.
func DefaultBranchKeywords() KeywordSet {
	return KeywordSet{
		"g_assert",
		"g_return_if_fail",
		"g_return_val_if_fail",
		"G_DEFINE_TYPE",
	}
}

// Match reports the first keyword contained in text. Matching is
// case-sensitive and unanchored.
func (s KeywordSet) Match(text string) (string, bool) {
	for _, kw := range s {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

// Validate rejects empty keywords, which would match every line.
func (s KeywordSet) Validate() error {
	for i, kw := range s {
		if kw == "" {
			return fmt.Errorf("keyword %d is empty", i)
		}
	}
	return nil
}
