// Package lcov filters LCOV tracefiles, dropping line and branch coverage
// records whose source line contains a suppression keyword.
//
// A Filter makes a single ordered pass over the records. SF records replace
// the cached source file, DA and BRDA records are checked against that cache,
// and every other record passes through untouched. Any anomaly in the input is
// fatal: the filter returns an error and the caller is expected to abort.
package lcov

import "errors"

// Sentinel errors for the failure classes of a filtering pass. They are
// always wrapped with the input line number and the offending record.
var (
	ErrSourceUnreadable = errors.New("source file unreadable")
	ErrMalformedRecord  = errors.New("malformed record")
	ErrLineOutOfRange   = errors.New("line number out of range")
	ErrWrite            = errors.New("write output")
)
