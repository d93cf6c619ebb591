package model

// Markers shown next to suppressions in the browser
const (
	IconBranch   = "⑂"
	IconLine     = "≡"
	IconSelected = "›"
	IconMissing  = "✗" // Source no longer readable
)

// Icon returns the marker for a record kind.
func (k RecordKind) Icon() string {
	if k == KindBranchData {
		return IconBranch
	}
	return IconLine
}
