package release

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"
)

// CompareTags orders two version tags. Date tags like "2025.06.09" or
// "2025.06.09-r2" compare by their numeric runs left to right, so a rebuild
// suffix sorts above its base date. Other tags that both parse as semantic
// versions (a leading "v" is accepted) are compared as such, falling back to
// numeric runs. The result is -1, 0 or +1.
func CompareTags(a, b string) int {
	if isDateTag(a) || isDateTag(b) {
		return compareNumericRuns(a, b)
	}
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return compareNumericRuns(a, b)
}

// PreviousTag returns the greatest tag strictly lower than current. When
// current is empty the greatest tag overall is returned. The result is ""
// when no tag qualifies.
func PreviousTag(tags []string, current string) string {
	var best string
	for _, tag := range tags {
		if tag == "" || tag == current {
			continue
		}
		if current != "" && CompareTags(tag, current) >= 0 {
			continue
		}
		if best == "" || CompareTags(tag, best) > 0 {
			best = tag
		}
	}
	return best
}

// isDateTag reports whether tag starts with a four digit year
func isDateTag(tag string) bool {
	runs := numericRuns(tag)
	return len(runs) > 0 && runs[0] >= 1000 && unicode.IsDigit(rune(tag[0]))
}

func compareNumericRuns(a, b string) int {
	ra, rb := numericRuns(a), numericRuns(b)
	for i := 0; i < len(ra) && i < len(rb); i++ {
		if ra[i] != rb[i] {
			if ra[i] < rb[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(ra) < len(rb):
		return -1
	case len(ra) > len(rb):
		return 1
	}
	return strings.Compare(a, b)
}

func numericRuns(s string) []uint64 {
	fields := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	runs := make([]uint64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			continue
		}
		runs = append(runs, n)
	}
	return runs
}
