package changelog

import (
	"fmt"
	"strings"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

var groupOrder = []model.ChangeKind{model.ChangeAdded, model.ChangeUpdated, model.ChangeRemoved}

// RenderChangelog renders entries as Markdown, one "### <Kind>" heading per
// non-empty group in Added, Updated, Removed order. Entries keep their order
// within a group. The output contains nothing time or map dependent.
func RenderChangelog(entries []model.ChangeEntry) string {
	var sb strings.Builder

	for _, kind := range groupOrder {
		var lines []string
		for _, e := range entries {
			if e.Kind == kind {
				lines = append(lines, formatEntry(e))
			}
		}
		if len(lines) == 0 {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "### %s\n", kind)
		for _, line := range lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func formatEntry(e model.ChangeEntry) string {
	switch e.Kind {
	case model.ChangeAdded:
		return fmt.Sprintf("- %s: %s", e.Name, e.NewVersion)
	case model.ChangeUpdated:
		return fmt.Sprintf("- %s: %s -> %s", e.Name, e.OldVersion, e.NewVersion)
	default:
		return fmt.Sprintf("- %s: %s (removed)", e.Name, e.OldVersion)
	}
}

// HashBlockHeading returns the heading line that labels the hash block of an architecture
func HashBlockHeading(label string) string {
	return "#### " + strings.TrimSpace(label)
}

// AppendHashBlock appends a labelled, fenced block of hash lines to text.
// When a block with the same label is already present, text is returned
// unchanged.
func AppendHashBlock(text, label string, hashLines []string) string {
	heading := HashBlockHeading(label)
	if HasHashBlock(text, label) {
		return text
	}

	var sb strings.Builder
	sb.WriteString(text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		sb.WriteString("\n")
	}
	if text != "" {
		sb.WriteString("\n")
	}
	sb.WriteString(heading)
	sb.WriteString("\n\n```\n")
	for _, line := range hashLines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")

	return sb.String()
}

// HasHashBlock reports whether text already carries a hash block for label
func HasHashBlock(text, label string) bool {
	heading := HashBlockHeading(label)
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == heading {
			return true
		}
	}
	return false
}

// FormatDigests renders digests as aligned "ALGO: value" lines for a hash block
func FormatDigests(digests []model.Digest) []string {
	width := 0
	for _, d := range digests {
		width = max(width, len(d.Algorithm))
	}

	lines := make([]string, len(digests))
	for i, d := range digests {
		lines[i] = d.Algorithm + ":" + strings.Repeat(" ", width-len(d.Algorithm)+1) + d.Value
	}
	return lines
}
