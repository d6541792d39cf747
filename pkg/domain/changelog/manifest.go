// Package changelog parses WinLibs package manifests, diffs two of them and
// renders the result as release-note Markdown.
package changelog

import (
	"regexp"
	"strings"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

// packageLinePattern matches "- <name> <version> [(<extra>)]". The version
// token must contain a digit so that free-form bullet text is not mistaken
// for a package.
var packageLinePattern = regexp.MustCompile(
	`^[-*•]\s+(.+?)\s+([0-9A-Za-z.]*[0-9][0-9A-Za-z.]*(?:-[\w.]+)?(?:-\w+)?)\s*(\(.*\))?\s*$`,
)

// ParseLine parses a single manifest line. ok is false for lines that are not
// package lines.
func ParseLine(line string) (entry model.PackageEntry, ok bool) {
	trimmed := strings.TrimSpace(line)
	m := packageLinePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return model.PackageEntry{}, false
	}

	name := strings.TrimSpace(m[1])
	if name == "" {
		return model.PackageEntry{}, false
	}

	return model.PackageEntry{
		Name:    name,
		Version: strings.TrimSpace(m[2]),
		Extra:   strings.TrimSpace(m[3]),
		Line:    trimmed,
	}, true
}

// ParseManifest extracts package entries from text. Unrecognized lines are
// skipped. A package listed twice keeps the position of its first line and
// the version of its last line.
func ParseManifest(text string) *model.Manifest {
	return parseLines(splitLines(text))
}

func parseLines(lines []string) *model.Manifest {
	manifest := model.NewManifest()
	for _, line := range lines {
		if entry, ok := ParseLine(line); ok {
			manifest.Set(entry)
		}
	}
	return manifest
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
