package changelog

import (
	"regexp"
	"strings"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

const (
	winlibsPrefix = "This is the winlibs Intel/AMD"
	winlibsSuffix = "build of:"

	// WinLibsHeader is the header written above the package list in release notes
	WinLibsHeader = "This is the winlibs Intel/AMD 64-bit & 32-bit standalone build of:"

	threadModelLabel = "Thread model:"
	runtimeLabel     = "Runtime library:"
	compiledMarker   = "This build was compiled with GCC"
	packagedMarker   = "and packaged on"
)

var (
	packageInfoHeading = regexp.MustCompile(`(?i)^##\s*Package Info`)
	sectionHeading     = regexp.MustCompile(`^\s*##`)
	htmlTag            = regexp.MustCompile(`<[^>]+>`)
)

func isWinLibsHeader(line string) bool {
	return strings.Contains(line, winlibsPrefix) && strings.Contains(line, winlibsSuffix)
}

func isCompiledLine(line string) bool {
	return strings.Contains(line, compiledMarker) && strings.Contains(line, packagedMarker)
}

func isPackageLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "- ")
}

// ParseInfoFile reads a WinLibs version_info.txt. The package list starts
// after the "This is the winlibs ... build of:" header and ends at the first
// thread model, runtime or compiled-with line, or at the first other
// non-empty line after a package line.
func ParseInfoFile(text string) model.BuildInfo {
	var info model.BuildInfo
	inList := false
	lastWasPackage := false

	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)

		if !inList && info.Header == "" && isWinLibsHeader(line) {
			info.Header = trimmed
			inList = true
			continue
		}

		if inList {
			switch {
			case isPackageLine(trimmed):
				info.PackageLines = append(info.PackageLines, trimmed)
				lastWasPackage = true
				continue
			case trimmed == "":
				continue
			case strings.HasPrefix(trimmed, threadModelLabel),
				strings.HasPrefix(trimmed, runtimeLabel),
				isCompiledLine(line):
				inList = false
			case lastWasPackage:
				inList = false
			}
		}

		if inList {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, threadModelLabel):
			info.ThreadModel = normalizeThreadModel(labelValue(trimmed))
		case strings.HasPrefix(trimmed, runtimeLabel):
			info.Runtime = labelValue(trimmed)
		case isCompiledLine(line):
			info.CompiledWith = strings.TrimRight(trimmed, ".")
		}
	}

	info.Packages = parseLines(info.PackageLines)
	return info
}

// ExtractPackageSection parses the package list of a published release body:
// package lines after the "## Package Info" heading and the WinLibs header,
// up to the next "##" heading.
func ExtractPackageSection(body string) *model.Manifest {
	return ParseReleaseBody(body).Packages
}

// ParseReleaseBody reads the Package Info section of a release body written
// by RenderReleaseNotes, including thread model, runtime and compiled-with
// lines.
func ParseReleaseBody(body string) model.BuildInfo {
	var info model.BuildInfo
	inInfo := false
	inList := false

	for _, line := range splitLines(body) {
		trimmed := strings.TrimSpace(line)

		if packageInfoHeading.MatchString(line) {
			inInfo = true
			continue
		}
		if !inInfo {
			continue
		}

		if isWinLibsHeader(line) {
			info.Header = trimmed
			inList = true
			continue
		}

		if sectionHeading.MatchString(line) {
			break
		}

		if inList && isPackageLine(trimmed) {
			info.PackageLines = append(info.PackageLines, trimmed)
			continue
		}

		plain := strings.TrimSpace(htmlTag.ReplaceAllString(trimmed, ""))
		switch {
		case strings.HasPrefix(plain, threadModelLabel):
			info.ThreadModel = normalizeThreadModel(labelValue(plain))
		case strings.HasPrefix(plain, runtimeLabel):
			info.Runtime = labelValue(plain)
		case strings.HasPrefix(trimmed, ">") && strings.Contains(line, "compiled with GCC"):
			info.CompiledWith = strings.TrimRight(strings.TrimSpace(strings.TrimPrefix(trimmed, ">")), ".")
		}
	}

	info.Packages = parseLines(info.PackageLines)
	return info
}

func labelValue(line string) string {
	_, value, _ := strings.Cut(line, ":")
	return strings.TrimSpace(value)
}

func normalizeThreadModel(v string) string {
	if strings.EqualFold(v, "posix") {
		return "POSIX"
	}
	return v
}
