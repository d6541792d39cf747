package changelog

import (
	"fmt"
	"strings"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

// FileHashHeading closes the release notes; hash blocks are appended below it
const FileHashHeading = "### File Hash"

// RenderReleaseNotes renders the complete release notes of a build. The
// package changelog section is computed from in.Previous and in.Current.
func RenderReleaseNotes(in model.ReleaseNotesInput) (string, error) {
	current := in.Current.Packages
	if current == nil {
		current = model.NewManifest()
	}

	entries, err := ComputeChangelog(in.Previous, current)
	if err != nil {
		return "", err
	}

	var lines []string
	add := func(l ...string) { lines = append(lines, l...) }

	if in.Current.Header != "" || len(in.Current.PackageLines) > 0 {
		add("## Package Info", WinLibsHeader)
		add(in.Current.PackageLines...)
		add("")
	}
	if in.Current.ThreadModel != "" {
		add("<strong>Thread model:</strong> "+in.Current.ThreadModel, "", "<br>", "")
	}
	if in.Current.Runtime != "" {
		add("<strong>Runtime library:</strong> "+in.Current.Runtime+"<br>", "")
	}
	if in.Current.CompiledWith != "" {
		add("> "+in.Current.CompiledWith, "")
	}

	add("## Script/Installer Changelogs")
	if len(in.ScriptChanges) == 0 {
		add("* None")
	}
	for _, c := range in.ScriptChanges {
		add("* " + c)
	}
	add("")

	add("## Package Changelogs")
	if len(entries) > 0 {
		add(strings.TrimRight(RenderChangelog(entries), "\n"))
	} else {
		add(noChangesMessage(in.PreviousState, in.PreviousTag)...)
	}
	if current.Len() == 0 {
		add("* No current packages found to list.")
	}
	add("")

	add("<br>", "")
	add(fullChangelogLine(in))
	add("", "<br>", "", FileHashHeading)

	return strings.Join(lines, "\n") + "\n", nil
}

func noChangesMessage(state model.PreviousState, prevTag string) []string {
	switch state {
	case model.PreviousNoTag:
		return []string{"* No previous version to compare against."}
	case model.PreviousParsed:
		return []string{fmt.Sprintf("* No package changes detected compared to the previous version (`%s`).", prevTag)}
	case model.PreviousUnparsed:
		return []string{fmt.Sprintf("* Previous release body for tag `%s` was found but no package list could be parsed.", prevTag)}
	default:
		return []string{"* Could not retrieve previous version's package list."}
	}
}

func fullChangelogLine(in model.ReleaseNotesInput) string {
	if in.PreviousTag != "" && in.CurrentBuildTag != "" {
		return fmt.Sprintf("**Full Changelog**: https://github.com/%s/%s/compare/%s...%s",
			in.Owner, in.Repo, in.PreviousTag, in.CurrentBuildTag)
	}

	var sb strings.Builder
	sb.WriteString("**Full Changelog**: [TODO: Update link")
	if in.PreviousTag == "" {
		sb.WriteString(" - Previous project tag missing")
	}
	if in.CurrentBuildTag == "" {
		sb.WriteString(" - Current build tag missing")
	}
	sb.WriteString("]")
	return sb.String()
}

// FullChangelogComplete reports whether the notes carry a usable compare link
func FullChangelogComplete(in model.ReleaseNotesInput) bool {
	return in.PreviousTag != "" && in.CurrentBuildTag != ""
}
