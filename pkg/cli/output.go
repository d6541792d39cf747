package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

var (
	infoPrefix    = color.New(color.FgCyan, color.Bold).Sprint(">>")
	successPrefix = color.New(color.FgGreen, color.Bold).Sprint("++")
	errorPrefix   = color.New(color.FgRed, color.Bold).Sprint("!!")
	notePrefix    = color.New(color.FgYellow, color.Bold).Sprint("**")
)

func printSelections(w io.Writer, selections []model.Selection) {
	if len(selections) == 0 {
		return
	}
	rel := selections[0].Release
	fmt.Fprintf(w, "%s Release: %s\n", infoPrefix, rel.Name)
	fmt.Fprintf(w, "%s Tag: %s (published %s)\n", notePrefix, rel.TagName, rel.PublishedAt.Format("2006-01-02"))

	for _, sel := range selections {
		if sel.Error != "" {
			fmt.Fprintf(w, "%s [%s] %s\n", errorPrefix, sel.Arch, sel.Error)
			continue
		}
		fmt.Fprintf(w, "%s [%s] %s (%d bytes)\n", successPrefix, sel.Arch, sel.Asset.Name, sel.Asset.Size)
		fmt.Fprintf(w, "   %s\n", sel.Asset.DownloadURL)
	}
}

func printReport(w io.Writer, report *model.BuildReport) {
	fmt.Fprintf(w, "%s Build %s of %s\n", infoPrefix, report.BuildTag, report.Release)
	if report.PreviousTag != "" {
		fmt.Fprintf(w, "%s Compared against %s\n", notePrefix, report.PreviousTag)
	}

	for _, r := range report.Results {
		if !r.Succeeded() {
			fmt.Fprintf(w, "%s [%s] %s\n", errorPrefix, r.Arch, r.Error)
			continue
		}
		fmt.Fprintf(w, "%s [%s] %s\n", successPrefix, r.Arch, r.Installer)
		for _, d := range r.Digests {
			fmt.Fprintf(w, "   %s: %s\n", d.Algorithm, d.Value)
		}
	}

	if report.NotesPath != "" {
		fmt.Fprintf(w, "%s Release notes: %s\n", notePrefix, report.NotesPath)
	}
}
