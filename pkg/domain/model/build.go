package model

import (
	"time"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/types"
)

// Architecture describes one parallel build output
type Architecture struct {
	Label        string             // Short label, e.g. "64"
	DisplayName  string             // Used for the hash block heading, e.g. "64-bit"
	AssetPattern types.AssetPattern // Selects the upstream archive
	InnoArch     string             // Inno Setup ArchitecturesAllowed value, e.g. "x64compatible"
	RootDir      string             // Top-level directory inside the archive, e.g. "mingw64"
}

// HashHeading returns the label used for the hash block of this architecture
func (a Architecture) HashHeading() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Label + "-bit"
}

// BuildRequest is the input of one packaging run
type BuildRequest struct {
	TitlePattern    types.TitlePattern
	Architectures   []Architecture
	ProjectOwner    string // Repository hosting the installer releases
	ProjectRepo     string
	BuildTag        string // Tag of the release being built, e.g. "2025.06.09"
	PreviousTag     string // Empty means "detect from tags"
	SkipPreviousTag bool   // Do not look up a previous tag at all
	InnoScript      string // Path to the .iss script
	OutputDir       string // Where installers and release notes are written
	WorkDir         string // Download and extraction scratch space, temp dir when empty
	InstallerName   string // Application name passed to the compiler
	KeepWorkDir     bool
	ScriptChanges   []string // Installer changes listed in the release notes
}

// ExtractResult describes an extracted archive
type ExtractResult struct {
	Dir   string   // Extraction root
	Files []string // Relative paths of extracted files
	Size  int64    // Total uncompressed size in bytes
}

// CompileResult is returned by the installer compiler
type CompileResult struct {
	ExitCode   int
	Output     string // Captured stdout and stderr
	OutputFile string // Path of the produced installer when known
}

// Digest is one named hash of a file
type Digest struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
}

// ArchResult is the outcome of one architecture
type ArchResult struct {
	Arch      string   `json:"arch"`
	Asset     string   `json:"asset,omitempty"`
	Installer string   `json:"installer,omitempty"`
	Digests   []Digest `json:"digests,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Succeeded reports whether the architecture produced an installer
func (r ArchResult) Succeeded() bool { return r.Error == "" && r.Installer != "" }

// BuildReport summarizes a packaging run
type BuildReport struct {
	ID          string       `json:"id"`
	Release     string       `json:"release"`
	ReleaseTag  string       `json:"release_tag"`
	BuildTag    string       `json:"build_tag"`
	PreviousTag string       `json:"previous_tag,omitempty"`
	NotesPath   string       `json:"notes_path,omitempty"`
	Notes       string       `json:"-"`
	Results     []ArchResult `json:"results"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
}

// Failed returns the architectures that did not produce an installer
func (r *BuildReport) Failed() []ArchResult {
	var failed []ArchResult
	for _, res := range r.Results {
		if !res.Succeeded() {
			failed = append(failed, res)
		}
	}
	return failed
}

// ChangelogRequest is the input of the standalone changelog generator
type ChangelogRequest struct {
	Owner           string
	Repo            string
	InputFile       string // Local info file of the current build
	CurrentTag      string // Existing project release to read current packages from; wins over InputFile
	PreviousTag     string
	CurrentBuildTag string
	OutputFile      string
	ScriptChanges   []string // Installer changes listed in the release notes
}

// BuildJobStatus is the lifecycle state of an asynchronous build
type BuildJobStatus string

const (
	BuildJobRunning   BuildJobStatus = "running"
	BuildJobSucceeded BuildJobStatus = "succeeded"
	BuildJobFailed    BuildJobStatus = "failed"
)

// BuildJob tracks a build started through the HTTP API
type BuildJob struct {
	ID         string         `json:"id"`
	Status     BuildJobStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	Report     *BuildReport   `json:"report,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}
