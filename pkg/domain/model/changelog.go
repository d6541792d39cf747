package model

// ChangeKind classifies a changelog row. The numeric order is the display order.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeUpdated
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "Added"
	case ChangeUpdated:
		return "Updated"
	case ChangeRemoved:
		return "Removed"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the kind by name for JSON responses
func (k ChangeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ChangeEntry is one row of a computed changelog
type ChangeEntry struct {
	Name       string     `json:"name"`
	Kind       ChangeKind `json:"kind"`
	OldVersion string     `json:"old_version,omitempty"` // Updated and Removed only
	NewVersion string     `json:"new_version,omitempty"` // Added and Updated only
}

// BuildInfo is what the release notes need from one WinLibs build description
type BuildInfo struct {
	Header       string    // "This is the winlibs Intel/AMD ... build of:" line, empty if absent
	Packages     *Manifest // Parsed package lines
	PackageLines []string  // Package lines as they appeared, in source order
	ThreadModel  string    // e.g. "POSIX"
	Runtime      string    // e.g. "UCRT"
	CompiledWith string    // "This build was compiled with GCC ... and packaged on ..." without trailing dot
}

// PreviousState describes how the baseline for the package comparison was obtained
type PreviousState int

const (
	// PreviousNoTag means no previous tag was given (first build)
	PreviousNoTag PreviousState = iota
	// PreviousParsed means the previous release body was parsed into a non-empty manifest
	PreviousParsed
	// PreviousUnparsed means the previous release body was found but held no package list
	PreviousUnparsed
	// PreviousUnavailable means the previous release body could not be retrieved
	PreviousUnavailable
)

// ReleaseNotesInput holds everything needed to render release notes
type ReleaseNotesInput struct {
	Owner           string
	Repo            string
	Current         BuildInfo
	Previous        *Manifest
	PreviousState   PreviousState
	PreviousTag     string
	CurrentBuildTag string
	ScriptChanges   []string // Bullet lines for "Script/Installer Changelogs", "None" when empty
}
