package model

import "time"

// Release is one upstream release as returned by the release API
type Release struct {
	Name        string    `json:"name"`         // Release title, matched by TitlePattern
	TagName     string    `json:"tag_name"`     // Git tag
	PublishedAt time.Time `json:"published_at"` // Publication time, latest wins on selection
	Prerelease  bool      `json:"prerelease"`   // Never selected when true
	Draft       bool      `json:"draft"`        // Never selected when true
	Body        string    `json:"-"`            // Markdown release notes
	HTMLURL     string    `json:"html_url"`     // Browser URL of the release page
	Assets      []Asset   `json:"assets"`       // Downloadable files, in API order
}

// Asset is one downloadable file attached to a release
type Asset struct {
	ID          int64  `json:"id"`           // API asset ID
	Name        string `json:"name"`         // File name, matched by AssetPattern
	DownloadURL string `json:"download_url"` // Direct browser download URL
	Size        int64  `json:"size"`         // Size in bytes
}

// Selection is a release together with the asset chosen for one architecture
type Selection struct {
	Arch    string   `json:"arch"`
	Release *Release `json:"release"`
	Asset   *Asset   `json:"asset,omitempty"`
	Error   string   `json:"error,omitempty"`
}
