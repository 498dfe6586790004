package model

import "time"

// Release is the subset of the GitHub release payload that mingwup uses.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is the subset of the GitHub release asset payload that mingwup uses.
// UpdatedAt is kept as the raw string so a malformed value can be reported
// instead of being swallowed by the JSON decoder.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadUrl string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	UpdatedAt          string `json:"updated_at"`
}

// Architecture is the CPU family a toolchain archive targets.
type Architecture string

const (
	ArchX86_64 Architecture = "x86_64"
	ArchI686   Architecture = "i686"
)

// HostDescriptor describes the machine mingwup runs on. It is computed once
// at startup and never mutated.
type HostDescriptor struct {
	Architecture Architecture `json:"architecture"`
	WordSize     int          `json:"wordSize"`
}

// ReleaseAsset is one downloadable archive of one release.
type ReleaseAsset struct {
	Version     string    `json:"version"`
	Filename    string    `json:"filename"`
	DownloadURL string    `json:"downloadUrl"`
	PublishedAt time.Time `json:"publishedAt"`
	Size        int64     `json:"size"`
}

// Key identifies an asset within a catalog.
type Key struct {
	Version  string
	Filename string
}

func (a ReleaseAsset) Key() Key {
	return Key{Version: a.Version, Filename: a.Filename}
}

// AssetNameTuple is the positional decomposition of a mingw-builds archive
// name, e.g. x86_64-13.2.0-release-posix-seh-ucrt-rt_v11-rev1.7z.
type AssetNameTuple struct {
	Architecture    string
	CompilerVersion string
	BuildType       string
	ThreadModel     string
	ExceptionModel  string
	CRTVariant      string
	Revision        string
}

// Status is the local presence of an asset in the download directory.
type Status int

const (
	NotDownloaded Status = iota
	Downloaded
)

func (s Status) String() string {
	if s == Downloaded {
		return "Downloaded"
	}
	return "Not Downloaded"
}

// CatalogEntry joins a remote asset with its reconciled local state.
type CatalogEntry struct {
	ReleaseAsset
	Status      Status `json:"status"`
	Recommended bool   `json:"recommended"`
}
