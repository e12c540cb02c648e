package app

import "analyzer-plugin-generator/internal/types"

// FeedOptions selects the package feed and how it is read. Source is a
// NuGet v3 service index URL or a local folder of .nupkg files.
type FeedOptions struct {
	Source           string
	DownloadDir      string
	Workers          int
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
}

type GenerateRequest struct {
	PackageID      string
	PackageVersion string
	Language       string
	SqalePath      string
	AcceptLicenses bool
	OutputDir      string
	Feed           FeedOptions
	ReportPath     string
	SBOMPath       string
}

// GenerateResult is the outcome of a generation run. Diagnostics is the
// complete, deduplicated log in the order entries were reported.
type GenerateResult struct {
	Success      bool
	Diagnostics  []types.Diagnostic
	ArtifactPath string
	TemplatePath string
	ReportPath   string
	SBOMPath     string
}

type InspectRequest struct {
	PackageID      string
	PackageVersion string
	Language       string
	Feed           FeedOptions
}

type InspectResult struct {
	Root     types.PackageRef
	Packages []InspectPackage
}

type InspectPackage struct {
	Ref             types.PackageRef
	LicenseRequired bool
	Dependencies    []types.PackageRef
	Analyzers       []string
}
