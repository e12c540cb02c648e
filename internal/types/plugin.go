package types

// PluginManifest describes the generated plugin artifact.
type PluginManifest struct {
	Key         string
	Name        string
	Version     string
	Language    string
	PackageID   string
	Description string
}

// RunReport is the audit record of a single generation run.
type RunReport struct {
	Package     PackageRef
	Language    string
	Success     bool
	Accepted    bool
	Closure     []PackageNode
	Analyzers   []AnalyzerAssembly
	Diagnostics []Diagnostic
	Artifact    string
	Template    string
	CreatedAt   string
}
