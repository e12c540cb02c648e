package adapters

import (
	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"analyzer-plugin-generator/internal/ports"
	"analyzer-plugin-generator/internal/types"
)

// RunReportYAMLAdapter writes the audit record of a generation run,
// including every license that was accepted.
type RunReportYAMLAdapter struct{}

func NewRunReportYAMLAdapter() RunReportYAMLAdapter {
	return RunReportYAMLAdapter{}
}

type runReportDocument struct {
	Package     string               `yaml:"package"`
	Version     string               `yaml:"version"`
	Language    string               `yaml:"language"`
	Success     bool                 `yaml:"success"`
	Accepted    bool                 `yaml:"licenses_accepted"`
	CreatedAt   string               `yaml:"created_at"`
	Artifact    string               `yaml:"artifact,omitempty"`
	Template    string               `yaml:"sqale_template,omitempty"`
	Closure     []runReportPackage   `yaml:"closure"`
	Analyzers   []runReportAnalyzer  `yaml:"analyzers,omitempty"`
	Diagnostics []runReportDiagnosis `yaml:"diagnostics"`
}

type runReportPackage struct {
	ID              string   `yaml:"id"`
	Version         string   `yaml:"version"`
	LicenseRequired bool     `yaml:"license_required"`
	Dependencies    []string `yaml:"dependencies,omitempty"`
}

type runReportAnalyzer struct {
	Package string `yaml:"package"`
	Entry   string `yaml:"entry"`
}

type runReportDiagnosis struct {
	Severity string `yaml:"severity"`
	Kind     string `yaml:"kind"`
	Package  string `yaml:"package,omitempty"`
	Path     string `yaml:"path,omitempty"`
	Message  string `yaml:"message"`
}

func (a RunReportYAMLAdapter) WriteReport(path string, report types.RunReport) error {
	doc := runReportDocument{
		Package:   report.Package.ID,
		Version:   report.Package.Version,
		Language:  report.Language,
		Success:   report.Success,
		Accepted:  report.Accepted,
		CreatedAt: report.CreatedAt,
		Artifact:  report.Artifact,
		Template:  report.Template,
	}
	for _, node := range report.Closure {
		entry := runReportPackage{
			ID:              node.Ref.ID,
			Version:         node.Ref.Version,
			LicenseRequired: node.LicenseRequired,
		}
		for _, dep := range node.Dependencies {
			entry.Dependencies = append(entry.Dependencies, dep.String())
		}
		doc.Closure = append(doc.Closure, entry)
	}
	for _, analyzer := range report.Analyzers {
		doc.Analyzers = append(doc.Analyzers, runReportAnalyzer{
			Package: analyzer.Package.String(),
			Entry:   analyzer.EntryPath,
		})
	}
	for _, diagnostic := range report.Diagnostics {
		entry := runReportDiagnosis{
			Severity: string(diagnostic.Severity),
			Kind:     string(diagnostic.Kind),
			Path:     diagnostic.Path,
			Message:  diagnostic.Message,
		}
		if diagnostic.Package != nil {
			entry.Package = diagnostic.Package.String()
		}
		doc.Diagnostics = append(doc.Diagnostics, entry)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal run report").
			WithCause(err)
	}
	return writeBytesAtomic(path, data)
}

var _ ports.RunReportPort = RunReportYAMLAdapter{}
