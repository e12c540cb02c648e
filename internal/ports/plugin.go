package ports

import "analyzer-plugin-generator/internal/types"

type PluginWriterPort interface {
	WritePlugin(path string, manifest types.PluginManifest, analyzers []types.AnalyzerAssembly, sqale types.SqaleModel) error
}

type RunReportPort interface {
	WriteReport(path string, report types.RunReport) error
}
