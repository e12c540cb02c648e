package ports

import "analyzer-plugin-generator/internal/types"

// AnalyzerInspectorPort decides whether a downloaded package contributes
// analyzer assemblies for a language. An empty result means "no analyzer".
type AnalyzerInspectorPort interface {
	FindAnalyzers(ref types.PackageRef, payloadPath string, language string) ([]types.AnalyzerAssembly, error)
}
