package adapters

import (
	"archive/zip"
	"path"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"analyzer-plugin-generator/internal/ports"
	"analyzer-plugin-generator/internal/types"
)

// NupkgInspectorAdapter finds analyzer assemblies inside a package archive.
// Analyzers live under "analyzers/", optionally in a per-language folder
// ("analyzers/dotnet/cs/Foo.dll"). Assemblies outside any language folder
// apply to every language.
type NupkgInspectorAdapter struct{}

func NewNupkgInspectorAdapter() NupkgInspectorAdapter {
	return NupkgInspectorAdapter{}
}

var analyzerLanguageFolders = map[string]struct{}{
	"cs": {},
	"vb": {},
	"fs": {},
}

func (a NupkgInspectorAdapter) FindAnalyzers(ref types.PackageRef, payloadPath string, language string) ([]types.AnalyzerAssembly, error) {
	reader, err := zip.OpenReader(payloadPath)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open package archive " + payloadPath).
			WithCause(err)
	}
	defer reader.Close()

	wanted := strings.ToLower(strings.TrimSpace(language))
	var found []types.AnalyzerAssembly
	for _, file := range reader.File {
		name := strings.ReplaceAll(file.Name, "\\", "/")
		if !isAnalyzerEntry(name, wanted) {
			continue
		}
		found = append(found, types.AnalyzerAssembly{
			Package:   ref,
			Payload:   payloadPath,
			EntryPath: file.Name,
			FileName:  path.Base(name),
		})
	}
	return found, nil
}

func isAnalyzerEntry(name string, language string) bool {
	lower := strings.ToLower(name)
	if !strings.HasPrefix(lower, "analyzers/") || !strings.HasSuffix(lower, ".dll") {
		return false
	}
	segments := strings.Split(path.Dir(lower), "/")
	for _, segment := range segments[1:] {
		if _, ok := analyzerLanguageFolders[segment]; ok {
			return segment == language
		}
	}
	return true
}

var _ ports.AnalyzerInspectorPort = NupkgInspectorAdapter{}
