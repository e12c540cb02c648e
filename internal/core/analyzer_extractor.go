package core

import (
	"context"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"analyzer-plugin-generator/internal/ports"
	"analyzer-plugin-generator/internal/types"
)

type AnalyzerExtractor struct {
	Inspector ports.AnalyzerInspectorPort
}

func NewAnalyzerExtractor(inspector ports.AnalyzerInspectorPort) AnalyzerExtractor {
	return AnalyzerExtractor{Inspector: inspector}
}

// Extract collects the analyzer assemblies of every package in the closure.
// It returns ErrNoAnalyzers when none of them contributes one and an
// *InspectError naming the package when a payload cannot be read.
func (e AnalyzerExtractor) Extract(ctx context.Context, closure types.DependencyClosure, language string) ([]types.AnalyzerAssembly, error) {
	if e.Inspector == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("analyzer extractor requires an inspector")
	}
	var analyzers []types.AnalyzerAssembly
	for _, node := range closure.Sorted() {
		found, err := e.Inspector.FindAnalyzers(node.Ref, node.PayloadPath, language)
		if err != nil {
			return nil, &InspectError{Ref: node.Ref, Err: err}
		}
		if len(found) > 0 {
			log.Ctx(ctx).Debug().
				Str("package", node.Ref.String()).
				Int("analyzers", len(found)).
				Msg("analyzers found")
		}
		analyzers = append(analyzers, found...)
	}
	if len(analyzers) == 0 {
		return nil, ErrNoAnalyzers
	}
	sort.SliceStable(analyzers, func(i, j int) bool {
		if analyzers[i].Package.Key() != analyzers[j].Package.Key() {
			return analyzers[i].Package.Key() < analyzers[j].Package.Key()
		}
		return analyzers[i].EntryPath < analyzers[j].EntryPath
	})
	return analyzers, nil
}
