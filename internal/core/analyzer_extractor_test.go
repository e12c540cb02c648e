package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"analyzer-plugin-generator/internal/types"
)

func TestAnalyzerExtractorUnionsClosure(t *testing.T) {
	root := types.NewPackageRef("root.id", "1.0")
	child := types.NewPackageRef("child.id", "1.1")
	closure := closureOf(root,
		types.PackageNode{Ref: root, Dependencies: []types.PackageRef{child}, PayloadPath: "/tmp/root.nupkg"},
		types.PackageNode{Ref: child, PayloadPath: "/tmp/child.nupkg"},
	)
	extractor := NewAnalyzerExtractor(fakeInspector{withAnalyzers: map[string]bool{
		root.Key():  true,
		child.Key(): true,
	}})

	analyzers, err := extractor.Extract(t.Context(), closure, "cs")
	require.NoError(t, err)
	require.Len(t, analyzers, 2)
	require.Equal(t, child, analyzers[0].Package)
	require.Equal(t, "/tmp/child.nupkg", analyzers[0].Payload)
	require.Equal(t, root, analyzers[1].Package)
}

func TestAnalyzerExtractorAnalyzerInDependencyOnly(t *testing.T) {
	root := types.NewPackageRef("meta.id", "1.0")
	child := types.NewPackageRef("child.id", "1.1")
	closure := closureOf(root,
		types.PackageNode{Ref: root, Dependencies: []types.PackageRef{child}},
		types.PackageNode{Ref: child},
	)
	extractor := NewAnalyzerExtractor(fakeInspector{withAnalyzers: map[string]bool{child.Key(): true}})

	analyzers, err := extractor.Extract(t.Context(), closure, "vb")
	require.NoError(t, err)
	require.Len(t, analyzers, 1)
	require.Equal(t, "analyzers/dotnet/vb/child.id.dll", analyzers[0].EntryPath)
}

func TestAnalyzerExtractorNoAnalyzers(t *testing.T) {
	root := types.NewPackageRef("no.analyzers.id", "0.9")
	closure := closureOf(root, types.PackageNode{Ref: root})

	_, err := NewAnalyzerExtractor(fakeInspector{}).Extract(t.Context(), closure, "cs")
	require.True(t, errors.Is(err, ErrNoAnalyzers))
}

func TestAnalyzerExtractorInspectorFailure(t *testing.T) {
	root := types.NewPackageRef("broken.id", "1.0")
	closure := closureOf(root, types.PackageNode{Ref: root})

	_, err := NewAnalyzerExtractor(fakeInspector{err: errors.New("zip: not a valid zip file")}).Extract(t.Context(), closure, "cs")
	var inspectErr *InspectError
	require.True(t, errors.As(err, &inspectErr))
	require.Equal(t, root, inspectErr.Ref)
	require.ErrorContains(t, err, "broken.id 1.0")
	require.ErrorContains(t, err, "not a valid zip file")
}
