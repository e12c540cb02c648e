package app

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"analyzer-plugin-generator/internal/types"
	"analyzer-plugin-generator/tests/testutil"
)

func TestInspectApp(t *testing.T) {
	feed := testutil.NewFeedBuilder(t)
	child := feed.CreatePackageWithoutAnalyzer("child.id", "1.1", testutil.LicenseRequired)
	feed.CreatePackageWithAnalyzer("parent.id", "1.0", testutil.LicenseNotRequired, child)

	result, err := NewService().Inspect(t.Context(), InspectRequest{
		PackageID:      "parent.id",
		PackageVersion: "1.0",
		Feed:           FeedOptions{Source: feed.Dir},
	})
	require.NoError(t, err)
	if diff := cmp.Diff(types.NewPackageRef("parent.id", "1.0"), result.Root); diff != "" {
		t.Fatalf("unexpected root (-want +got):\n%s", diff)
	}
	require.Len(t, result.Packages, 2)

	byID := map[string]InspectPackage{}
	for _, pkg := range result.Packages {
		byID[pkg.Ref.ID] = pkg
	}
	require.True(t, byID["child.id"].LicenseRequired)
	require.Empty(t, byID["child.id"].Analyzers)
	require.False(t, byID["parent.id"].LicenseRequired)
	require.Equal(t, []string{"parent.id.Analyzers.dll"}, byID["parent.id"].Analyzers)
	require.Equal(t, []types.PackageRef{child}, byID["parent.id"].Dependencies)
}

func TestInspectAppMissingPackage(t *testing.T) {
	feed := testutil.NewFeedBuilder(t)
	_, err := NewService().Inspect(t.Context(), InspectRequest{
		PackageID:      "absent.id",
		PackageVersion: "1.0",
		Feed:           FeedOptions{Source: feed.Dir},
	})
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}
