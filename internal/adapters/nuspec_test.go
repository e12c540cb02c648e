package adapters

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"analyzer-plugin-generator/internal/types"
)

const nuspecWithGroups = `<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://schemas.microsoft.com/packaging/2013/05/nuspec.xsd">
  <metadata>
    <id>Parent.Id</id>
    <version>1.0</version>
    <requireLicenseAcceptance>True</requireLicenseAcceptance>
    <dependencies>
      <group targetFramework=".NETStandard2.0">
        <dependency id="Child.Id" version="[1.1, )" />
        <dependency id="Shared.Id" version="2.0" />
      </group>
      <group targetFramework="net6.0">
        <dependency id="shared.id" version="2.0.0" />
      </group>
    </dependencies>
  </metadata>
</package>`

func TestParseNuspecMergesGroups(t *testing.T) {
	metadata, err := parseNuspec([]byte(nuspecWithGroups))
	require.NoError(t, err)
	require.True(t, metadata.LicenseRequired)
	require.Equal(t, types.NewPackageRef("Parent.Id", "1.0"), metadata.Ref)

	want := []types.PackageRef{
		types.NewPackageRef("Child.Id", "1.1"),
		types.NewPackageRef("Shared.Id", "2.0"),
	}
	if diff := cmp.Diff(want, metadata.Dependencies); diff != "" {
		t.Fatalf("unexpected dependencies (-want +got):\n%s", diff)
	}
}

func TestParseNuspecWithoutDependencies(t *testing.T) {
	metadata, err := parseNuspec([]byte(`<package><metadata><id>a</id><version>1.0.0</version></metadata></package>`))
	require.NoError(t, err)
	require.False(t, metadata.LicenseRequired)
	require.Empty(t, metadata.Dependencies)
}

func TestParseNuspecAcceptsFourPartVersions(t *testing.T) {
	metadata, err := parseNuspec([]byte(`<package><metadata><id>a</id><version>1.0.0.0</version><dependencies>
<dependency id="b" version="1.0.0.0"/>
<dependency id="c" version="[1.2.3.4]"/>
</dependencies></metadata></package>`))
	require.NoError(t, err)
	want := []types.PackageRef{
		types.NewPackageRef("b", "1.0.0.0"),
		types.NewPackageRef("c", "1.2.3.4"),
	}
	if diff := cmp.Diff(want, metadata.Dependencies); diff != "" {
		t.Fatalf("unexpected dependencies (-want +got):\n%s", diff)
	}
	require.Equal(t, "a@1.0.0", metadata.Ref.Key())
}

func TestParseNuspecDependencyWithoutVersion(t *testing.T) {
	metadata, err := parseNuspec([]byte(`<package><metadata><id>a</id><version>1.0</version><dependencies>
<dependency id="b"/>
</dependencies></metadata></package>`))
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
	require.Contains(t, err.Error(), "dependency b of a 1.0 has no version range")
	require.Equal(t, types.NewPackageRef("a", "1.0"), metadata.Ref)
}

func TestParseNuspecRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not xml", body: "not valid xml"},
		{name: "missing id", body: `<package><metadata><version>1.0</version></metadata></package>`},
		{name: "exclusive range", body: `<package><metadata><id>a</id><version>1.0</version><dependencies><dependency id="b" version="(1.0, )"/></dependencies></metadata></package>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseNuspec([]byte(tt.body))
			require.Error(t, err)
		})
	}
}
