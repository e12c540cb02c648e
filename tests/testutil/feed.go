package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"analyzer-plugin-generator/internal/semver"
	"analyzer-plugin-generator/internal/types"
)

// License says whether a fake package requires license acceptance.
type License bool

const (
	LicenseRequired    License = true
	LicenseNotRequired License = false
)

// FeedBuilder writes real .nupkg archives into a local feed directory.
type FeedBuilder struct {
	t        *testing.T
	Dir      string
	archives map[string]string
}

func NewFeedBuilder(t *testing.T) *FeedBuilder {
	t.Helper()
	return &FeedBuilder{
		t:        t,
		Dir:      t.TempDir(),
		archives: map[string]string{},
	}
}

// CreatePackageWithAnalyzer adds a package carrying a C# analyzer assembly.
func (b *FeedBuilder) CreatePackageWithAnalyzer(id string, version string, license License, deps ...types.PackageRef) types.PackageRef {
	b.t.Helper()
	return b.CreatePackage(id, version, license, map[string][]byte{
		fmt.Sprintf("analyzers/dotnet/cs/%s.Analyzers.dll", id): []byte("MZ fake analyzer " + id),
	}, deps...)
}

// CreatePackageWithoutAnalyzer adds a package holding only a text file.
func (b *FeedBuilder) CreatePackageWithoutAnalyzer(id string, version string, license License, deps ...types.PackageRef) types.PackageRef {
	b.t.Helper()
	return b.CreatePackage(id, version, license, map[string][]byte{
		"content/dummy.txt": []byte("dummy"),
	}, deps...)
}

func (b *FeedBuilder) CreatePackage(id string, version string, license License, files map[string][]byte, deps ...types.PackageRef) types.PackageRef {
	b.t.Helper()
	ref := types.NewPackageRef(id, version)
	return b.CreatePackageFromNuspec(ref, Nuspec(ref, bool(license), deps...), files)
}

// CreatePackageFromNuspec adds a package whose manifest is the given
// nuspec text, for manifests the other builders cannot express.
func (b *FeedBuilder) CreatePackageFromNuspec(ref types.PackageRef, nuspec string, files map[string][]byte) types.PackageRef {
	b.t.Helper()
	id, version := ref.ID, ref.Version
	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)
	entry, err := archive.Create(id + ".nuspec")
	require.NoError(b.t, err)
	_, err = entry.Write([]byte(nuspec))
	require.NoError(b.t, err)
	for name, content := range files {
		entry, err := archive.Create(name)
		require.NoError(b.t, err)
		_, err = entry.Write(content)
		require.NoError(b.t, err)
	}
	require.NoError(b.t, archive.Close())

	path := filepath.Join(b.Dir, fmt.Sprintf("%s.%s.nupkg", id, version))
	require.NoError(b.t, os.WriteFile(path, buf.Bytes(), 0644))
	b.archives[ref.Key()] = path
	return ref
}

// Nuspec renders a minimal nuspec manifest.
func Nuspec(ref types.PackageRef, licenseRequired bool, deps ...types.PackageRef) string {
	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	builder.WriteString(`<package xmlns="http://schemas.microsoft.com/packaging/2013/05/nuspec.xsd">` + "\n")
	builder.WriteString("  <metadata>\n")
	fmt.Fprintf(&builder, "    <id>%s</id>\n", ref.ID)
	fmt.Fprintf(&builder, "    <version>%s</version>\n", ref.Version)
	fmt.Fprintf(&builder, "    <authors>test</authors>\n")
	fmt.Fprintf(&builder, "    <requireLicenseAcceptance>%t</requireLicenseAcceptance>\n", licenseRequired)
	builder.WriteString("    <description>test package</description>\n")
	if len(deps) > 0 {
		builder.WriteString("    <dependencies>\n")
		builder.WriteString(`      <group targetFramework=".NETStandard2.0">` + "\n")
		for _, dep := range deps {
			fmt.Fprintf(&builder, "        <dependency id=%q version=%q />\n", dep.ID, "["+dep.Version+", )")
		}
		builder.WriteString("      </group>\n")
		builder.WriteString("    </dependencies>\n")
	}
	builder.WriteString("  </metadata>\n")
	builder.WriteString("</package>\n")
	return builder.String()
}

// WriteFlatContainer lays the feed out as a static NuGet v3 feed rooted at
// dir: index.json plus flatcontainer/{id}/{version}/ entries.
func (b *FeedBuilder) WriteFlatContainer(dir string) {
	b.t.Helper()
	index := map[string]any{
		"version": "3.0.0",
		"resources": []map[string]string{
			{"@id": "flatcontainer/", "@type": "PackageBaseAddress/3.0.0"},
		},
	}
	data, err := json.Marshal(index)
	require.NoError(b.t, err)
	require.NoError(b.t, os.MkdirAll(dir, 0755))
	require.NoError(b.t, os.WriteFile(filepath.Join(dir, "index.json"), data, 0644))

	for _, archivePath := range b.archives {
		reader, err := zip.OpenReader(archivePath)
		require.NoError(b.t, err)
		var nuspec []byte
		for _, file := range reader.File {
			if strings.HasSuffix(file.Name, ".nuspec") {
				rc, err := file.Open()
				require.NoError(b.t, err)
				var buf bytes.Buffer
				_, err = buf.ReadFrom(rc)
				require.NoError(b.t, err)
				require.NoError(b.t, rc.Close())
				nuspec = buf.Bytes()
			}
		}
		require.NoError(b.t, reader.Close())

		id, version := b.identityOf(archivePath)
		target := filepath.Join(dir, "flatcontainer", id, version)
		require.NoError(b.t, os.MkdirAll(target, 0755))
		require.NoError(b.t, os.WriteFile(filepath.Join(target, id+".nuspec"), nuspec, 0644))
		archive, err := os.ReadFile(archivePath)
		require.NoError(b.t, err)
		require.NoError(b.t, os.WriteFile(filepath.Join(target, fmt.Sprintf("%s.%s.nupkg", id, version)), archive, 0644))
	}
}

func (b *FeedBuilder) identityOf(archivePath string) (string, string) {
	for key, path := range b.archives {
		if path == archivePath {
			parts := strings.SplitN(key, "@", 2)
			return parts[0], semver.Canonical(parts[1])
		}
	}
	b.t.Fatalf("unknown archive %s", archivePath)
	return "", ""
}
