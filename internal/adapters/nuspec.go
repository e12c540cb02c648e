package adapters

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"analyzer-plugin-generator/internal/semver"
	"analyzer-plugin-generator/internal/types"
)

type nuspecDocument struct {
	Metadata nuspecMetadata `xml:"metadata"`
}

type nuspecMetadata struct {
	ID                       string             `xml:"id"`
	Version                  string             `xml:"version"`
	RequireLicenseAcceptance string             `xml:"requireLicenseAcceptance"`
	Dependencies             nuspecDependencies `xml:"dependencies"`
}

type nuspecDependencies struct {
	Groups       []nuspecGroup      `xml:"group"`
	Dependencies []nuspecDependency `xml:"dependency"`
}

type nuspecGroup struct {
	TargetFramework string             `xml:"targetFramework,attr"`
	Dependencies    []nuspecDependency `xml:"dependency"`
}

type nuspecDependency struct {
	ID      string `xml:"id,attr"`
	Version string `xml:"version,attr"`
}

// parseNuspec decodes a nuspec manifest. Dependencies of every framework
// group are merged; each dependency is pinned to the lower bound of its
// version range. When only the dependencies are unusable the returned
// metadata still carries the package identity alongside the error.
func parseNuspec(data []byte) (types.PackageMetadata, error) {
	var doc nuspecDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return types.PackageMetadata{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse nuspec").
			WithCause(err)
	}
	meta := doc.Metadata
	if strings.TrimSpace(meta.ID) == "" || strings.TrimSpace(meta.Version) == "" {
		return types.PackageMetadata{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("nuspec is missing id or version")
	}

	result := types.PackageMetadata{
		Ref:             types.NewPackageRef(meta.ID, meta.Version),
		LicenseRequired: strings.EqualFold(strings.TrimSpace(meta.RequireLicenseAcceptance), "true"),
	}
	all := append([]nuspecDependency(nil), meta.Dependencies.Dependencies...)
	for _, group := range meta.Dependencies.Groups {
		all = append(all, group.Dependencies...)
	}
	seen := map[string]struct{}{}
	for _, dep := range all {
		if strings.TrimSpace(dep.Version) == "" {
			return types.PackageMetadata{Ref: result.Ref}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("dependency %s of %s has no version range", dep.ID, result.Ref))
		}
		version, err := semver.MinimumOfRange(dep.Version)
		if err != nil {
			return types.PackageMetadata{Ref: result.Ref}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unsupported version range for dependency %s of %s", dep.ID, result.Ref)).
				WithCause(err)
		}
		ref := types.NewPackageRef(dep.ID, version)
		if _, ok := seen[ref.Key()]; ok {
			continue
		}
		seen[ref.Key()] = struct{}{}
		result.Dependencies = append(result.Dependencies, ref)
	}
	return result, nil
}

// readNuspecFromArchive returns the nuspec stored at the root of a nupkg.
func readNuspecFromArchive(archivePath string) ([]byte, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to open package archive").
			WithCause(err)
	}
	defer reader.Close()
	for _, file := range reader.File {
		if path.Dir(file.Name) != "." || !strings.EqualFold(path.Ext(file.Name), ".nuspec") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read nuspec").
				WithCause(err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read nuspec").
				WithCause(err)
		}
		return data, nil
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("package archive has no nuspec: " + archivePath)
}
