package app

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"analyzer-plugin-generator/internal/core"
)

// Inspect resolves the dependency closure of a package and reports each
// member's license flag and analyzer assemblies. Nothing is written to the
// output directory.
func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	root, err := packageRef(req.PackageID, req.PackageVersion)
	if err != nil {
		return InspectResult{}, err
	}
	language, err := normalizeLanguage(req.Language)
	if err != nil {
		return InspectResult{}, err
	}
	if s.Repository == nil || s.Inspector == nil {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("inspect requires a repository and an inspector")
	}

	downloadDir, err := createRunDir(req.Feed.DownloadDir)
	if err != nil {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create download directory").
			WithCause(err)
	}
	defer removeRunDir(ctx, downloadDir)

	closure, err := core.NewClosureResolver(s.Repository(req.Feed), req.Feed.Workers).Resolve(ctx, root, downloadDir)
	if err != nil {
		return InspectResult{}, fetchFailure(err)
	}

	result := InspectResult{Root: root}
	for _, node := range closure.Sorted() {
		found, err := s.Inspector.FindAnalyzers(node.Ref, node.PayloadPath, language)
		if err != nil {
			return InspectResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to inspect package %s", node.Ref)).
				WithCause(err)
		}
		pkg := InspectPackage{
			Ref:             node.Ref,
			LicenseRequired: node.LicenseRequired,
			Dependencies:    node.Dependencies,
		}
		for _, analyzer := range found {
			pkg.Analyzers = append(pkg.Analyzers, analyzer.FileName)
		}
		result.Packages = append(result.Packages, pkg)
	}
	return result, nil
}
