package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"analyzer-plugin-generator/internal/core"
	"analyzer-plugin-generator/internal/types"
)

type generateRun struct {
	service   Service
	req       GenerateRequest
	root      types.PackageRef
	language  string
	outputDir string
	log       *core.DiagnosticLog
	result    GenerateResult

	closure   types.DependencyClosure
	analyzers []types.AnalyzerAssembly
	accepted  bool
}

// Generate runs the pipeline Resolving -> ComplianceCheck -> Extracting ->
// Packaging. Each stage either hands its result to the next or ends the run.
// The returned error is nil exactly when the result reports success.
func (s Service) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	run, err := s.newGenerateRun(ctx, req)
	if err != nil {
		return GenerateResult{}, err
	}

	err = run.execute(ctx)
	run.result.Success = err == nil
	if err != nil {
		run.removeStaleTemplate(ctx)
	} else {
		run.writeSBOM(ctx)
	}
	run.writeReport(ctx)
	run.result.Diagnostics = run.log.Entries()

	log.Ctx(ctx).Debug().
		Str("package", run.root.String()).
		Bool("success", run.result.Success).
		Int("errors", run.log.Count(types.SeverityError)).
		Int("warnings", run.log.Count(types.SeverityWarning)).
		Msg("generation finished")
	return run.result, err
}

func (s Service) newGenerateRun(ctx context.Context, req GenerateRequest) (*generateRun, error) {
	root, err := packageRef(req.PackageID, req.PackageVersion)
	if err != nil {
		return nil, err
	}
	language, err := normalizeLanguage(req.Language)
	if err != nil {
		return nil, err
	}
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}
	if s.Repository == nil || s.Inspector == nil || s.Sqale == nil || s.PluginWriter == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("generator service is not fully configured")
	}
	return &generateRun{
		service:   s,
		req:       req,
		root:      root,
		language:  language,
		outputDir: outputDir,
		log:       core.NewDiagnosticLog(ctx),
	}, nil
}

func (r *generateRun) execute(ctx context.Context) error {
	downloadDir, err := r.createDownloadDir()
	if err != nil {
		return err
	}
	defer removeRunDir(ctx, downloadDir)

	closure, err := r.resolve(ctx, downloadDir)
	if err != nil {
		return err
	}
	r.closure = closure
	if err := r.checkCompliance(ctx); err != nil {
		return err
	}
	analyzers, err := r.extract(ctx)
	if err != nil {
		return err
	}
	r.analyzers = analyzers
	return r.writeArtifacts(ctx)
}

func (r *generateRun) createDownloadDir() (string, error) {
	dir, err := createRunDir(r.req.Feed.DownloadDir)
	if err != nil {
		return "", r.writeFailure(r.req.Feed.DownloadDir, "failed to create download directory", err)
	}
	return dir, nil
}

func (r *generateRun) resolve(ctx context.Context, downloadDir string) (types.DependencyClosure, error) {
	resolver := core.NewClosureResolver(r.service.Repository(r.req.Feed), r.req.Feed.Workers)
	closure, err := resolver.Resolve(ctx, r.root, downloadDir)
	if err == nil {
		r.log.Add(core.MessageDiagnostic(
			types.SeverityInfo,
			types.MessageClosureResolved,
			fmt.Sprintf("Resolved %d package(s) in the dependency closure of %s", closure.Len(), r.root),
		))
		return closure, nil
	}

	var fetchErr *core.FetchError
	if !errors.As(err, &fetchErr) {
		r.log.Add(core.PackageDiagnostic(
			types.SeverityError,
			types.MessageFetchFailed,
			r.root,
			fmt.Sprintf("Failed to resolve the dependencies of %s: %v", r.root, err),
		))
		return types.DependencyClosure{}, err
	}
	r.log.Add(core.PackageDiagnostic(
		types.SeverityError,
		types.MessageFetchFailed,
		fetchErr.Ref,
		fmt.Sprintf("Package %s could not be retrieved: %s", fetchErr.Ref, errorText(fetchErr.Err)),
	))
	return types.DependencyClosure{}, fetchFailure(err)
}

func (r *generateRun) checkCompliance(ctx context.Context) error {
	decision := core.NewLicensePolicy().Evaluate(ctx, r.closure, r.req.AcceptLicenses)
	r.log.Add(decision.Diagnostics...)
	if !decision.Allowed {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg(fmt.Sprintf("license acceptance required for %s", r.root))
	}
	r.accepted = len(decision.Diagnostics) > 0
	return nil
}

func (r *generateRun) extract(ctx context.Context) ([]types.AnalyzerAssembly, error) {
	analyzers, err := core.NewAnalyzerExtractor(r.service.Inspector).Extract(ctx, r.closure, r.language)
	if errors.Is(err, core.ErrNoAnalyzers) {
		r.log.Add(core.PackageDiagnostic(
			types.SeverityWarning,
			types.MessageNoAnalyzers,
			r.root,
			fmt.Sprintf("No analyzers were found in package %s or its dependencies", r.root),
		))
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("no analyzers found for %s", r.root)).
			WithCause(err)
	}
	var inspectErr *core.InspectError
	if errors.As(err, &inspectErr) {
		r.log.Add(core.PackageDiagnostic(
			types.SeverityError,
			types.MessageInspectFailed,
			inspectErr.Ref,
			fmt.Sprintf("Package %s could not be inspected: %s", inspectErr.Ref, errorText(inspectErr.Err)),
		))
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to inspect package %s", inspectErr.Ref)).
			WithCause(err)
	}
	if err != nil {
		r.log.Add(core.PackageDiagnostic(
			types.SeverityError,
			types.MessageInspectFailed,
			r.root,
			fmt.Sprintf("Failed to inspect the packages of %s: %s", r.root, errorText(err)),
		))
		return nil, err
	}
	return analyzers, nil
}

// writeArtifacts writes the scoring template (unless one was supplied) and
// the plugin. A template is never left behind when a later write fails.
func (r *generateRun) writeArtifacts(ctx context.Context) error {
	manifest := core.NewPluginManifest(r.root, r.language)
	artifactPath := filepath.Join(r.outputDir, core.PluginFileName(r.root))

	var model types.SqaleModel
	templatePath := ""
	if sqalePath := strings.TrimSpace(r.req.SqalePath); sqalePath != "" {
		parsed, err := r.service.Sqale.Parse(sqalePath)
		if err != nil {
			r.log.Add(core.PathDiagnostic(
				types.SeverityError,
				types.MessageInvalidTemplate,
				sqalePath,
				fmt.Sprintf("The sqale file %s is not valid: %s", filepath.Base(sqalePath), errorText(err)),
			))
			return errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("invalid sqale file " + filepath.Base(sqalePath)).
				WithCause(err)
		}
		model = parsed
	} else {
		model = core.DefaultSqaleTemplate(manifest, r.analyzers)
		templatePath = filepath.Join(r.outputDir, core.SqaleTemplateFileName(r.root))
		if err := r.service.Sqale.Save(model, templatePath); err != nil {
			return r.writeFailure(templatePath, "failed to write sqale template", err)
		}
	}

	if err := r.service.PluginWriter.WritePlugin(artifactPath, manifest, r.analyzers, model); err != nil {
		if templatePath != "" {
			if removeErr := os.Remove(templatePath); removeErr != nil && !os.IsNotExist(removeErr) {
				log.Ctx(ctx).Warn().Str("path", templatePath).Err(removeErr).Msg("failed to remove sqale template")
			}
		}
		return r.writeFailure(artifactPath, "failed to write plugin", err)
	}

	if templatePath != "" {
		r.result.TemplatePath = templatePath
		r.log.Add(core.PathDiagnostic(
			types.SeverityInfo,
			types.MessageTemplateGenerated,
			templatePath,
			"Generated a template sqale file: "+templatePath,
		))
	}
	r.result.ArtifactPath = artifactPath
	r.log.Add(core.PathDiagnostic(
		types.SeverityInfo,
		types.MessageArtifactWritten,
		artifactPath,
		"Plugin created: "+artifactPath,
	))
	return nil
}

// removeStaleTemplate deletes a generated template left in the output
// directory by an earlier run so a failed run leaves none behind. A file
// the caller supplied as the sqale input is kept.
func (r *generateRun) removeStaleTemplate(ctx context.Context) {
	templatePath := filepath.Join(r.outputDir, core.SqaleTemplateFileName(r.root))
	if samePath(templatePath, r.req.SqalePath) {
		return
	}
	err := os.Remove(templatePath)
	if err == nil {
		log.Ctx(ctx).Debug().Str("path", templatePath).Msg("removed sqale template from an earlier run")
		return
	}
	if !os.IsNotExist(err) {
		log.Ctx(ctx).Warn().Str("path", templatePath).Err(err).Msg("failed to remove sqale template")
	}
}

// writeSBOM records the accepted closure. Only successful runs get one.
func (r *generateRun) writeSBOM(ctx context.Context) {
	path := strings.TrimSpace(r.req.SBOMPath)
	if path == "" || r.service.SBOM == nil {
		return
	}
	if err := r.service.SBOM.WriteSBOM(path, r.closure, r.now()); err != nil {
		r.log.Add(core.PathDiagnostic(
			types.SeverityWarning,
			types.MessageWriteFailed,
			path,
			fmt.Sprintf("Failed to write sbom %s: %s", path, errorText(err)),
		))
		return
	}
	log.Ctx(ctx).Debug().Str("path", path).Msg("wrote sbom")
	r.result.SBOMPath = path
}

func (r *generateRun) writeReport(ctx context.Context) {
	path := strings.TrimSpace(r.req.ReportPath)
	if path == "" || r.service.RunReport == nil {
		return
	}
	report := types.RunReport{
		Package:     r.root,
		Language:    r.language,
		Success:     r.result.Success,
		Accepted:    r.accepted,
		Closure:     r.closure.Sorted(),
		Analyzers:   r.analyzers,
		Diagnostics: r.log.Entries(),
		Artifact:    r.result.ArtifactPath,
		Template:    r.result.TemplatePath,
		CreatedAt:   r.now(),
	}
	if err := r.service.RunReport.WriteReport(path, report); err != nil {
		r.log.Add(core.PathDiagnostic(
			types.SeverityWarning,
			types.MessageWriteFailed,
			path,
			fmt.Sprintf("Failed to write run report %s: %s", path, errorText(err)),
		))
		return
	}
	log.Ctx(ctx).Debug().Str("path", path).Msg("wrote run report")
	r.result.ReportPath = path
}

func (r *generateRun) now() string {
	clock := r.service.Clock
	if clock == nil {
		clock = time.Now
	}
	return clock().UTC().Format(time.RFC3339)
}

func (r *generateRun) writeFailure(path string, msg string, err error) error {
	r.log.Add(core.PathDiagnostic(
		types.SeverityError,
		types.MessageWriteFailed,
		path,
		fmt.Sprintf("%s %s: %s", msg, path, errorText(err)),
	))
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg).
		WithCause(err)
}

func samePath(a string, b string) bool {
	if strings.TrimSpace(b) == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(strings.TrimSpace(b))
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func errorText(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && builder.Msg != "" {
		if cause := errors.Unwrap(builder); cause != nil {
			return builder.Msg + ": " + cause.Error()
		}
		return builder.Msg
	}
	return err.Error()
}
