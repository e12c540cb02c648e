package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"analyzer-plugin-generator/internal/core"
	"analyzer-plugin-generator/internal/semver"
	"analyzer-plugin-generator/internal/types"
)

const defaultLanguage = "cs"

var supportedLanguages = map[string]struct{}{
	"cs": {},
	"vb": {},
}

func packageRef(id string, version string) (types.PackageRef, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.PackageRef{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package id is required")
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return types.PackageRef{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package version is required")
	}
	if _, err := semver.Normalize(version); err != nil {
		return types.PackageRef{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid package version " + version).
			WithCause(err)
	}
	return types.NewPackageRef(id, version), nil
}

func normalizeLanguage(value string) (string, error) {
	language := strings.ToLower(strings.TrimSpace(value))
	if language == "" {
		language = defaultLanguage
	}
	if _, ok := supportedLanguages[language]; !ok {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported language " + language + " (expected cs or vb)")
	}
	return language, nil
}

// createRunDir makes a private payload directory under parent, or under
// the system temp directory when parent is empty.
func createRunDir(parent string) (string, error) {
	parent = strings.TrimSpace(parent)
	if parent == "" {
		parent = os.TempDir()
	}
	if err := os.MkdirAll(parent, 0755); err != nil {
		return "", err
	}
	return os.MkdirTemp(parent, "apg-run-*")
}

func removeRunDir(ctx context.Context, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		log.Ctx(ctx).Warn().Str("path", dir).Err(err).Msg("failed to remove download directory")
	}
}

// fetchFailure gives a resolver failure the error code of its cause:
// NotFound for a missing package, Internal for anything else.
func fetchFailure(err error) error {
	var fetchErr *core.FetchError
	if !errors.As(err, &fetchErr) {
		return err
	}
	code := errbuilder.CodeInternal
	if errbuilder.CodeOf(fetchErr.Err) == errbuilder.CodeNotFound {
		code = errbuilder.CodeNotFound
	}
	return errbuilder.New().
		WithCode(code).
		WithMsg(fmt.Sprintf("failed to fetch package %s", fetchErr.Ref)).
		WithCause(err)
}
