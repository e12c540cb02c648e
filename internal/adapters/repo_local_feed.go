package adapters

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"analyzer-plugin-generator/internal/ports"
	"analyzer-plugin-generator/internal/types"
)

// LocalFeedAdapter serves packages from a folder of .nupkg files, either
// flat or in the hierarchical {id}/{version}/ layout.
type LocalFeedAdapter struct {
	Root string

	once  sync.Once
	index map[string]localFeedEntry
	err   error
}

type localFeedEntry struct {
	path     string
	metadata types.PackageMetadata
	// err is set when the nuspec names the package but cannot be used.
	err error
}

func NewLocalFeedAdapter(root string) *LocalFeedAdapter {
	return &LocalFeedAdapter{Root: root}
}

func (a *LocalFeedAdapter) GetMetadata(ctx context.Context, ref types.PackageRef) (types.PackageMetadata, error) {
	entry, err := a.lookup(ctx, ref)
	if err != nil {
		return types.PackageMetadata{}, err
	}
	return entry.metadata, nil
}

func (a *LocalFeedAdapter) DownloadPayload(ctx context.Context, ref types.PackageRef, destDir string) (string, error) {
	entry, err := a.lookup(ctx, ref)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := os.Open(entry.path)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open package archive").
			WithCause(err)
	}
	defer src.Close()

	dest := filepath.Join(destDir, payloadFileName(ref))
	if err := writeFileAtomic(dest, func(w io.Writer) error {
		if _, err := io.Copy(w, src); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to copy package archive").
				WithCause(err)
		}
		return nil
	}); err != nil {
		return "", err
	}
	return dest, nil
}

func (a *LocalFeedAdapter) lookup(ctx context.Context, ref types.PackageRef) (localFeedEntry, error) {
	a.once.Do(func() {
		a.index, a.err = a.scan(ctx)
	})
	if a.err != nil {
		return localFeedEntry{}, a.err
	}
	entry, ok := a.index[ref.Key()]
	if !ok {
		return localFeedEntry{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package %s not found in %s", ref, a.Root))
	}
	if entry.err != nil {
		return localFeedEntry{}, entry.err
	}
	return entry, nil
}

func (a *LocalFeedAdapter) scan(ctx context.Context) (map[string]localFeedEntry, error) {
	root := strings.TrimSpace(a.Root)
	if root == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("local feed directory is empty")
	}
	index := map[string]localFeedEntry{}
	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".nupkg") {
			return nil
		}
		data, err := readNuspecFromArchive(path)
		if err != nil {
			log.Ctx(ctx).Warn().Str("path", path).Err(err).Msg("skipping unreadable package archive")
			return nil
		}
		metadata, err := parseNuspec(data)
		if err != nil && metadata.Ref.ID != "" {
			log.Ctx(ctx).Warn().Str("path", path).Err(err).Msg("package has unusable dependencies")
			index[metadata.Ref.Key()] = localFeedEntry{path: path, err: err}
			return nil
		}
		if err != nil {
			log.Ctx(ctx).Warn().Str("path", path).Err(err).Msg("skipping package with invalid nuspec")
			return nil
		}
		index[metadata.Ref.Key()] = localFeedEntry{path: path, metadata: metadata}
		return nil
	})
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to scan local feed " + root).
			WithCause(err)
	}
	log.Ctx(ctx).Debug().Str("feed", root).Int("packages", len(index)).Msg("local feed indexed")
	return index, nil
}

// payloadFileName is the archive name used inside the download directory.
func payloadFileName(ref types.PackageRef) string {
	return strings.ToLower(fmt.Sprintf("%s.%s.nupkg", ref.ID, ref.Version))
}

var _ ports.PackageRepositoryPort = (*LocalFeedAdapter)(nil)
