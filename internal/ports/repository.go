package ports

import (
	"context"

	"analyzer-plugin-generator/internal/types"
)

// PackageRepositoryPort reads package metadata and payloads from a feed.
// Implementations report a missing package with errbuilder.CodeNotFound.
type PackageRepositoryPort interface {
	GetMetadata(ctx context.Context, ref types.PackageRef) (types.PackageMetadata, error)

	// DownloadPayload materialises the package archive inside destDir and
	// returns the local path of the archive.
	DownloadPayload(ctx context.Context, ref types.PackageRef, destDir string) (string, error)
}
