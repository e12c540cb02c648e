package ports

import "analyzer-plugin-generator/internal/types"

// SBOMPort records the resolved dependency closure as a software bill of
// materials.
type SBOMPort interface {
	WriteSBOM(path string, closure types.DependencyClosure, createdAt string) error
}
