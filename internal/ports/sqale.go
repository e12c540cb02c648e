package ports

import "analyzer-plugin-generator/internal/types"

type SqaleTemplatePort interface {
	Parse(path string) (types.SqaleModel, error)
	Save(model types.SqaleModel, path string) error
}
