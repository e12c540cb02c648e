package adapters

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"analyzer-plugin-generator/internal/ports"
	"analyzer-plugin-generator/internal/types"
)

// SqaleXMLAdapter reads and writes SQALE scoring files.
type SqaleXMLAdapter struct{}

func NewSqaleXMLAdapter() SqaleXMLAdapter {
	return SqaleXMLAdapter{}
}

func (a SqaleXMLAdapter) Parse(path string) (types.SqaleModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.SqaleModel{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("sqale file not found: " + path).
			WithCause(err)
	}
	var model types.SqaleModel
	decoder := xml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&model); err != nil {
		return types.SqaleModel{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse sqale file: " + filepath.Base(path)).
			WithCause(err)
	}
	// Only whitespace, comments and processing instructions may follow the root.
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return types.SqaleModel{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to parse sqale file: " + filepath.Base(path)).
				WithCause(err)
		}
		if chars, ok := token.(xml.CharData); ok && len(bytes.TrimSpace(chars)) == 0 {
			continue
		}
		switch token.(type) {
		case xml.Comment, xml.ProcInst:
			continue
		}
		return types.SqaleModel{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse sqale file: " + filepath.Base(path) + ": unexpected content after root element")
	}
	return model, nil
}

func (a SqaleXMLAdapter) Save(model types.SqaleModel, path string) error {
	data, err := marshalSqale(model)
	if err != nil {
		return err
	}
	return writeBytesAtomic(path, data)
}

func marshalSqale(model types.SqaleModel) ([]byte, error) {
	body, err := xml.MarshalIndent(model, "", "  ")
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal sqale model").
			WithCause(err)
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(body)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

var _ ports.SqaleTemplatePort = SqaleXMLAdapter{}
