package adapters

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"analyzer-plugin-generator/internal/types"
)

func sampleSqaleModel() types.SqaleModel {
	return types.SqaleModel{
		Characteristics: []types.SqaleCharacteristic{
			{
				Key:  "MAINTAINABILITY",
				Name: "Maintainability",
				Characteristics: []types.SqaleCharacteristic{
					{
						Key:         "READABILITY",
						Name:        "Readability",
						RuleRepoKey: "roslyn.example",
						RuleKey:     "EX0001",
						Properties: []types.SqaleProperty{
							{Key: "remediationFunction", Text: "CONSTANT_ISSUE"},
							{Key: "offset", Value: 15, Text: "mn"},
						},
					},
				},
			},
		},
	}
}

func TestSqaleXMLAdapterRoundTrip(t *testing.T) {
	adapter := NewSqaleXMLAdapter()
	path := filepath.Join(t.TempDir(), "nested", "model.sqale.xml")
	model := sampleSqaleModel()

	require.NoError(t, adapter.Save(model, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "<?xml"))

	parsed, err := adapter.Parse(path)
	require.NoError(t, err)
	if diff := cmp.Diff(model.Characteristics, parsed.Characteristics); diff != "" {
		t.Fatalf("unexpected model (-want +got):\n%s", diff)
	}
}

func TestSqaleXMLAdapterParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not xml", content: "not a valid xml file"},
		{name: "wrong root", content: "<rules><rule/></rules>"},
		{name: "trailing content", content: "<sqale></sqale><sqale></sqale>"},
		{name: "truncated", content: "<sqale><chc><key>A</key>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "invalidSqale.xml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := NewSqaleXMLAdapter().Parse(path)
			require.Error(t, err)
			require.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
		})
	}
}

func TestSqaleXMLAdapterAcceptsTrailingComment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commented.xml")
	require.NoError(t, os.WriteFile(path, []byte("<sqale></sqale>\n<!-- generated -->\n"), 0644))

	_, err := NewSqaleXMLAdapter().Parse(path)
	require.NoError(t, err)
}

func TestSqaleXMLAdapterMissingFile(t *testing.T) {
	_, err := NewSqaleXMLAdapter().Parse(filepath.Join(t.TempDir(), "missing.xml"))
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}
