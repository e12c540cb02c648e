package core

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"analyzer-plugin-generator/internal/types"
)

const (
	sqaleTemplateSuffix = ".sqale.template.xml"
	pluginSuffix        = ".jar"
)

// SqaleTemplateFileName is the name of the generated scoring template for a
// package: "{id}.{version}.sqale.template.xml".
func SqaleTemplateFileName(ref types.PackageRef) string {
	return fmt.Sprintf("%s.%s%s", ref.ID, ref.Version, sqaleTemplateSuffix)
}

// PluginFileName is the name of the plugin artifact for a package:
// "{id}-plugin.{version}.jar".
func PluginFileName(ref types.PackageRef) string {
	return fmt.Sprintf("%s-plugin.%s%s", ref.ID, ref.Version, pluginSuffix)
}

func NewPluginManifest(ref types.PackageRef, language string) types.PluginManifest {
	return types.PluginManifest{
		Key:         PluginKey(ref.ID),
		Name:        ref.ID,
		Version:     ref.Version,
		Language:    language,
		PackageID:   ref.ID,
		Description: fmt.Sprintf("Analyzers from package %s", ref),
	}
}

// PluginKey derives a plugin key from a package id. Keys are lower-case
// and alphanumeric.
func PluginKey(packageID string) string {
	var builder strings.Builder
	for _, r := range strings.ToLower(packageID) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// RuleRepositoryKey is the key under which the plugin registers its rules.
func RuleRepositoryKey(manifest types.PluginManifest) string {
	return fmt.Sprintf("roslyn.%s.%s", manifest.Key, manifest.Language)
}

// DefaultSqaleTemplate builds a scoring template with one placeholder entry
// per analyzer assembly. Users fill in remediation costs and pass the file
// back on a later run.
func DefaultSqaleTemplate(manifest types.PluginManifest, analyzers []types.AnalyzerAssembly) types.SqaleModel {
	repoKey := RuleRepositoryKey(manifest)
	readability := types.SqaleCharacteristic{
		Key:  "READABILITY",
		Name: "Readability",
	}
	seen := map[string]struct{}{}
	for _, analyzer := range analyzers {
		ruleKey := strings.TrimSuffix(analyzer.FileName, filepath.Ext(analyzer.FileName))
		if _, ok := seen[ruleKey]; ok {
			continue
		}
		seen[ruleKey] = struct{}{}
		readability.Characteristics = append(readability.Characteristics, types.SqaleCharacteristic{
			RuleRepoKey: repoKey,
			RuleKey:     ruleKey,
			Properties: []types.SqaleProperty{
				{Key: "remediationFunction", Text: "CONSTANT_ISSUE"},
				{Key: "offset", Value: 0, Text: "mn"},
			},
		})
	}
	return types.SqaleModel{
		Characteristics: []types.SqaleCharacteristic{
			{
				Key:             "MAINTAINABILITY",
				Name:            "Maintainability",
				Characteristics: []types.SqaleCharacteristic{readability},
			},
		},
	}
}
