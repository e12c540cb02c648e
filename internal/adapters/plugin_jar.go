package adapters

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"analyzer-plugin-generator/internal/ports"
	"analyzer-plugin-generator/internal/types"
)

const pluginCreatedBy = "analyzer-plugin-generator"

// JarPluginWriterAdapter assembles the plugin artifact: a jar holding the
// manifest, the analyzer assemblies and the SQALE model.
type JarPluginWriterAdapter struct{}

func NewJarPluginWriterAdapter() JarPluginWriterAdapter {
	return JarPluginWriterAdapter{}
}

func (a JarPluginWriterAdapter) WritePlugin(path string, manifest types.PluginManifest, analyzers []types.AnalyzerAssembly, sqale types.SqaleModel) error {
	if strings.TrimSpace(manifest.Key) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("plugin key is empty")
	}
	sqaleXML, err := marshalSqale(sqale)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, func(w io.Writer) error {
		jar := zip.NewWriter(w)
		if err := writeJarEntry(jar, "META-INF/MANIFEST.MF", []byte(pluginManifestText(manifest, analyzers))); err != nil {
			return err
		}
		if err := writeJarEntry(jar, "resources/sqale.xml", sqaleXML); err != nil {
			return err
		}
		if err := copyAnalyzers(jar, manifest, analyzers); err != nil {
			return err
		}
		if err := jar.Close(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to finalise plugin archive").
				WithCause(err)
		}
		return nil
	})
}

func pluginManifestText(manifest types.PluginManifest, analyzers []types.AnalyzerAssembly) string {
	packages := map[string]struct{}{}
	var refs []string
	for _, analyzer := range analyzers {
		if _, ok := packages[analyzer.Package.Key()]; ok {
			continue
		}
		packages[analyzer.Package.Key()] = struct{}{}
		refs = append(refs, analyzer.Package.ID+"@"+analyzer.Package.Version)
	}
	lines := []string{
		"Manifest-Version: 1.0",
		"Created-By: " + pluginCreatedBy,
		"Plugin-Key: " + manifest.Key,
		"Plugin-Name: " + manifest.Name,
		"Plugin-Version: " + manifest.Version,
		"Plugin-Description: " + manifest.Description,
		"Plugin-Language: " + manifest.Language,
		"Plugin-Package-Id: " + manifest.PackageID,
		"Plugin-Analyzer-Packages: " + strings.Join(refs, ","),
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

func copyAnalyzers(jar *zip.Writer, manifest types.PluginManifest, analyzers []types.AnalyzerAssembly) error {
	byPayload := map[string][]types.AnalyzerAssembly{}
	var order []string
	for _, analyzer := range analyzers {
		if _, ok := byPayload[analyzer.Payload]; !ok {
			order = append(order, analyzer.Payload)
		}
		byPayload[analyzer.Payload] = append(byPayload[analyzer.Payload], analyzer)
	}
	for _, payload := range order {
		if err := copyFromPayload(jar, manifest, payload, byPayload[payload]); err != nil {
			return err
		}
	}
	return nil
}

func copyFromPayload(jar *zip.Writer, manifest types.PluginManifest, payload string, analyzers []types.AnalyzerAssembly) error {
	reader, err := zip.OpenReader(payload)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open package archive " + payload).
			WithCause(err)
	}
	defer reader.Close()
	entries := map[string]*zip.File{}
	for _, file := range reader.File {
		entries[file.Name] = file
	}
	for _, analyzer := range analyzers {
		file, ok := entries[analyzer.EntryPath]
		if !ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("analyzer %s missing from %s", analyzer.EntryPath, analyzer.Package))
		}
		target := path.Join("static", manifest.Language, strings.ToLower(analyzer.Package.ID+"."+analyzer.Package.Version), analyzer.FileName)
		if err := copyJarEntry(jar, target, file); err != nil {
			return err
		}
	}
	return nil
}

func copyJarEntry(jar *zip.Writer, name string, file *zip.File) error {
	src, err := file.Open()
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read analyzer " + file.Name).
			WithCause(err)
	}
	defer src.Close()
	dst, err := jar.Create(name)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to add " + name + " to plugin").
			WithCause(err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to add " + name + " to plugin").
			WithCause(err)
	}
	return nil
}

func writeJarEntry(jar *zip.Writer, name string, data []byte) error {
	dst, err := jar.Create(name)
	if err == nil {
		_, err = dst.Write(data)
	}
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to add " + name + " to plugin").
			WithCause(err)
	}
	return nil
}

var _ ports.PluginWriterPort = JarPluginWriterAdapter{}
