package app

import (
	"time"

	"analyzer-plugin-generator/internal/adapters"
	"analyzer-plugin-generator/internal/ports"
)

type Service struct {
	Repository   func(feed FeedOptions) ports.PackageRepositoryPort
	Inspector    ports.AnalyzerInspectorPort
	Sqale        ports.SqaleTemplatePort
	PluginWriter ports.PluginWriterPort
	RunReport    ports.RunReportPort
	SBOM         ports.SBOMPort
	Clock        func() time.Time
}

func NewService() Service {
	return Service{
		Repository:   repositoryForFeed,
		Inspector:    adapters.NewNupkgInspectorAdapter(),
		Sqale:        adapters.NewSqaleXMLAdapter(),
		PluginWriter: adapters.NewJarPluginWriterAdapter(),
		RunReport:    adapters.NewRunReportYAMLAdapter(),
		SBOM:         adapters.NewSBOMWriterAdapter(),
		Clock:        time.Now,
	}
}

func repositoryForFeed(feed FeedOptions) ports.PackageRepositoryPort {
	return adapters.NewPackageRepository(feed.Source, feed.HTTPTimeoutSec, feed.HTTPRetries, feed.HTTPRetryDelayMs)
}
