package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"analyzer-plugin-generator/internal/app"
)

const defaultSource = "https://api.nuget.org/v3/index.json"

type packageOptions struct {
	PackageID      string
	PackageVersion string
	Language       string
}

type feedOptions struct {
	Source           string
	DownloadDir      string
	Workers          int
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
}

func bindPackageFlags(cmd *cobra.Command, opts *packageOptions) {
	cmd.Flags().StringVar(&opts.PackageID, "package-id", "", "NuGet package id")
	cmd.Flags().StringVar(&opts.PackageVersion, "package-version", "", "NuGet package version")
	cmd.Flags().StringVar(&opts.Language, "language", "cs", "Analyzer language (cs or vb)")

	_ = viper.BindPFlag("package_id", cmd.Flags().Lookup("package-id"))
	_ = viper.BindPFlag("package_version", cmd.Flags().Lookup("package-version"))
	_ = viper.BindPFlag("language", cmd.Flags().Lookup("language"))
}

func bindFeedFlags(cmd *cobra.Command, opts *feedOptions) {
	cmd.Flags().StringVar(&opts.Source, "source", defaultSource, "NuGet v3 service index URL or local package folder")
	cmd.Flags().StringVar(&opts.DownloadDir, "download-dir", "", "Parent directory for per-run package downloads (default: system temp)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 4, "Concurrent package fetches")
	cmd.Flags().IntVar(&opts.HTTPTimeoutSec, "http-timeout", 60, "Feed HTTP timeout in seconds")
	cmd.Flags().IntVar(&opts.HTTPRetries, "http-retries", 3, "Feed HTTP attempts per request")
	cmd.Flags().IntVar(&opts.HTTPRetryDelayMs, "http-retry-delay-ms", 200, "Base delay between feed HTTP retries in milliseconds")

	_ = viper.BindPFlag("source", cmd.Flags().Lookup("source"))
	_ = viper.BindPFlag("download_dir", cmd.Flags().Lookup("download-dir"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("http_timeout", cmd.Flags().Lookup("http-timeout"))
	_ = viper.BindPFlag("http_retries", cmd.Flags().Lookup("http-retries"))
	_ = viper.BindPFlag("http_retry_delay_ms", cmd.Flags().Lookup("http-retry-delay-ms"))
}

func resolvePackage(cmd *cobra.Command, opts packageOptions) packageOptions {
	return packageOptions{
		PackageID:      resolveString(cmd, opts.PackageID, "package_id", "package-id"),
		PackageVersion: resolveString(cmd, opts.PackageVersion, "package_version", "package-version"),
		Language:       resolveString(cmd, opts.Language, "language", "language"),
	}
}

func resolveFeed(cmd *cobra.Command, opts feedOptions) app.FeedOptions {
	return app.FeedOptions{
		Source:           resolveString(cmd, opts.Source, "source", "source"),
		DownloadDir:      resolveString(cmd, opts.DownloadDir, "download_dir", "download-dir"),
		Workers:          resolveInt(cmd, opts.Workers, "workers", "workers"),
		HTTPTimeoutSec:   resolveInt(cmd, opts.HTTPTimeoutSec, "http_timeout", "http-timeout"),
		HTTPRetries:      resolveInt(cmd, opts.HTTPRetries, "http_retries", "http-retries"),
		HTTPRetryDelayMs: resolveInt(cmd, opts.HTTPRetryDelayMs, "http_retry_delay_ms", "http-retry-delay-ms"),
	}
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func resolveInt(cmd *cobra.Command, value int, key string, flagName string) int {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetInt(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
