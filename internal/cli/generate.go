package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"analyzer-plugin-generator/internal/app"
)

type generateOptions struct {
	Package        packageOptions
	Feed           feedOptions
	SqalePath      string
	AcceptLicenses bool
	OutputDir      string
	ReportPath     string
	SBOMPath       string
}

func newGenerateCommand() *cobra.Command {
	opts := generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an analyzer plugin from a NuGet package",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), cmd, opts)
		},
	}

	bindPackageFlags(cmd, &opts.Package)
	bindFeedFlags(cmd, &opts.Feed)
	cmd.Flags().StringVar(&opts.SqalePath, "sqale", "", "Existing sqale file to embed instead of generating a template")
	cmd.Flags().BoolVar(&opts.AcceptLicenses, "accept-licenses", false, "Accept the licenses of every package in the dependency closure")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")
	cmd.Flags().StringVar(&opts.ReportPath, "report", "", "Write a YAML run report to this path")
	cmd.Flags().StringVar(&opts.SBOMPath, "sbom", "", "Write an SPDX JSON bill of materials for the dependency closure to this path")

	_ = viper.BindPFlag("sqale", cmd.Flags().Lookup("sqale"))
	_ = viper.BindPFlag("accept_licenses", cmd.Flags().Lookup("accept-licenses"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("report", cmd.Flags().Lookup("report"))
	_ = viper.BindPFlag("sbom", cmd.Flags().Lookup("sbom"))

	return cmd
}

func runGenerate(ctx context.Context, cmd *cobra.Command, opts generateOptions) error {
	pkg := resolvePackage(cmd, opts.Package)
	service := app.NewService()
	result, err := service.Generate(ctx, app.GenerateRequest{
		PackageID:      pkg.PackageID,
		PackageVersion: pkg.PackageVersion,
		Language:       pkg.Language,
		SqalePath:      resolveString(cmd, opts.SqalePath, "sqale", "sqale"),
		AcceptLicenses: resolveBool(cmd, opts.AcceptLicenses, "accept_licenses", "accept-licenses"),
		OutputDir:      resolveString(cmd, opts.OutputDir, "output", "output"),
		Feed:           resolveFeed(cmd, opts.Feed),
		ReportPath:     resolveString(cmd, opts.ReportPath, "report", "report"),
		SBOMPath:       resolveString(cmd, opts.SBOMPath, "sbom", "sbom"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("generated plugin: %s\n", result.ArtifactPath)
	if result.TemplatePath != "" {
		fmt.Printf("generated sqale template: %s\n", result.TemplatePath)
	}
	if result.SBOMPath != "" {
		fmt.Printf("wrote sbom: %s\n", result.SBOMPath)
	}
	if result.ReportPath != "" {
		fmt.Printf("wrote run report: %s\n", result.ReportPath)
	}
	return nil
}
