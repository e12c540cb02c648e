package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"analyzer-plugin-generator/internal/app"
)

type inspectOptions struct {
	Package packageOptions
	Feed    feedOptions
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the dependency closure of a package with license and analyzer details",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.Context(), cmd, opts)
		},
	}
	bindPackageFlags(cmd, &opts.Package)
	bindFeedFlags(cmd, &opts.Feed)
	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, opts inspectOptions) error {
	pkg := resolvePackage(cmd, opts.Package)
	service := app.NewService()
	result, err := service.Inspect(ctx, app.InspectRequest{
		PackageID:      pkg.PackageID,
		PackageVersion: pkg.PackageVersion,
		Language:       pkg.Language,
		Feed:           resolveFeed(cmd, opts.Feed),
	})
	if err != nil {
		return err
	}

	fmt.Printf("dependency closure of %s: %d packages\n", result.Root, len(result.Packages))
	gated := 0
	for _, entry := range result.Packages {
		license := ""
		if entry.LicenseRequired {
			license = " [license acceptance required]"
			gated++
		}
		fmt.Printf("- %s%s\n", entry.Ref, license)
		if len(entry.Analyzers) > 0 {
			fmt.Printf("  analyzers: %s\n", strings.Join(entry.Analyzers, ", "))
		}
	}
	if gated > 0 {
		fmt.Printf("%d package(s) require license acceptance; pass --accept-licenses to generate\n", gated)
	}
	return nil
}
