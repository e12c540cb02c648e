package core

import (
	"context"
	"fmt"
	"sort"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/rs/zerolog/log"

	"analyzer-plugin-generator/internal/types"
)

// LicensesAcceptedMessage is reported whenever generation proceeds on the
// strength of the accept-licenses flag.
const LicensesAcceptedMessage = "The licenses of the packages listed above have been accepted on behalf of the user"

// LicensePolicy decides whether a dependency closure may be used given a
// single, closure-wide license acceptance flag.
type LicensePolicy struct{}

func NewLicensePolicy() LicensePolicy {
	return LicensePolicy{}
}

func (p LicensePolicy) Evaluate(ctx context.Context, closure types.DependencyClosure, acceptLicenses bool) types.Decision {
	assert.NotEmpty(ctx, closure.Root.ID, "closure root must be set")

	gated := licenseGated(closure)
	if len(gated) == 0 {
		return types.Decision{Allowed: true}
	}

	decision := types.Decision{}
	for _, ref := range gated {
		decision.Diagnostics = append(decision.Diagnostics, PackageDiagnostic(
			types.SeverityWarning,
			types.MessageLicenseRequired,
			ref,
			fmt.Sprintf("Package %s requires license acceptance", ref),
		))
	}

	if !acceptLicenses {
		decision.Diagnostics = append(decision.Diagnostics, PackageDiagnostic(
			types.SeverityError,
			types.MessageLicenseDenied,
			closure.Root,
			fmt.Sprintf("Package %s cannot be generated: one or more packages require license acceptance. Review the licenses listed above and rerun with --accept-licenses to accept them", closure.Root),
		))
		log.Ctx(ctx).Debug().Int("gated", len(gated)).Msg("license acceptance required but not given")
		return decision
	}

	decision.Allowed = true
	decision.Diagnostics = append(decision.Diagnostics, MessageDiagnostic(
		types.SeverityWarning,
		types.MessageLicensesAccepted,
		LicensesAcceptedMessage,
	))
	return decision
}

// licenseGated returns the distinct license-gated refs ordered by key so the
// outcome does not depend on traversal order.
func licenseGated(closure types.DependencyClosure) []types.PackageRef {
	byKey := map[string]types.PackageRef{}
	for _, node := range closure.Nodes {
		if !node.LicenseRequired {
			continue
		}
		byKey[node.Ref.Key()] = node.Ref
	}
	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	refs := make([]types.PackageRef, 0, len(keys))
	for _, key := range keys {
		refs = append(refs, byKey[key])
	}
	return refs
}
