package semver

import (
	"fmt"
	"strconv"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Normalize returns the NuGet normal form of a version: three numeric
// parts, a fourth only when it is non-zero, the release label and no
// build metadata. "1.0", "1.0.0.0" and "1.0.0+sha" all normalise to
// "1.0.0". The first three parts and the label are validated by
// github.com/Masterminds/semver/v3.
func Normalize(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("semver: empty version")
	}
	if i := strings.IndexByte(value, '+'); i >= 0 {
		value = value[:i]
	}
	numeric, label := value, ""
	if i := strings.IndexByte(value, '-'); i >= 0 {
		numeric, label = value[:i], value[i:]
	}
	parts := strings.Split(numeric, ".")
	if len(parts) > 4 {
		return "", fmt.Errorf("semver: version %q has more than four parts", raw)
	}
	revision := uint64(0)
	if len(parts) == 4 {
		rev, err := strconv.ParseUint(parts[3], 10, 64)
		if err != nil {
			return "", fmt.Errorf("semver: parse version %q: invalid revision %q", raw, parts[3])
		}
		revision = rev
		parts = parts[:3]
	}
	parsed, err := mm.NewVersion(strings.Join(parts, ".") + label)
	if err != nil {
		return "", fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	out := fmt.Sprintf("%d.%d.%d", parsed.Major(), parsed.Minor(), parsed.Patch())
	if revision != 0 {
		out += "." + strconv.FormatUint(revision, 10)
	}
	if pre := parsed.Prerelease(); pre != "" {
		out += "-" + pre
	}
	return out, nil
}

// Canonical is the lower-cased normal form, used for identity keys and
// feed URLs. Versions that do not normalise fall back to their trimmed,
// lower-cased text.
func Canonical(raw string) string {
	normalized, err := Normalize(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return strings.ToLower(normalized)
}

// MinimumOfRange returns the inclusive lower bound of a NuGet version range.
//
// Accepted forms:
// - "1.0"          (minimum version, inclusive)
// - "[1.0]"        (exact)
// - "[1.0, 2.0)"   (inclusive lower bound)
//
// Ranges without a lower bound or with an exclusive one cannot be pinned to a
// single version without querying the feed and are rejected.
func MinimumOfRange(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("semver: empty version range")
	}
	if !strings.ContainsAny(value[:1], "[(") {
		if _, err := Normalize(value); err != nil {
			return "", err
		}
		return value, nil
	}
	if strings.HasPrefix(value, "(") {
		return "", fmt.Errorf("semver: range %q has an exclusive lower bound", raw)
	}
	inner := strings.TrimLeft(value, "[")
	inner = strings.TrimRight(inner, "])")
	lower := strings.TrimSpace(strings.SplitN(inner, ",", 2)[0])
	if lower == "" {
		return "", fmt.Errorf("semver: range %q has no lower bound", raw)
	}
	if _, err := Normalize(lower); err != nil {
		return "", err
	}
	return lower, nil
}
