// Package compat evaluates engine versions against migration-eligibility
// thresholds. The check is independent of cost and runs even when cost
// modeling fails for an instance.
package compat

import (
	"strings"

	"golang.org/x/mod/semver"

	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
)

// Check derives the compatibility flags for an engine version using the
// configured thresholds. Versions compare by semantic (major, minor, patch)
// ordering, never lexically.
func Check(cfg common.ModelConfig, family common.EngineFamily, engine, version string) common.CompatibilityFlags {
	policy, ok := cfg.VersionPolicies[family]
	if !ok {
		return common.CompatibilityFlags{}
	}

	v := "v" + NormalizeVersion(engine, version)
	if !semver.IsValid(v) {
		// An unparseable version cannot be cleared for migration.
		return common.CompatibilityFlags{NeedsMajorUpgrade: true}
	}

	flags := common.CompatibilityFlags{
		// Below the lowest supported floor means a major upgrade is
		// required before migration.
		NeedsMajorUpgrade: semver.Compare(v, "v"+policy.MinimumSupported[0]) < 0,
	}

	// Extended-support window: start inclusive, end exclusive.
	if semver.Compare(v, "v"+policy.ExtendedSupportStart) >= 0 &&
		semver.Compare(v, "v"+policy.ExtendedSupportEnd) < 0 {
		flags.InExtendedSupportWindow = true
	}

	return flags
}

// NormalizeVersion maps an RDS engine version string to the
// community-compatible version the thresholds are expressed in. Aurora
// MySQL reports versions like "5.7.mysql_aurora.2.11.2", where the leading
// prefix is the compatible MySQL version.
func NormalizeVersion(engine, version string) string {
	engineLower := strings.ToLower(engine)

	if strings.Contains(engineLower, "aurora") && strings.Contains(engineLower, "mysql") {
		if strings.Contains(version, "mysql_aurora.2.") {
			return "5.7"
		}
		if strings.Contains(version, "mysql_aurora.3.") {
			return "8.0"
		}
	}

	// Keep the leading dotted-numeric prefix, dropping vendor suffixes.
	parts := strings.Split(version, ".")
	kept := make([]string, 0, 3)
	for _, part := range parts {
		if !isNumeric(part) || len(kept) == 3 {
			break
		}
		kept = append(kept, part)
	}
	if len(kept) == 0 {
		return version
	}
	return strings.Join(kept, ".")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
