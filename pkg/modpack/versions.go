package modpack

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// releaseVersionRe matches stable Minecraft release versions ("1.20",
// "1.20.1"), excluding snapshots and pre-releases.
var releaseVersionRe = regexp.MustCompile(`^1\.[0-9]+(\.[0-9]+)?$`)

// FilterReleaseVersions keeps only stable release versions.
func FilterReleaseVersions(versions []string) []string {
	var out []string
	for _, v := range versions {
		if releaseVersionRe.MatchString(v) {
			out = append(out, v)
		}
	}
	return out
}

// SortGameVersions orders Minecraft versions newest-first, comparing the
// minor then the patch component. "1.20" sorts as "1.20.0".
func SortGameVersions(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		minorA, patchA := minorPatch(versions[i])
		minorB, patchB := minorPatch(versions[j])
		if minorA != minorB {
			return minorA > minorB
		}
		return patchA > patchB
	})
}

func minorPatch(v string) (minor, patch int) {
	parts := strings.Split(v, ".")
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		patch, _ = strconv.Atoi(parts[2])
	}
	return minor, patch
}

// LoaderName maps the CurseForge modLoader enum onto its display name.
func LoaderName(id int64) string {
	switch id {
	case 0:
		return "any"
	case 1:
		return "forge"
	case 2:
		return "cauldron"
	case 3:
		return "liteloader"
	case 4:
		return "fabric"
	case 5:
		return "quilt"
	case 6:
		return "neoforge"
	default:
		return "unknown"
	}
}
