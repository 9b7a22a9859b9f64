// Package modpack defines the data model for mod definitions and resolved
// metadata, and parses packwiz-style definition files into references the
// resolvers can act on.
package modpack

import "fmt"

// Platform identifies a mod-hosting platform.
type Platform string

const (
	PlatformModrinth   Platform = "modrinth"
	PlatformCurseForge Platform = "curseforge"
)

// Side describes which game side a mod applies to.
type Side string

const (
	SideClient Side = "client"
	SideServer Side = "server"
	SideBoth   Side = "both"
)

// ParseSide maps a definition-file side value onto the Side enum.
// Unknown or empty values default to SideBoth.
func ParseSide(s string) Side {
	switch Side(s) {
	case SideClient, SideServer:
		return Side(s)
	default:
		return SideBoth
	}
}

// SideFromModrinth derives the side from Modrinth's client_side/server_side
// support flags ("required", "optional", "unsupported").
func SideFromModrinth(clientSide, serverSide string) Side {
	switch {
	case serverSide == "unsupported" && (clientSide == "required" || clientSide == "optional"):
		return SideClient
	case clientSide == "unsupported" && (serverSide == "required" || serverSide == "optional"):
		return SideServer
	default:
		return SideBoth
	}
}

// ModReference identifies a mod to resolve on an external platform.
// (Platform, ProjectID, VersionID) identifies one cache entry.
// ProjectID may be a platform id or a slug; Modrinth accepts slugs natively
// and the CurseForge client resolves slugs through its search endpoint.
// VersionID is empty when the definition pins no version, in which case the
// latest version is resolved.
type ModReference struct {
	Platform  Platform
	ProjectID string
	VersionID string
}

func (r ModReference) String() string {
	if r.VersionID == "" {
		return fmt.Sprintf("%s/%s", r.Platform, r.ProjectID)
	}
	return fmt.Sprintf("%s/%s@%s", r.Platform, r.ProjectID, r.VersionID)
}

// ModMetadata is the canonical display metadata for one mod.
// The first five fields are the manifest contract with the front-end;
// GameVersions and Loaders are additive display data.
type ModMetadata struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Author       string   `json:"author,omitempty"`
	URL          string   `json:"url"`
	Side         Side     `json:"side"`
	GameVersions []string `json:"game_versions,omitempty"`
	Loaders      []string `json:"loaders,omitempty"`
}

// Definition is the parsed form of one definition file. Exactly one of Ref
// and Inline is set: Ref for platform-hosted mods that need resolution,
// Inline for externally hosted mods whose metadata is complete in the file.
// SideHint carries the file's own side declaration, used when the platform
// cannot report side applicability (CurseForge doesn't model sides).
type Definition struct {
	Path     string
	Ref      *ModReference
	Inline   *ModMetadata
	SideHint string
}

// MalformedError reports a definition file from which no usable reference
// or inline metadata could be extracted. It is recorded and skipped, never
// fatal to the run.
type MalformedError struct {
	Path   string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}
