package modpack

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/BurntSushi/toml"
)

// definitionFile mirrors the packwiz metafile TOML layout. Pointer fields
// distinguish an absent table from an empty one.
type definitionFile struct {
	Name     string `toml:"name"`
	Filename string `toml:"filename"`
	Side     string `toml:"side"`
	Download struct {
		URL string `toml:"url"`
	} `toml:"download"`
	Update   *updateTable `toml:"update"`
	Homepage string       `toml:"homepage"`
}

type updateTable struct {
	Modrinth *struct {
		ModID   string `toml:"mod-id"`
		Version string `toml:"version"`
	} `toml:"modrinth"`
	CurseForge *struct {
		ProjectID int64 `toml:"project-id"`
		FileID    int64 `toml:"file-id"`
	} `toml:"curseforge"`
}

// Identifier extraction patterns for URL-embedded references. The Modrinth
// CDN pattern carries both the project and version id; the page patterns
// yield a slug.
var (
	modrinthCDNRe  = regexp.MustCompile(`cdn\.modrinth\.com/data/([A-Za-z0-9]+)/versions/([A-Za-z0-9]+)/`)
	modrinthPageRe = regexp.MustCompile(`modrinth\.com/(?:mod|plugin|datapack|resourcepack|shader)/([A-Za-z0-9_-]+)`)
	curseforgeRe   = regexp.MustCompile(`curseforge\.com/minecraft/mc-mods/([a-z0-9-]+)`)
)

// ParseDefinition parses one definition file into a Definition.
//
// Resolution order:
//  1. [update.modrinth] mod-id/version
//  2. [update.curseforge] project-id/file-id
//  3. identifier extraction from the download URL or homepage
//  4. inline metadata (name + side + download url, externally hosted mods)
//
// When none applies the file is malformed and a *MalformedError is
// returned.
func ParseDefinition(path string, data []byte) (*Definition, error) {
	var def definitionFile
	if err := toml.Unmarshal(data, &def); err != nil {
		return nil, &MalformedError{Path: path, Reason: fmt.Sprintf("invalid TOML: %v", err)}
	}

	d := &Definition{Path: path, SideHint: def.Side}

	if def.Update != nil {
		switch {
		case def.Update.Modrinth != nil && def.Update.CurseForge == nil:
			if def.Update.Modrinth.ModID == "" {
				return nil, &MalformedError{Path: path, Reason: "update.modrinth has no mod-id"}
			}
			d.Ref = &ModReference{
				Platform:  PlatformModrinth,
				ProjectID: def.Update.Modrinth.ModID,
				VersionID: def.Update.Modrinth.Version,
			}
		case def.Update.CurseForge != nil && def.Update.Modrinth == nil:
			if def.Update.CurseForge.ProjectID == 0 {
				return nil, &MalformedError{Path: path, Reason: "update.curseforge has no project-id"}
			}
			d.Ref = &ModReference{
				Platform:  PlatformCurseForge,
				ProjectID: strconv.FormatInt(def.Update.CurseForge.ProjectID, 10),
			}
			if def.Update.CurseForge.FileID != 0 {
				d.Ref.VersionID = strconv.FormatInt(def.Update.CurseForge.FileID, 10)
			}
		default:
			return nil, &MalformedError{Path: path, Reason: "update table has neither modrinth nor curseforge"}
		}
		return d, nil
	}

	if ref := extractReference(def.Download.URL, def.Homepage); ref != nil {
		d.Ref = ref
		return d, nil
	}

	// Hosted elsewhere: the definition itself carries the display metadata.
	if def.Name != "" && def.Download.URL != "" {
		d.Inline = &ModMetadata{
			Name:    def.Name,
			Version: def.Filename,
			URL:     def.Download.URL,
			Side:    ParseSide(def.Side),
		}
		return d, nil
	}

	return nil, &MalformedError{Path: path, Reason: "no platform identifier found"}
}

// extractReference pulls a platform reference out of identifier-bearing
// URLs. Candidates are tried in order; empty strings are skipped.
func extractReference(urls ...string) *ModReference {
	for _, u := range urls {
		if u == "" {
			continue
		}
		if m := modrinthCDNRe.FindStringSubmatch(u); m != nil {
			return &ModReference{Platform: PlatformModrinth, ProjectID: m[1], VersionID: m[2]}
		}
		if m := modrinthPageRe.FindStringSubmatch(u); m != nil {
			return &ModReference{Platform: PlatformModrinth, ProjectID: m[1]}
		}
		if m := curseforgeRe.FindStringSubmatch(u); m != nil {
			return &ModReference{Platform: PlatformCurseForge, ProjectID: m[1]}
		}
	}
	return nil
}
