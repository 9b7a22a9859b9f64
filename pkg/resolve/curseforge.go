package resolve

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/ToyVo/minecraft-modpack/pkg/integrations/curseforge"
	"github.com/ToyVo/minecraft-modpack/pkg/modpack"
)

type curseforgeResolver struct {
	client *curseforge.Client
}

// NewCurseForge creates the resolver for CurseForge-hosted mods.
func NewCurseForge(client *curseforge.Client) Resolver {
	return &curseforgeResolver{client: client}
}

// Resolve fetches the mod (by numeric id, or by slug through search) and
// normalizes it into the manifest shape. CurseForge doesn't model side
// applicability, so the side defaults to both; the aggregator overrides it
// with the definition file's own declaration when present.
func (r *curseforgeResolver) Resolve(ctx context.Context, ref modpack.ModReference) (*modpack.ModMetadata, error) {
	var (
		mod *curseforge.Mod
		err error
	)
	if id, convErr := strconv.ParseInt(ref.ProjectID, 10, 64); convErr == nil {
		mod, err = r.client.FetchMod(ctx, id)
	} else {
		mod, err = r.client.ResolveSlug(ctx, ref.ProjectID)
	}
	if err != nil {
		return nil, err
	}

	version, err := r.versionLabel(ctx, mod, ref.VersionID)
	if err != nil {
		return nil, err
	}

	gameVersions, loaders := indexSummary(mod.LatestFilesIndexes)

	meta := &modpack.ModMetadata{
		Name:         mod.Name,
		Version:      version,
		URL:          mod.Links.WebsiteURL,
		Side:         modpack.SideBoth,
		GameVersions: gameVersions,
		Loaders:      loaders,
	}
	if len(mod.Authors) > 0 {
		meta.Author = mod.Authors[0].Name
	}
	return meta, nil
}

// versionLabel resolves the display label for the pinned file, falling back
// to the newest uploaded file when the definition pins none.
func (r *curseforgeResolver) versionLabel(ctx context.Context, mod *curseforge.Mod, versionID string) (string, error) {
	if versionID != "" {
		fileID, err := strconv.ParseInt(versionID, 10, 64)
		if err != nil {
			return "", fmt.Errorf("curseforge file id %q is not numeric", versionID)
		}
		file, err := r.client.FetchFile(ctx, mod.ID, fileID)
		if err != nil {
			return "", err
		}
		return fileLabel(*file), nil
	}
	if len(mod.LatestFiles) > 0 {
		return fileLabel(mod.LatestFiles[0]), nil
	}
	return "", nil
}

func fileLabel(f curseforge.File) string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.FileName
}

// indexSummary collects the distinct game versions and loader names across
// the latest file indexes, sorted for stable output.
func indexSummary(indexes []curseforge.FileIndex) (gameVersions, loaders []string) {
	versionSet := make(map[string]bool)
	loaderSet := make(map[string]bool)
	for _, idx := range indexes {
		versionSet[idx.GameVersion] = true
		if idx.ModLoader != nil {
			loaderSet[modpack.LoaderName(*idx.ModLoader)] = true
		}
	}

	for v := range versionSet {
		gameVersions = append(gameVersions, v)
	}
	gameVersions = modpack.FilterReleaseVersions(gameVersions)
	modpack.SortGameVersions(gameVersions)

	for l := range loaderSet {
		loaders = append(loaders, l)
	}
	sort.Strings(loaders)
	return gameVersions, loaders
}
