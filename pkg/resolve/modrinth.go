package resolve

import (
	"context"
	"fmt"
	"sort"

	"github.com/ToyVo/minecraft-modpack/pkg/integrations/modrinth"
	"github.com/ToyVo/minecraft-modpack/pkg/modpack"
)

type modrinthResolver struct {
	client *modrinth.Client
}

// NewModrinth creates the resolver for Modrinth-hosted mods.
func NewModrinth(client *modrinth.Client) Resolver {
	return &modrinthResolver{client: client}
}

// Resolve fetches the project and its pinned (or latest) version and
// normalizes both into the manifest shape.
func (r *modrinthResolver) Resolve(ctx context.Context, ref modpack.ModReference) (*modpack.ModMetadata, error) {
	project, err := r.client.FetchProject(ctx, ref.ProjectID)
	if err != nil {
		return nil, err
	}

	var version *modrinth.Version
	if ref.VersionID != "" {
		version, err = r.client.FetchVersion(ctx, ref.VersionID)
	} else {
		version, err = r.client.FetchLatestVersion(ctx, ref.ProjectID)
	}
	if err != nil {
		return nil, err
	}

	gameVersions := modpack.FilterReleaseVersions(project.GameVersions)
	modpack.SortGameVersions(gameVersions)

	loaders := append([]string(nil), project.Loaders...)
	sort.Strings(loaders)

	return &modpack.ModMetadata{
		Name:         project.Title,
		Version:      version.VersionNumber,
		URL:          fmt.Sprintf("https://modrinth.com/mod/%s", project.Slug),
		Side:         modpack.SideFromModrinth(project.ClientSide, project.ServerSide),
		GameVersions: gameVersions,
		Loaders:      loaders,
	}, nil
}
