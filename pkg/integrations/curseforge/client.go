// Package curseforge provides an HTTP client for the CurseForge core API.
//
// Every endpoint requires an API key sent as the x-api-key header. The key
// is supplied out of band through the FORGE_API_KEY environment variable;
// without it, CurseForge-hosted mods cannot be resolved.
package curseforge

import (
	"context"
	"fmt"

	"github.com/ToyVo/minecraft-modpack/pkg/integrations"
)

const (
	defaultBaseURL = "https://api.curseforge.com/v1"

	// minecraftGameID is CurseForge's game id for Minecraft, required by
	// the search endpoint.
	minecraftGameID = 432
)

// Mod holds the subset of the CurseForge mod payload the manifest needs.
type Mod struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Links struct {
		WebsiteURL string `json:"websiteUrl"`
	} `json:"links"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	LatestFiles        []File      `json:"latestFiles"`
	LatestFilesIndexes []FileIndex `json:"latestFilesIndexes"`
}

// File is one uploaded mod file. DisplayName is the human-readable version
// label ("Sodium 0.5.3"); FileName is the jar name.
type File struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName"`
	FileName    string `json:"fileName"`
}

// FileIndex summarizes one (game version, loader) pairing of a latest file.
// ModLoader is a pointer because older indexes omit the field entirely.
type FileIndex struct {
	GameVersion string `json:"gameVersion"`
	ModLoader   *int64 `json:"modLoader"`
}

// Client provides access to the CurseForge API.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client

	// BaseURL is the API root. Overridable for tests.
	BaseURL string
}

// NewClient creates a CurseForge client authenticating with apiKey.
func NewClient(apiKey string) *Client {
	headers := map[string]string{
		"x-api-key": apiKey,
		"Accept":    "application/json",
	}
	return &Client{
		Client:  integrations.NewClient(headers),
		BaseURL: defaultBaseURL,
	}
}

// FetchMod retrieves a mod by its numeric project id.
// Returns [integrations.ErrNotFound] if the mod doesn't exist.
func (c *Client) FetchMod(ctx context.Context, modID int64) (*Mod, error) {
	var resp struct {
		Data Mod `json:"data"`
	}
	if err := c.Get(ctx, fmt.Sprintf("%s/mods/%d", c.BaseURL, modID), &resp); err != nil {
		return nil, fmt.Errorf("curseforge mod %d: %w", modID, err)
	}
	return &resp.Data, nil
}

// FetchFile retrieves one uploaded file of a mod.
// Returns [integrations.ErrNotFound] if the file doesn't exist.
func (c *Client) FetchFile(ctx context.Context, modID, fileID int64) (*File, error) {
	var resp struct {
		Data File `json:"data"`
	}
	if err := c.Get(ctx, fmt.Sprintf("%s/mods/%d/files/%d", c.BaseURL, modID, fileID), &resp); err != nil {
		return nil, fmt.Errorf("curseforge mod %d file %d: %w", modID, fileID, err)
	}
	return &resp.Data, nil
}

// ResolveSlug finds a mod by its URL slug through the search endpoint.
// Returns [integrations.ErrNotFound] when no Minecraft mod has that slug.
func (c *Client) ResolveSlug(ctx context.Context, slug string) (*Mod, error) {
	var resp struct {
		Data []Mod `json:"data"`
	}
	url := fmt.Sprintf("%s/mods/search?gameId=%d&slug=%s", c.BaseURL, minecraftGameID, slug)
	if err := c.Get(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("curseforge slug %s: %w", slug, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("curseforge slug %s: %w", slug, integrations.ErrNotFound)
	}
	return &resp.Data[0], nil
}
