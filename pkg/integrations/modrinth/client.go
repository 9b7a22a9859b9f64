// Package modrinth provides an HTTP client for the Modrinth v2 API.
//
// Projects are addressed by id or slug interchangeably; the API accepts
// both. Versions are separate resources, so resolving a pinned definition
// takes two calls: one for the project, one for the version.
package modrinth

import (
	"context"
	"fmt"

	"github.com/ToyVo/minecraft-modpack/pkg/integrations"
)

const defaultBaseURL = "https://api.modrinth.com/v2"

// Project holds the subset of the Modrinth project payload the manifest
// needs. ClientSide and ServerSide carry the support flags ("required",
// "optional", "unsupported") that determine side applicability.
type Project struct {
	Title        string   `json:"title"`
	Slug         string   `json:"slug"`
	ClientSide   string   `json:"client_side"`
	ServerSide   string   `json:"server_side"`
	GameVersions []string `json:"game_versions"`
	Loaders      []string `json:"loaders"`
}

// Version holds the subset of the Modrinth version payload the manifest needs.
type Version struct {
	ID            string `json:"id"`
	VersionNumber string `json:"version_number"`
}

// Client provides access to the Modrinth API.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client

	// BaseURL is the API root. Overridable for tests.
	BaseURL string
}

// NewClient creates a Modrinth client. Modrinth asks API consumers to
// identify themselves with a User-Agent header.
func NewClient() *Client {
	headers := map[string]string{
		"User-Agent": "packmeta/1.0 (github.com/ToyVo/minecraft-modpack)",
	}
	return &Client{
		Client:  integrations.NewClient(headers),
		BaseURL: defaultBaseURL,
	}
}

// FetchProject retrieves a project by id or slug.
// Returns [integrations.ErrNotFound] if the project doesn't exist.
func (c *Client) FetchProject(ctx context.Context, idOrSlug string) (*Project, error) {
	var p Project
	if err := c.Get(ctx, fmt.Sprintf("%s/project/%s", c.BaseURL, idOrSlug), &p); err != nil {
		return nil, fmt.Errorf("modrinth project %s: %w", idOrSlug, err)
	}
	return &p, nil
}

// FetchVersion retrieves a version by its id.
// Returns [integrations.ErrNotFound] if the version doesn't exist.
func (c *Client) FetchVersion(ctx context.Context, versionID string) (*Version, error) {
	var v Version
	if err := c.Get(ctx, fmt.Sprintf("%s/version/%s", c.BaseURL, versionID), &v); err != nil {
		return nil, fmt.Errorf("modrinth version %s: %w", versionID, err)
	}
	return &v, nil
}

// FetchLatestVersion retrieves the newest listed version of a project.
// The version list endpoint returns versions newest-first.
func (c *Client) FetchLatestVersion(ctx context.Context, idOrSlug string) (*Version, error) {
	var versions []Version
	if err := c.Get(ctx, fmt.Sprintf("%s/project/%s/version", c.BaseURL, idOrSlug), &versions); err != nil {
		return nil, fmt.Errorf("modrinth versions of %s: %w", idOrSlug, err)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("modrinth versions of %s: %w", idOrSlug, integrations.ErrNotFound)
	}
	return &versions[0], nil
}
