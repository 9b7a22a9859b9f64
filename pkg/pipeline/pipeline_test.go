package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ToyVo/minecraft-modpack/pkg/cache"
	"github.com/ToyVo/minecraft-modpack/pkg/httputil"
	"github.com/ToyVo/minecraft-modpack/pkg/integrations"
	"github.com/ToyVo/minecraft-modpack/pkg/modpack"
	"github.com/ToyVo/minecraft-modpack/pkg/resolve"
)

// stubResolver counts calls per reference and delegates to fn.
type stubResolver struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(ref modpack.ModReference) (*modpack.ModMetadata, error)
}

func newStubResolver(fn func(ref modpack.ModReference) (*modpack.ModMetadata, error)) *stubResolver {
	return &stubResolver{calls: make(map[string]int), fn: fn}
}

func (s *stubResolver) Resolve(_ context.Context, ref modpack.ModReference) (*modpack.ModMetadata, error) {
	s.mu.Lock()
	s.calls[ref.String()]++
	s.mu.Unlock()
	return s.fn(ref)
}

func (s *stubResolver) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func registryWith(r resolve.Resolver) *resolve.Registry {
	reg := resolve.NewRegistry()
	reg.Register(modpack.PlatformModrinth, r)
	reg.Register(modpack.PlatformCurseForge, r)
	return reg
}

// echoMeta returns metadata derived from the reference, so tests can assert
// which entry produced which manifest row.
func echoMeta(ref modpack.ModReference) (*modpack.ModMetadata, error) {
	return &modpack.ModMetadata{
		Name:    "Mod " + ref.ProjectID,
		Version: "1.0.0",
		URL:     "https://example.com/" + ref.ProjectID,
		Side:    modpack.SideBoth,
	}, nil
}

func writeDef(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func modrinthDef(projectID string) string {
	return fmt.Sprintf("name = \"Mod %s\"\n[update.modrinth]\nmod-id = %q\n", projectID, projectID)
}

func manifestNames(manifest []modpack.ModMetadata) []string {
	names := make([]string, len(manifest))
	for i, m := range manifest {
		names[i] = m.Name
	}
	return names
}

func TestRun_OrderMatchesInput(t *testing.T) {
	dir := t.TempDir()
	for i := range 6 {
		writeDef(t, dir, fmt.Sprintf("mod%d.toml", i), modrinthDef(fmt.Sprintf("p%d", i)))
	}

	// Later entries finish first, so input order must survive reassembly.
	stub := newStubResolver(func(ref modpack.ModReference) (*modpack.ModMetadata, error) {
		var i int
		fmt.Sscanf(ref.ProjectID, "p%d", &i)
		time.Sleep(time.Duration(6-i) * 5 * time.Millisecond)
		return echoMeta(ref)
	})

	result, err := Run(context.Background(), Options{
		InputDir:  dir,
		Resolvers: registryWith(stub),
		Workers:   6,
	})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	got := manifestNames(result.Manifest)
	want := []string{"Mod p0", "Mod p1", "Mod p2", "Mod p3", "Mod p4", "Mod p5"}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("got manifest order %v, want %v", got, want)
		}
	}
}

func TestRun_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "a.toml", modrinthDef("good-a"))
	writeDef(t, dir, "b.toml", modrinthDef("broken"))
	writeDef(t, dir, "c.toml", modrinthDef("good-c"))

	stub := newStubResolver(func(ref modpack.ModReference) (*modpack.ModMetadata, error) {
		if ref.ProjectID == "broken" {
			return nil, integrations.ErrNotFound
		}
		return echoMeta(ref)
	})

	result, err := Run(context.Background(), Options{InputDir: dir, Resolvers: registryWith(stub)})
	if err != nil {
		t.Fatalf("Run() failed: %v (per-entry failures must not abort the run)", err)
	}

	got := manifestNames(result.Manifest)
	if len(got) != 2 || got[0] != "Mod good-a" || got[1] != "Mod good-c" {
		t.Errorf("got manifest %v, want the two good entries in order", got)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(result.Failures))
	}
	f := result.Failures[0]
	if f.Path != filepath.Join(dir, "b.toml") {
		t.Errorf("failure path = %q, want b.toml", f.Path)
	}
	if !errors.Is(f.Err, integrations.ErrNotFound) {
		t.Errorf("failure err = %v, want ErrNotFound", f.Err)
	}
}

func TestRun_MalformedRecorded(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "a.toml", modrinthDef("good"))
	writeDef(t, dir, "bad.toml", "name = \"Mystery\"\n")

	stub := newStubResolver(echoMeta)
	result, err := Run(context.Background(), Options{InputDir: dir, Resolvers: registryWith(stub)})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(result.Manifest) != 1 {
		t.Errorf("got %d manifest entries, want 1", len(result.Manifest))
	}
	if len(result.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(result.Failures))
	}
	var malformed *modpack.MalformedError
	if !errors.As(result.Failures[0].Err, &malformed) {
		t.Errorf("failure err = %v, want *MalformedError", result.Failures[0].Err)
	}
}

func TestRun_CacheMemoization(t *testing.T) {
	dir := t.TempDir()
	for i := range 3 {
		writeDef(t, dir, fmt.Sprintf("mod%d.toml", i), modrinthDef(fmt.Sprintf("p%d", i)))
	}

	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	stub := newStubResolver(echoMeta)
	opts := Options{InputDir: dir, Cache: store, Resolvers: registryWith(stub)}

	first, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Run() failed: %v", err)
	}
	if stub.totalCalls() != 3 {
		t.Fatalf("first run made %d resolutions, want 3", stub.totalCalls())
	}

	second, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Run() failed: %v", err)
	}
	if stub.totalCalls() != 3 {
		t.Errorf("second run made %d extra resolutions, want 0 (all cached)", stub.totalCalls()-3)
	}

	// Warm and cold runs must emit identical manifests.
	a, _ := json.Marshal(first.Manifest)
	b, _ := json.Marshal(second.Manifest)
	if string(a) != string(b) {
		t.Errorf("cached run produced different manifest:\n%s\nvs\n%s", a, b)
	}
}

func TestRun_RepinInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "mod.toml", "[update.modrinth]\nmod-id = \"p1\"\nversion = \"v1\"\n")

	store, _ := cache.NewFileCache(t.TempDir())
	stub := newStubResolver(func(ref modpack.ModReference) (*modpack.ModMetadata, error) {
		return &modpack.ModMetadata{Name: "Mod", Version: ref.VersionID, URL: "u", Side: modpack.SideBoth}, nil
	})
	opts := Options{InputDir: dir, Cache: store, Resolvers: registryWith(stub)}

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("first Run() failed: %v", err)
	}

	// Re-pinning the definition changes the cache key, forcing re-resolution.
	writeDef(t, dir, "mod.toml", "[update.modrinth]\nmod-id = \"p1\"\nversion = \"v2\"\n")
	result, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Run() failed: %v", err)
	}
	if stub.totalCalls() != 2 {
		t.Errorf("got %d resolutions, want 2 (new pin misses the cache)", stub.totalCalls())
	}
	if result.Manifest[0].Version != "v2" {
		t.Errorf("got version %q, want the re-pinned v2", result.Manifest[0].Version)
	}
}

func TestRun_RefreshBypassesCache(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "mod.toml", modrinthDef("p1"))

	store, _ := cache.NewFileCache(t.TempDir())
	stub := newStubResolver(echoMeta)
	opts := Options{InputDir: dir, Cache: store, Resolvers: registryWith(stub)}

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("first Run() failed: %v", err)
	}
	opts.Refresh = true
	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("refresh Run() failed: %v", err)
	}
	if stub.totalCalls() != 2 {
		t.Errorf("got %d resolutions, want 2 (refresh skips cache reads)", stub.totalCalls())
	}
}

func TestRun_Dedup(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "a.toml", modrinthDef("p1"))
	writeDef(t, dir, "b.toml", modrinthDef("p1"))

	stub := newStubResolver(echoMeta)
	result, err := Run(context.Background(), Options{InputDir: dir, Resolvers: registryWith(stub)})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(result.Manifest) != 1 {
		t.Errorf("got %d manifest entries, want 1 (duplicate project skipped)", len(result.Manifest))
	}
	if len(result.Failures) != 0 {
		t.Errorf("duplicates are skipped, not failed: %v", result.Failures)
	}
}

func TestRun_InlineDefinition(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "hosted.toml", `
name = "OptiFine"
filename = "OptiFine_1.20.1.jar"
side = "client"
[download]
url = "https://optifine.net/download"
`)

	stub := newStubResolver(echoMeta)
	result, err := Run(context.Background(), Options{InputDir: dir, Resolvers: registryWith(stub)})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if stub.totalCalls() != 0 {
		t.Errorf("externally hosted mods must not hit resolvers, got %d calls", stub.totalCalls())
	}
	if len(result.Manifest) != 1 || result.Manifest[0].Name != "OptiFine" {
		t.Fatalf("got manifest %v, want the inline entry", result.Manifest)
	}
	if result.Manifest[0].Side != modpack.SideClient {
		t.Errorf("got side %q, want client", result.Manifest[0].Side)
	}
}

func TestRun_SideHintOverridesCurseForge(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "mod.toml", "side = \"client\"\n[update.curseforge]\nproject-id = 42\n")

	store, _ := cache.NewFileCache(t.TempDir())
	stub := newStubResolver(echoMeta) // reports side both
	result, err := Run(context.Background(), Options{InputDir: dir, Cache: store, Resolvers: registryWith(stub)})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if result.Manifest[0].Side != modpack.SideClient {
		t.Errorf("got side %q, want the definition's client hint", result.Manifest[0].Side)
	}

	// The cache stores what the platform reported, not the hinted value.
	data, ok, err := store.Get(context.Background(), cache.Key("curseforge", "42", ""))
	if err != nil || !ok {
		t.Fatalf("cache entry missing: %v, %v", ok, err)
	}
	var cached modpack.ModMetadata
	if err := json.Unmarshal(data, &cached); err != nil {
		t.Fatal(err)
	}
	if cached.Side != modpack.SideBoth {
		t.Errorf("cached side = %q, want the resolver's both", cached.Side)
	}

	// A warm run must apply the hint again.
	result, err = Run(context.Background(), Options{InputDir: dir, Cache: store, Resolvers: registryWith(stub)})
	if err != nil {
		t.Fatalf("warm Run() failed: %v", err)
	}
	if result.Manifest[0].Side != modpack.SideClient {
		t.Errorf("warm run side = %q, want client", result.Manifest[0].Side)
	}
}

func TestRun_TransientRetried(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "mod.toml", modrinthDef("flaky"))

	attempts := 0
	var mu sync.Mutex
	stub := newStubResolver(func(ref modpack.ModReference) (*modpack.ModMetadata, error) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n == 1 {
			return nil, httputil.Retryable(integrations.ErrNetwork)
		}
		return echoMeta(ref)
	})

	result, err := Run(context.Background(), Options{
		InputDir:   dir,
		Resolvers:  registryWith(stub),
		Attempts:   3,
		RetryDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(result.Failures) != 0 {
		t.Errorf("transient failure should have been retried: %v", result.Failures)
	}
	if len(result.Manifest) != 1 {
		t.Errorf("got %d manifest entries, want 1", len(result.Manifest))
	}
}

func TestRun_ExhaustedRetriesFailEntry(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "mod.toml", modrinthDef("down"))

	stub := newStubResolver(func(modpack.ModReference) (*modpack.ModMetadata, error) {
		return nil, httputil.Retryable(integrations.ErrNetwork)
	})

	result, err := Run(context.Background(), Options{
		InputDir:   dir,
		Resolvers:  registryWith(stub),
		Attempts:   2,
		RetryDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if stub.totalCalls() != 2 {
		t.Errorf("got %d attempts, want 2", stub.totalCalls())
	}
	if len(result.Failures) != 1 || !errors.Is(result.Failures[0].Err, integrations.ErrNetwork) {
		t.Errorf("got failures %v, want one ErrNetwork", result.Failures)
	}
}

type failingSetCache struct {
	cache.Cache
}

func (f failingSetCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("disk full")
}

func TestRun_CacheWriteFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "mod.toml", modrinthDef("p1"))

	stub := newStubResolver(echoMeta)
	_, err := Run(context.Background(), Options{
		InputDir:  dir,
		Cache:     failingSetCache{Cache: cache.NewNullCache()},
		Resolvers: registryWith(stub),
	})
	if err == nil {
		t.Fatal("expected fatal error when the cache cannot be written")
	}
}

type failingGetCache struct {
	cache.Cache
}

func (f failingGetCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("read error")
}

func TestRun_CacheReadFailureDegradesToMiss(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "mod.toml", modrinthDef("p1"))

	stub := newStubResolver(echoMeta)
	result, err := Run(context.Background(), Options{
		InputDir:  dir,
		Cache:     failingGetCache{Cache: cache.NewNullCache()},
		Resolvers: registryWith(stub),
	})
	if err != nil {
		t.Fatalf("Run() failed: %v (cache reads must degrade to misses)", err)
	}
	if len(result.Manifest) != 1 {
		t.Errorf("got %d manifest entries, want 1", len(result.Manifest))
	}
	if stub.totalCalls() != 1 {
		t.Errorf("got %d resolutions, want 1", stub.totalCalls())
	}
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "mod.toml", modrinthDef("p1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := newStubResolver(echoMeta)
	_, err := Run(ctx, Options{InputDir: dir, Resolvers: registryWith(stub)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestRun_MissingInputDir(t *testing.T) {
	_, err := Run(context.Background(), Options{
		InputDir:  filepath.Join(t.TempDir(), "absent"),
		Resolvers: resolve.NewRegistry(),
	})
	if err == nil {
		t.Error("expected error for missing input directory")
	}
}
