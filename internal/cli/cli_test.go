package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/spotlight/internal/config"
	"github.com/matzehuels/spotlight/pkg/integrations/listings"
	"github.com/matzehuels/spotlight/pkg/pipeline"
	"github.com/matzehuels/spotlight/pkg/storage"
)

const listingResponse = `{
  "purchase_percentage": 100,
  "winner": {"id": 12, "user": {"id": 3, "nickname": "", "first_name": "Jane", "last_name": "Smith"}},
  "data": [
    {"id": 11, "user": {"id": 2, "nickname": "aseel", "first_name": "Aseel", "last_name": "Ashraf"}},
    {"id": 12, "user": {"id": 3, "nickname": "", "first_name": "Jane", "last_name": "Smith"}},
    {"id": 13, "user": {"id": 4, "nickname": "", "first_name": "Peter", "last_name": "Pan"}}
  ]
}`

// withDataSource points c at a fake data source serving listingResponse.
func withDataSource(t *testing.T, c *CLI) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != listings.WinnerPath {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(listingResponse))
	}))
	t.Cleanup(srv.Close)
	c.Config.DataSource.BaseURL = srv.URL + "/"
}

func TestRootCommand(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := []string{"layout", "draw", "render", "history", "serve", "listing", "sound", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "selection") {
		t.Errorf("help output = %q", out.String())
	}
}

func TestLoadConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[layout]\nwidth = 1024\n\n[storage]\nbackend = \"file\"\ndir = \"" + filepath.ToSlash(t.TempDir()) + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"--config", path, "history", "--json"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if c.Config.Layout.Width != 1024 {
		t.Errorf("Layout.Width = %v, want 1024", c.Config.Layout.Width)
	}
	if c.Config.Storage.Backend != config.StorageFile {
		t.Errorf("Storage.Backend = %q", c.Config.Storage.Backend)
	}
}

func TestApplyLayoutConfig(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config.Layout.Width = 1920
	c.Config.Layout.Height = 1080

	cmd := c.layoutCommand()
	if err := cmd.ParseFlags([]string{"--height", "720"}); err != nil {
		t.Fatal(err)
	}
	opts := pipeline.Options{Height: 720}
	c.applyLayoutConfig(cmd, &opts)

	if opts.Width != 1920 {
		t.Errorf("Width = %v, want the configured 1920", opts.Width)
	}
	if opts.Height != 720 {
		t.Errorf("Height = %v, want the flag's 720", opts.Height)
	}
	if opts.Logger != c.Logger {
		t.Error("Logger not applied")
	}
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	c := New(io.Discard, LogInfo)
	c.Config.Storage.Backend = config.StorageMemory

	s, err := c.newStore(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*storage.MemoryStore); !ok {
		t.Errorf("newStore(memory) = %T", s)
	}

	c.Config.Storage.Dir = t.TempDir()
	s, err = c.newStore(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*storage.FileStore); !ok {
		t.Errorf("newStore(persistent) = %T, want a file store", s)
	}
}

func TestNewListings(t *testing.T) {
	c := New(io.Discard, LogInfo)
	if c.newListings(nil) != nil {
		t.Error("newListings without a base URL should be nil")
	}
	c.Config.DataSource.BaseURL = "https://example.com/"
	if c.newListings(nil) == nil {
		t.Error("newListings with a base URL returned nil")
	}
}

func TestRunListing(t *testing.T) {
	c := newTestCLI(t)
	withDataSource(t, c)

	if err := c.runListing(context.Background(), 42, false, false); err != nil {
		t.Fatal(err)
	}
}

func TestRunDrawFromListing(t *testing.T) {
	c := newTestCLI(t)
	withDataSource(t, c)
	ctx := context.Background()

	err := c.runDraw(ctx, drawOpts{listing: 42, timeScale: 0.001, width: 800, height: 600, plain: true, noCache: true})
	if err != nil {
		t.Fatal(err)
	}

	store, err := storage.NewFileStore(c.Config.Storage.Dir)
	if err != nil {
		t.Fatal(err)
	}
	recs, err := store.List(ctx, 1)
	if err != nil || len(recs) != 1 {
		t.Fatalf("List = %v, %v", recs, err)
	}
	if recs[0].ListingID != 42 || recs[0].WinnerID != "12" {
		t.Errorf("record = listing %d winner %q, want listing 42 winner 12", recs[0].ListingID, recs[0].WinnerID)
	}
}
