package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/spotlight/internal/config"
	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/pipeline"
	"github.com/matzehuels/spotlight/pkg/storage"
)

// newTestCLI returns a CLI with caching disabled and draws stored in a
// temporary directory.
func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	c := New(io.Discard, LogInfo)
	c.Config.Cache.Backend = config.CacheNone
	c.Config.Storage.Backend = config.StorageFile
	c.Config.Storage.Dir = t.TempDir()
	return c
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "json", []string{"json"}},
		{"multiple formats", "svg,pdf,dot", []string{"svg", "pdf", "dot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, suffix string
		want                  string
	}{
		{"", "people.json", ".layout", "people.layout"},
		{"", "dir/people.txt", ".layout", "dir/people.layout"},
		{"out/stage.svg", "people.json", ".layout", "out/stage"},
		{"", "draw-1234abcd", "", "draw-1234abcd"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input, tt.suffix); got != tt.want {
			t.Errorf("basePath(%q, %q, %q) = %q, want %q", tt.output, tt.input, tt.suffix, got, tt.want)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	artifacts := map[string][]byte{"svg": []byte("<svg/>"), "json": []byte("{}")}

	t.Run("multiple formats share a base", func(t *testing.T) {
		err := writeArtifacts(artifactWriteParams{
			artifacts: artifacts,
			formats:   []string{"svg", "json"},
			input:     filepath.Join(dir, "people.json"),
			suffix:    ".layout",
		})
		if err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"people.layout.svg", "people.layout.json"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("missing %s: %v", name, err)
			}
		}
	})

	t.Run("single format uses output verbatim", func(t *testing.T) {
		out := filepath.Join(dir, "stage.image")
		err := writeArtifacts(artifactWriteParams{
			artifacts: artifacts,
			formats:   []string{"svg"},
			input:     "ignored",
			output:    out,
		})
		if err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(out)
		if err != nil || !bytes.Equal(data, artifacts["svg"]) {
			t.Errorf("ReadFile(%s) = %q, %v", out, data, err)
		}
	})
}

func TestRunLayout(t *testing.T) {
	c := newTestCLI(t)
	out := filepath.Join(t.TempDir(), "stage.json")

	opts := pipeline.Options{Count: 12, Formats: []string{pipeline.FormatJSON}}
	opts.Width, opts.Height = c.Config.Layout.Width, c.Config.Layout.Height
	opts.Geometry = c.Config.Layout.Options
	if err := c.runLayout(context.Background(), opts, out, true); err != nil {
		t.Fatalf("runLayout: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("slot-12")) && !bytes.Contains(data, []byte("#12")) {
		t.Errorf("layout JSON does not mention the last participant: %s", data)
	}
}

func TestRunRender(t *testing.T) {
	c := newTestCLI(t)
	ctx := context.Background()

	store, err := storage.NewFileStore(c.Config.Storage.Dir)
	if err != nil {
		t.Fatal(err)
	}
	rec := &storage.DrawRecord{
		ID:           storage.NewID(),
		Participants: []draw.Participant{{ID: "a", Name: "Ada"}, {ID: "b", Name: "Babbage"}, {ID: "c", Name: "Curie"}},
		WinnerID:     "b",
		Eliminated:   []string{"a", "c"},
		Width:        800,
		Height:       600,
		StartedAt:    time.Now().Add(-time.Minute),
		ClosedAt:     time.Now(),
		Outcome:      storage.OutcomeWinner,
	}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "final.svg")
	opts := pipeline.Options{Formats: []string{pipeline.FormatSVG}, Status: true}
	if err := c.runRender(ctx, rec.ID, opts, out, true); err != nil {
		t.Fatalf("runRender: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("Babbage")) {
		t.Error("rendered frame does not name the winner")
	}
}

func TestRunRenderUnknownDraw(t *testing.T) {
	c := newTestCLI(t)
	ctx := context.Background()

	if err := c.runRender(ctx, "not-an-id", pipeline.Options{}, "", true); err == nil {
		t.Error("runRender(invalid id) succeeded")
	}
	if err := c.runRender(ctx, storage.NewID(), pipeline.Options{}, "", true); err == nil {
		t.Error("runRender(missing draw) succeeded")
	}
}
