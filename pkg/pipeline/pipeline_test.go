package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/spotlight/pkg/cache"
	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/ring"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"dot", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateStyle(t *testing.T) {
	tests := []struct {
		style   string
		wantErr bool
	}{
		{"light", false},
		{"dark", false},
		{"handdrawn", true},
	}
	for _, tt := range tests {
		err := ValidateStyle(tt.style)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateStyle(%q) error = %v, wantErr %v", tt.style, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Participants: Placeholders(5)}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Width != DefaultWidth || opts.Height != DefaultHeight {
		t.Errorf("viewport = %vx%v", opts.Width, opts.Height)
	}
	if opts.Count != 5 {
		t.Errorf("Count = %d, want 5 from participants", opts.Count)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG || opts.Style != DefaultStyle {
		t.Errorf("render defaults = %v %q", opts.Formats, opts.Style)
	}

	bad := Options{Width: -1}
	if err := bad.ValidateForLayout(); !errors.Is(err, errors.ErrCodeInvalidViewport) {
		t.Errorf("negative width = %v", err)
	}
}

func TestResolve(t *testing.T) {
	ps, err := Resolve(Options{Count: 3})
	if err != nil || len(ps) != 3 || ps[2].ID != "slot-3" {
		t.Errorf("Resolve(count) = %v, %v", ps, err)
	}

	path := filepath.Join(t.TempDir(), "roster.txt")
	os.WriteFile(path, []byte("Ann\nBob\n"), 0o644)
	ps, err = Resolve(Options{RosterPath: path, Count: 9})
	if err != nil || len(ps) != 2 {
		t.Errorf("Resolve(roster) = %v, %v", ps, err)
	}

	explicit := []draw.Participant{{ID: "x", Name: "X"}}
	if ps, _ := Resolve(Options{Participants: explicit, RosterPath: path}); len(ps) != 1 {
		t.Errorf("explicit participants not preferred: %v", ps)
	}
}

func TestRunnerLayoutCaching(t *testing.T) {
	ctx := context.Background()
	c, _ := cache.NewFileCache(t.TempDir())
	r := NewRunner(c, nil, nil)

	opts := Options{Count: 30, Width: 1024, Height: 768}
	l1, hit, err := r.LayoutWithCacheInfo(ctx, opts)
	if err != nil || hit {
		t.Fatalf("first layout hit=%v err=%v", hit, err)
	}
	l2, hit, err := r.LayoutWithCacheInfo(ctx, opts)
	if err != nil || !hit {
		t.Fatalf("second layout hit=%v err=%v", hit, err)
	}
	if layoutHash(l1) != layoutHash(l2) {
		t.Error("cached layout differs from computed one")
	}

	opts.Refresh = true
	if _, hit, _ := r.LayoutWithCacheInfo(ctx, opts); hit {
		t.Error("Refresh served from cache")
	}
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	c, _ := cache.NewFileCache(t.TempDir())
	r := NewRunner(c, nil, nil)

	opts := Options{
		Participants: []draw.Participant{{ID: "a", Name: "Ann"}, {ID: "b", Name: "Bob"}, {ID: "c", Name: "Cid"}},
		Formats:      []string{FormatSVG, FormatJSON, FormatDOT},
		Rings:        true,
	}
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Participants != 3 || res.Stats.Rings != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if !strings.Contains(string(res.Artifacts[FormatSVG]), "Ann") {
		t.Error("SVG missing participant name")
	}
	if !strings.Contains(string(res.Artifacts[FormatDOT]), `label="Bob"`) {
		t.Error("DOT missing participant name")
	}
	var doc map[string]any
	if err := json.Unmarshal(res.Artifacts[FormatJSON], &doc); err != nil {
		t.Errorf("JSON artifact invalid: %v", err)
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.LayoutHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run cache info = %+v", again.CacheInfo)
	}

	// A different state must not reuse the cached artifacts.
	opts.State = &draw.State{Phase: draw.PhaseSpinning, Spotlight: 1, Eliminated: []string{"a"}}
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.RenderHit {
		t.Error("state change served stale artifacts")
	}
	if !strings.Contains(string(third.Artifacts[FormatSVG]), "card eliminated") {
		t.Error("state not rendered")
	}
}

func TestRenderEmptyLayout(t *testing.T) {
	l := ring.ComputeWithOptions(0, 800, 600, ring.DefaultOptions())
	out, err := Render(l, Options{Formats: []string{FormatSVG, FormatJSON}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(out[FormatSVG]), "<svg") {
		t.Error("empty layout should still render a stage")
	}
}

func TestRenderInvalidStyle(t *testing.T) {
	if _, err := Render(ring.Layout{}, Options{Style: "sepia"}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Render(sepia) = %v", err)
	}
}
