package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/sound"
)

// soundCommand creates the sound command that exports or plays cues.
func (c *CLI) soundCommand() *cobra.Command {
	var (
		dir  string
		seed uint64
		play bool
	)

	cmd := &cobra.Command{
		Use:   "sound [cue...]",
		Short: "Export ceremony sound cues as WAV files",
		Long: `Export ceremony sound cues as WAV files.

Without arguments every cue is exported: ` + cueList() + `.
The seed varies the win cue's sparkle; the other cues are fixed.`,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return cueNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cues, err := parseCues(args)
			if err != nil {
				return err
			}
			if play {
				return c.playCues(cmd.Context(), cues)
			}
			return exportCues(cues, dir, seed)
		},
	}

	cmd.Flags().StringVarP(&dir, "output", "o", ".", "output directory")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "synthesis seed")
	cmd.Flags().BoolVar(&play, "play", false, "play the cues instead of exporting them")

	return cmd
}

func parseCues(args []string) ([]sound.Cue, error) {
	if len(args) == 0 {
		return sound.Cues, nil
	}
	cues := make([]sound.Cue, 0, len(args))
	for _, a := range args {
		cue := sound.Cue(strings.ToLower(a))
		if !cue.Valid() {
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cue %q (valid: %s)", a, cueList())
		}
		cues = append(cues, cue)
	}
	return cues, nil
}

// exportCues writes <cue>.wav for each cue into dir.
func exportCues(cues []sound.Cue, dir string, seed uint64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, cue := range cues {
		data, err := sound.RenderWAV(cue, seed)
		if err != nil {
			return fmt.Errorf("render %s: %w", cue, err)
		}
		path := filepath.Join(dir, string(cue)+".wav")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// playCues plays each cue on the speaker and waits for it to finish.
func (c *CLI) playCues(ctx context.Context, cues []sound.Cue) error {
	sp, err := sound.NewSpeaker()
	if err != nil {
		return err
	}
	for _, cue := range cues {
		printInfo("Playing %s", cue)
		sp.Play(cue)
		select {
		case <-time.After(sound.Duration(cue) + 200*time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func cueNames() []string {
	names := make([]string, len(sound.Cues))
	for i, c := range sound.Cues {
		names[i] = string(c)
	}
	return names
}

func cueList() string { return strings.Join(cueNames(), ", ") }
