package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/integrations/listings"
)

// listingCommand creates the listing command that inspects a data-source
// listing.
func (c *CLI) listingCommand() *cobra.Command {
	var (
		refresh bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "listing <id>",
		Short: "Show a listing's campaign progress and participants",
		Long: `Show a listing's campaign progress and participants.

The listing is fetched from the data source configured under [data_source]
and cached for data_source.cache_ttl.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return errors.New(errors.ErrCodeInvalidInput, "invalid listing id %q", args[0])
			}
			return c.runListing(cmd.Context(), id, refresh, asJSON)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the listing as JSON")

	return cmd
}

func (c *CLI) runListing(ctx context.Context, id int, refresh, asJSON bool) error {
	cc, err := c.newCache(ctx, false)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer cc.Close()

	client := c.newListings(cc)
	if client == nil {
		return errors.New(errors.ErrCodeUnsupported, "no data source configured (set data_source.base_url)")
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Fetching listing %d...", id))
	spinner.Start()
	d, err := client.Winner(ctx, id, refresh)
	if err != nil {
		spinner.StopWithError("Fetch failed")
		return err
	}
	spinner.Stop()
	loggerFromContext(ctx).Debug("listing fetched", "id", id, "participants", len(d.Participants), "winner", d.WinnerID)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	printListing(d)
	return nil
}

func printListing(d listings.Draw) {
	printKeyValue("Listing", strconv.Itoa(d.ListingID))
	printKeyValue("Progress", d.Progress.String())
	printKeyValue("Entrants", strconv.Itoa(len(d.Participants)))
	if !d.Progress.Complete() {
		printNewline()
		printWarning("Campaign still open")
	}

	if len(d.Participants) > 0 {
		rows := make([][]string, 0, len(d.Participants))
		for i, p := range d.Participants {
			mark := ""
			if p.ID == d.WinnerID {
				mark = "★"
			}
			rows = append(rows, []string{strconv.Itoa(i + 1), p.Name, p.ID, mark})
		}
		printNewline()
		fmt.Println(newTable("#", "Participant", "ID", "").Rows(rows...).Render())
	}

	if d.WinnerID != "" {
		printNewline()
		printNextStep("Run the draw", fmt.Sprintf("spotlight draw --listing %d", d.ListingID))
	}
}
