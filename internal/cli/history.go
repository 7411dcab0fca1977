package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spotlight/pkg/storage"
)

// historyCommand creates the history command listing recorded draws.
func (c *CLI) historyCommand() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded draws",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runHistory(cmd.Context(), limit, asJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of draws (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	cmd.AddCommand(c.historyDeleteCommand())

	return cmd
}

func (c *CLI) historyDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <draw-id>",
		Short: "Delete a recorded draw",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rec, err := c.loadRecord(ctx, args[0])
			if err != nil {
				return err
			}
			store, err := c.newStore(ctx, true)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Delete(ctx, rec.ID); err != nil {
				return fmt.Errorf("delete draw: %w", err)
			}
			printSuccess("Deleted draw %s", shortID(rec.ID))
			return nil
		},
	}
}

func (c *CLI) runHistory(ctx context.Context, limit int, asJSON bool) error {
	store, err := c.newStore(ctx, true)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("list draws: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}

	if len(recs) == 0 {
		printInfo("No draws recorded yet")
		printNewline()
		printNextStep("Run one", "spotlight draw -n 12")
		return nil
	}

	fmt.Println(historyTable(recs))
	return nil
}

// historyTable renders records as a table, newest first.
func historyTable(recs []*storage.DrawRecord) string {
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		listing := ""
		if rec.ListingID != 0 {
			listing = strconv.Itoa(rec.ListingID)
		}
		rows = append(rows, []string{
			shortID(rec.ID),
			rec.StartedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(len(rec.Participants)),
			listing,
			string(rec.Outcome),
			winnerName(rec),
			rec.ClosedAt.Sub(rec.StartedAt).Round(time.Second).String(),
		})
	}
	return newTable("ID", "Started", "Entrants", "Listing", "Outcome", "Winner", "Duration").
		Rows(rows...).
		Render()
}

func winnerName(rec *storage.DrawRecord) string {
	if rec.Outcome != storage.OutcomeWinner {
		return ""
	}
	for _, p := range rec.Participants {
		if p.ID == rec.WinnerID {
			return p.Name
		}
	}
	return rec.WinnerID
}
