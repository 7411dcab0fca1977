// Package listings is the client for the listing data source, which reports
// a listing's sign-up progress, its participants and (once drawn upstream)
// the designated winner.
//
// # Usage
//
//	client := listings.NewClient(c, "https://api.example.com", token, 5*time.Minute)
//	d, err := client.Winner(ctx, 42, false)
//	seq, _ := draw.New(sched, d.Participants, positions, draw.WithWinner(d.WinnerID))
//
// Every failure is reported as an errors.ErrCodeUpstream (or
// ErrCodeListingNotFound) error; the draw itself never sees upstream errors.
package listings
