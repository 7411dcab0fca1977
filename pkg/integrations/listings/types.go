package listings

import (
	"strconv"
	"strings"

	"github.com/matzehuels/spotlight/pkg/campaign"
	"github.com/matzehuels/spotlight/pkg/draw"
)

// User is the account behind a participation.
type User struct {
	ID             int     `json:"id"`
	Email          string  `json:"email"`
	Photo          *string `json:"photo"`
	Nickname       string  `json:"nickname"`
	FirstName      string  `json:"first_name"`
	MiddleName     *string `json:"middle_name"`
	LastName       string  `json:"last_name"`
	ProfilePicture *string `json:"profile_picture"`
}

// DisplayName returns the nickname, falling back to "first last".
func (u User) DisplayName() string {
	if n := strings.TrimSpace(u.Nickname); n != "" {
		return n
	}
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// Participation is one entry in a listing.
type Participation struct {
	ID   int  `json:"id"`
	User User `json:"user"`
}

// WinnerResponse is the wire format of the winner endpoint.
type WinnerResponse struct {
	PurchasePercentage float64         `json:"purchase_percentage"`
	Winner             *Participation  `json:"winner"`
	Data               []Participation `json:"data"`
}

// Draw is a listing converted for the ceremony.
type Draw struct {
	ListingID    int                `json:"listing_id"`
	Progress     campaign.Progress  `json:"progress"`
	Participants []draw.Participant `json:"participants"`
	// WinnerID is empty until the data source designates a winner.
	WinnerID string `json:"winner_id,omitempty"`
}

// ToDraw converts a response. Participation IDs become participant IDs;
// duplicate participations are kept once, in first-seen order.
func (r WinnerResponse) ToDraw(listingID int) Draw {
	d := Draw{
		ListingID:    listingID,
		Progress:     campaign.NewProgress(r.PurchasePercentage),
		Participants: make([]draw.Participant, 0, len(r.Data)),
	}
	seen := make(map[int]bool, len(r.Data))
	for _, p := range r.Data {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		d.Participants = append(d.Participants, draw.Participant{
			ID:   strconv.Itoa(p.ID),
			Name: p.User.DisplayName(),
		})
	}
	if r.Winner != nil && seen[r.Winner.ID] {
		d.WinnerID = strconv.Itoa(r.Winner.ID)
	}
	return d
}
