package listings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/spotlight/pkg/buildinfo"
	"github.com/matzehuels/spotlight/pkg/cache"
	serrors "github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/integrations"
)

// WinnerPath is the endpoint path relative to the base URL.
const WinnerPath = "/api/v1/listings/listing/winner/"

// Client fetches listings from the data source.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a listings client. token, when set, is sent as a bearer
// Authorization header. Responses are cached for cacheTTL.
func NewClient(c cache.Cache, baseURL, token string, cacheTTL time.Duration) *Client {
	headers := map[string]string{"User-Agent": buildinfo.UserAgent()}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:  integrations.NewClient(c, "listings", cacheTTL, headers),
		baseURL: integrations.NormalizeBaseURL(baseURL),
	}
}

// Winner fetches progress, participants and designated winner of a listing.
// If refresh is true, the cache is bypassed.
func (c *Client) Winner(ctx context.Context, listingID int, refresh bool) (Draw, error) {
	if err := serrors.ValidateListingID(listingID); err != nil {
		return Draw{}, err
	}
	if c.baseURL == "" {
		return Draw{}, serrors.New(serrors.ErrCodeInvalidInput, "data source base URL not configured")
	}

	var resp WinnerResponse
	key := fmt.Sprintf("winner:%d", listingID)
	url := fmt.Sprintf("%s%s?listing=%d", c.baseURL, WinnerPath, listingID)
	err := c.Cached(ctx, key, refresh, &resp, func() error {
		resp = WinnerResponse{}
		return c.Get(ctx, url, &resp)
	})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return Draw{}, serrors.Wrap(serrors.ErrCodeListingNotFound, err, "listing %d not found", listingID)
		}
		return Draw{}, serrors.Wrap(serrors.ErrCodeUpstream, err, "fetch listing %d", listingID)
	}
	return resp.ToDraw(listingID), nil
}
