// Package integrations provides HTTP clients for the listing data source.
//
// # Overview
//
// The data source supplies the participant roster, the completion
// percentage and an optional designated winner for a listing. The
// [listings] subpackage implements that API on top of the shared [Client].
//
// # Shared Infrastructure
//
// [Client] handles:
//   - default headers (e.g. an Authorization token)
//   - response caching through any [cache.Cache] backend
//   - retry with exponential backoff for 5xx, 429 and connection failures
//
// Status mapping: 404 becomes [ErrNotFound]; 5xx and transport failures
// become retryable [ErrNetwork]; 429 becomes a retryable
// [errors.RateLimitedError] carrying the Retry-After hint.
//
// [listings]: github.com/matzehuels/spotlight/pkg/integrations/listings
// [cache.Cache]: github.com/matzehuels/spotlight/pkg/cache.Cache
package integrations
