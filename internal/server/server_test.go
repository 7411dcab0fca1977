package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/spotlight/pkg/campaign"
	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/integrations/listings"
	"github.com/matzehuels/spotlight/pkg/ring"
	"github.com/matzehuels/spotlight/pkg/storage"
)

const fastScale = 0.01

type fakeListings struct {
	draw listings.Draw
	err  error
}

func (f fakeListings) Winner(context.Context, int, bool) (listings.Draw, error) {
	return f.draw, f.err
}

func newTestServer(t *testing.T, opts Options) (*Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	opts.Store = store
	if opts.TimeScale == 0 {
		opts.TimeScale = fastScale
	}
	s := New(opts)
	t.Cleanup(s.Close)
	return s, store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func trio() []draw.Participant {
	return []draw.Participant{{ID: "a", Name: "Ada"}, {ID: "b", Name: "Bob"}, {ID: "c", Name: "Cy"}}
}

func createDraw(t *testing.T, h http.Handler, req createDrawRequest) string {
	t.Helper()
	res := do(t, h, http.MethodPost, "/api/v1/draws", req)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var out createDrawResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	require.True(t, storage.ValidID(out.ID))
	assert.Equal(t, "/api/v1/draws/"+out.ID, res.Header().Get("Location"))
	return out.ID
}

func getView(t *testing.T, h http.Handler, id string) View {
	t.Helper()
	res := do(t, h, http.MethodGet, "/api/v1/draws/"+id, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var v View
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &v))
	return v
}

func decodeError(t *testing.T, res *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	res := do(t, s.Handler(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"status":"ok"`)
}

func TestLayout(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	h := s.Handler()

	tests := []struct {
		query       string
		status      int
		contentType string
		contains    string
	}{
		{"count=12&width=800&height=600", http.StatusOK, "application/json", `"cards"`},
		{"count=12&format=svg", http.StatusOK, "image/svg+xml", "<svg"},
		{"count=4&format=dot", http.StatusOK, "text/vnd.graphviz", "graph G"},
		{"count=4&format=gif", http.StatusBadRequest, "application/json", string(errors.ErrCodeInvalidFormat)},
		{"count=-1", http.StatusBadRequest, "application/json", string(errors.ErrCodeInvalidInput)},
		{"count=abc", http.StatusBadRequest, "application/json", string(errors.ErrCodeInvalidInput)},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res := do(t, h, http.MethodGet, "/api/v1/layout?"+tt.query, nil)
			assert.Equal(t, tt.status, res.Code)
			assert.Equal(t, tt.contentType, res.Header().Get("Content-Type"))
			assert.Contains(t, res.Body.String(), tt.contains)
		})
	}
}

func TestDrawLifecycle(t *testing.T) {
	s, store := newTestServer(t, Options{})
	h := s.Handler()

	id := createDraw(t, h, createDrawRequest{Participants: trio(), Winner: "b"})

	res := do(t, h, http.MethodPost, "/api/v1/draws/"+id+"/dismiss", nil)
	if res.Code != http.StatusNoContent {
		assert.Equal(t, http.StatusConflict, res.Code)
		assert.Equal(t, errors.ErrCodeInvalidState, decodeError(t, res).Code)
	}

	require.Eventually(t, func() bool {
		return getView(t, h, id).State.Announced
	}, 5*time.Second, 10*time.Millisecond)

	v := getView(t, h, id)
	assert.True(t, v.Live)
	assert.Equal(t, "b", v.State.WinnerID)
	assert.ElementsMatch(t, []string{"a", "c"}, v.State.Eliminated)
	require.NotNil(t, v.State.Anchor)
	assert.Len(t, v.Layout.Positions, 3)

	res = do(t, h, http.MethodPost, "/api/v1/draws/"+id+"/dismiss", nil)
	require.Equal(t, http.StatusNoContent, res.Code)

	v = getView(t, h, id)
	assert.False(t, v.Live)
	assert.True(t, v.State.Closed)
	assert.Equal(t, storage.OutcomeWinner, v.Outcome)

	require.Eventually(t, func() bool {
		rec, err := store.Get(context.Background(), id)
		return err == nil && rec.Outcome == storage.OutcomeWinner && rec.WinnerID == "b"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestDrawWinnerHiddenUntilReveal(t *testing.T) {
	s, _ := newTestServer(t, Options{TimeScale: 1})
	h := s.Handler()

	id := createDraw(t, h, createDrawRequest{Participants: trio(), Winner: "a"})
	v := getView(t, h, id)
	assert.Equal(t, draw.PhaseAnnouncing, v.State.Phase)
	assert.Empty(t, v.State.WinnerID)
	assert.Nil(t, v.State.Anchor)
}

func TestStopDraw(t *testing.T) {
	s, store := newTestServer(t, Options{TimeScale: 1})
	h := s.Handler()

	id := createDraw(t, h, createDrawRequest{Participants: trio()})
	res := do(t, h, http.MethodDelete, "/api/v1/draws/"+id, nil)
	require.Equal(t, http.StatusNoContent, res.Code)

	v := getView(t, h, id)
	assert.True(t, v.State.Stopped)
	assert.Equal(t, storage.OutcomeAborted, v.Outcome)

	res = do(t, h, http.MethodDelete, "/api/v1/draws/"+id, nil)
	assert.Equal(t, http.StatusNoContent, res.Code)

	require.Eventually(t, func() bool {
		rec, err := store.Get(context.Background(), id)
		return err == nil && rec.Outcome == storage.OutcomeAborted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRegistryForgetsDrawThatFailsToStart(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	reg := s.Registry()
	reg.Close()

	l := ring.ComputeWithOptions(3, 800, 600, ring.DefaultOptions())
	_, err := reg.Start(DrawParams{Participants: trio(), Layout: l, Seed: 1, TimeScale: fastScale})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInternal, errors.GetCode(err))
	assert.Zero(t, reg.Len())
}

func TestNotEnoughParticipants(t *testing.T) {
	s, store := newTestServer(t, Options{})
	h := s.Handler()

	id := createDraw(t, h, createDrawRequest{})
	require.Eventually(t, func() bool {
		rec, err := store.Get(context.Background(), id)
		return err == nil && rec.Outcome == storage.OutcomeInsufficient
	}, 5*time.Second, 10*time.Millisecond)

	v := getView(t, h, id)
	assert.Equal(t, draw.PhaseNotEnoughParticipants, v.State.Phase)
	assert.Equal(t, draw.StatusNotEnough, v.State.Status)
}

func TestFinishedDrawReadFromStore(t *testing.T) {
	s, _ := newTestServer(t, Options{Retain: time.Millisecond})
	h := s.Handler()

	id := createDraw(t, h, createDrawRequest{})
	require.Eventually(t, func() bool {
		return s.Registry().Len() == 0
	}, 5*time.Second, 10*time.Millisecond)

	v := getView(t, h, id)
	assert.False(t, v.Live)
	assert.Equal(t, storage.OutcomeInsufficient, v.Outcome)

	res := do(t, h, http.MethodGet, "/api/v1/draws", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), id)
}

func TestCreateDrawInvalid(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	h := s.Handler()

	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"malformed", `{"participants":`, errors.ErrCodeInvalidInput},
		{"unknown field", `{"people":[]}`, errors.ErrCodeInvalidInput},
		{"duplicate ids", `{"participants":[{"id":"a"},{"id":"a"}]}`, errors.ErrCodeInvalidInput},
		{"unknown winner", `{"participants":[{"id":"a"}],"winner":"z"}`, errors.ErrCodeInvalidInput},
		{"bad viewport", `{"width":-5}`, errors.ErrCodeInvalidViewport},
		{"listing without source", `{"listing":7}`, errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/draws", strings.NewReader(tt.body))
			res := httptest.NewRecorder()
			h.ServeHTTP(res, req)
			assert.Equal(t, statusFor(errors.New(tt.code, "")), res.Code)
			assert.Equal(t, tt.code, decodeError(t, res).Code)
		})
	}
}

func TestUnknownDraw(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	h := s.Handler()

	for _, path := range []string{"/api/v1/draws/nope", "/api/v1/draws/" + storage.NewID()} {
		res := do(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, res.Code)
		assert.Equal(t, errors.ErrCodeDrawNotFound, decodeError(t, res).Code)
	}
	res := do(t, h, http.MethodPost, "/api/v1/draws/nope/dismiss", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestFrame(t *testing.T) {
	s, _ := newTestServer(t, Options{TimeScale: 1})
	h := s.Handler()

	id := createDraw(t, h, createDrawRequest{Participants: trio()})
	res := do(t, h, http.MethodGet, "/api/v1/draws/"+id+"/frame.svg?style=light", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "image/svg+xml", res.Header().Get("Content-Type"))
	assert.Contains(t, res.Body.String(), `id="card-b"`)
	assert.Contains(t, res.Body.String(), draw.StatusSelecting)

	res = do(t, h, http.MethodGet, "/api/v1/draws/"+id+"/frame.svg?style=neon", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestDrawFromListing(t *testing.T) {
	src := fakeListings{draw: listings.Draw{
		ListingID:    7,
		Progress:     campaign.NewProgress(100),
		Participants: trio(),
		WinnerID:     "c",
	}}
	s, _ := newTestServer(t, Options{Listings: src})
	h := s.Handler()

	id := createDraw(t, h, createDrawRequest{Listing: 7})
	require.Eventually(t, func() bool {
		return getView(t, h, id).State.Announced
	}, 5*time.Second, 10*time.Millisecond)

	v := getView(t, h, id)
	assert.Equal(t, 7, v.ListingID)
	assert.Equal(t, "c", v.State.WinnerID)
}

func TestListing(t *testing.T) {
	ok := fakeListings{draw: listings.Draw{ListingID: 3, Progress: campaign.NewProgress(42.5), Participants: trio()}}
	failing := fakeListings{err: errors.Wrap(errors.ErrCodeUpstream, context.DeadlineExceeded, "fetch listing 3")}
	missing := fakeListings{err: errors.New(errors.ErrCodeListingNotFound, "listing 3 not found")}

	tests := []struct {
		name   string
		src    ListingSource
		path   string
		status int
	}{
		{"ok", ok, "/api/v1/listings/3", http.StatusOK},
		{"upstream", failing, "/api/v1/listings/3", http.StatusBadGateway},
		{"missing", missing, "/api/v1/listings/3", http.StatusNotFound},
		{"bad id", ok, "/api/v1/listings/0", http.StatusBadRequest},
		{"not numeric", ok, "/api/v1/listings/x", http.StatusBadRequest},
		{"no source", nil, "/api/v1/listings/3", http.StatusNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, Options{Listings: tt.src})
			res := do(t, s.Handler(), http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.status, res.Code, res.Body.String())
		})
	}

	s, _ := newTestServer(t, Options{Listings: ok})
	res := do(t, s.Handler(), http.MethodGet, "/api/v1/listings/3", nil)
	var got listings.Draw
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))
	assert.Equal(t, campaign.Progress(42.5), got.Progress)
	assert.Len(t, got.Participants, 3)
}

func TestSound(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	h := s.Handler()

	res := do(t, h, http.MethodGet, "/api/v1/sounds/win.wav", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "audio/wav", res.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(res.Body.Bytes(), []byte("RIFF")))

	res = do(t, h, http.MethodGet, "/api/v1/sounds/fanfare.wav", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestEventsStream(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	id := createDraw(t, s.Handler(), createDrawRequest{Participants: trio(), Winner: "a"})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/draws/" + id + "/events"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	var kinds []draw.EventKind
	for {
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, data, err := ws.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "err = %v", err)
			break
		}
		var e struct {
			Kind          draw.EventKind `json:"kind"`
			ParticipantID string         `json:"participant_id"`
		}
		require.NoError(t, json.Unmarshal(data, &e))
		kinds = append(kinds, e.Kind)
		if e.Kind == draw.EventWinnerChosen {
			assert.Equal(t, "a", e.ParticipantID)
		}
		if e.Kind == draw.EventAnnouncementReady {
			res := do(t, s.Handler(), http.MethodPost, "/api/v1/draws/"+id+"/dismiss", nil)
			require.Equal(t, http.StatusNoContent, res.Code)
		}
	}

	require.NotEmpty(t, kinds)
	assert.Equal(t, draw.EventStatusTextChanged, kinds[0])
	assert.Contains(t, kinds, draw.EventSpotlightMoved)
	assert.Contains(t, kinds, draw.EventWinnerChosen)
	assert.Equal(t, draw.EventClosed, kinds[len(kinds)-1])
}

func TestEventsOrigin(t *testing.T) {
	s, _ := newTestServer(t, Options{TimeScale: 1, AllowedOrigins: []string{"https://stage.example"}})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	id := createDraw(t, s.Handler(), createDrawRequest{Participants: trio()})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/draws/" + id + "/events"

	_, res, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	ws, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://stage.example"}})
	require.NoError(t, err)
	ws.Close()
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidViewport, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeDrawNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeInvalidState, "x"), http.StatusConflict},
		{errors.New(errors.ErrCodeUpstream, "x"), http.StatusBadGateway},
		{errors.New(errors.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{&errors.RateLimitedError{}, http.StatusTooManyRequests},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}
