package server

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spotlight/pkg/clock"
	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/ring"
	"github.com/matzehuels/spotlight/pkg/sound"
	"github.com/matzehuels/spotlight/pkg/storage"
)

const (
	subscriberBuffer = 64
	saveTimeout      = 10 * time.Second
)

// DrawParams describes a draw to start.
type DrawParams struct {
	Participants []draw.Participant
	Layout       ring.Layout
	ListingID    int
	Winner       string
	Seed         uint64
	Timings      draw.Timings
	TimeScale    float64
	Sound        sound.Player
}

// View is the externally visible state of a draw.
type View struct {
	ID           string             `json:"id"`
	ListingID    int                `json:"listing_id,omitempty"`
	Participants []draw.Participant `json:"participants"`
	Layout       ring.Layout        `json:"layout"`
	State        draw.State         `json:"state"`
	Outcome      storage.Outcome    `json:"outcome,omitempty"`
	Live         bool               `json:"live"`
}

// Registry tracks live draws by id. Finished draws stay readable for the
// retention period and are persisted to the store.
type Registry struct {
	mu     sync.RWMutex
	draws  map[string]*liveDraw
	store  storage.Store
	logger *log.Logger
	retain time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	saves  sync.WaitGroup
}

// NewRegistry creates a Registry persisting to store.
func NewRegistry(store storage.Store, logger *log.Logger, retain time.Duration) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		draws:  make(map[string]*liveDraw),
		store:  store,
		logger: logger,
		retain: retain,
		ctx:    ctx,
		cancel: cancel,
	}
}

type liveDraw struct {
	id     string
	loop   *clock.Loop
	seq    *draw.Sequencer
	layout ring.Layout
	record storage.DrawRecord

	mu      sync.Mutex
	history []draw.Event
	subs    map[chan draw.Event]struct{}
	final   *draw.State
	outcome storage.Outcome
}

// Start creates a draw and begins its ceremony.
func (r *Registry) Start(params DrawParams) (string, error) {
	id := storage.NewID()
	d := &liveDraw{
		id:     id,
		loop:   clock.NewLoop(),
		layout: params.Layout,
		subs:   make(map[chan draw.Event]struct{}),
		record: storage.DrawRecord{
			ID:           id,
			ListingID:    params.ListingID,
			Participants: params.Participants,
			Seed:         storage.Seed(params.Seed),
			Width:        params.Layout.Width,
			Height:       params.Layout.Height,
			StartedAt:    time.Now().UTC(),
		},
	}

	opts := []draw.Option{
		draw.WithID(id),
		draw.WithContext(r.ctx),
		draw.WithSeed(params.Seed),
		draw.WithTimings(params.Timings),
		draw.WithTimeScale(params.TimeScale),
		draw.WithCardSize(params.Layout.CardWidth, params.Layout.CardHeight),
		draw.WithSound(params.Sound),
		draw.WithSpotlightEvents(),
		draw.WithHandler(d.publish),
		draw.WithCloseFunc(func() { r.finish(d, d.seq.Snapshot()) }),
	}
	if params.Winner != "" {
		opts = append(opts, draw.WithWinner(params.Winner))
	}
	seq, err := draw.New(d.loop, params.Participants, params.Layout.Positions, opts...)
	if err != nil {
		return "", err
	}
	d.seq = seq

	go d.loop.Run(r.ctx)

	r.mu.Lock()
	r.draws[id] = d
	r.mu.Unlock()

	var startErr error
	if err := d.loop.Call(func() { startErr = seq.Start() }); err != nil {
		r.discard(d)
		return "", errors.Wrap(errors.ErrCodeInternal, err, "start draw")
	}
	if startErr != nil {
		r.discard(d)
		return "", startErr
	}
	r.logger.Info("draw started", "id", id, "participants", len(params.Participants))
	return id, nil
}

// discard forgets a draw that never started and shuts its loop down.
func (r *Registry) discard(d *liveDraw) {
	r.mu.Lock()
	delete(r.draws, d.id)
	r.mu.Unlock()
	d.loop.Close()
}

// Get returns the state of a draw, live or persisted.
func (r *Registry) Get(ctx context.Context, id string) (View, error) {
	if d, ok := r.lookup(id); ok {
		return d.view(), nil
	}
	rec, err := r.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	return recordView(rec), nil
}

// Dismiss closes a draw whose announcement is showing.
func (r *Registry) Dismiss(id string) error {
	d, ok := r.lookup(id)
	if !ok {
		return errors.New(errors.ErrCodeDrawNotFound, "no live draw %s", id)
	}
	var err error
	if callErr := d.loop.Call(func() { err = d.seq.Dismiss() }); callErr != nil {
		return errors.New(errors.ErrCodeInvalidState, "draw %s already closed", id)
	}
	return err
}

// Stop tears a draw down. Stopping a finished draw is a no-op.
func (r *Registry) Stop(id string) error {
	d, ok := r.lookup(id)
	if !ok {
		return errors.New(errors.ErrCodeDrawNotFound, "no live draw %s", id)
	}
	_ = d.loop.Call(func() {
		if d.finished() {
			return
		}
		d.seq.Stop()
		r.finishAs(d, d.seq.Snapshot(), storage.OutcomeAborted)
	})
	return nil
}

// Subscribe returns the events emitted so far and a channel receiving the
// following ones. The channel is closed when the draw ends or the
// subscriber falls behind.
func (r *Registry) Subscribe(id string) ([]draw.Event, <-chan draw.Event, func(), error) {
	d, ok := r.lookup(id)
	if !ok {
		return nil, nil, nil, errors.New(errors.ErrCodeDrawNotFound, "no live draw %s", id)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	history := append([]draw.Event(nil), d.history...)
	ch := make(chan draw.Event, subscriberBuffer)
	if d.final != nil {
		close(ch)
		return history, ch, func() {}, nil
	}
	d.subs[ch] = struct{}{}
	cancel := func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if _, ok := d.subs[ch]; ok {
			delete(d.subs, ch)
			close(ch)
		}
	}
	return history, ch, cancel, nil
}

// List returns live draws followed by persisted ones, up to limit.
func (r *Registry) List(ctx context.Context, limit int) ([]View, error) {
	r.mu.RLock()
	live := make([]*liveDraw, 0, len(r.draws))
	for _, d := range r.draws {
		live = append(live, d)
	}
	r.mu.RUnlock()

	seen := make(map[string]bool, len(live))
	views := make([]View, 0, len(live))
	for _, d := range live {
		seen[d.id] = true
		views = append(views, d.view())
	}

	recs, err := r.store.List(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list draws")
	}
	for _, rec := range recs {
		if !seen[rec.ID] {
			views = append(views, recordView(rec))
		}
	}
	if limit > 0 && len(views) > limit {
		views = views[:limit]
	}
	return views, nil
}

// Close aborts every live draw and waits for pending writes.
func (r *Registry) Close() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.draws))
	for id := range r.draws {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		_ = r.Stop(id)
	}
	r.cancel()
	r.saves.Wait()
}

// Len returns the number of draws held in memory.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.draws)
}

func (r *Registry) lookup(id string) (*liveDraw, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.draws[id]
	return d, ok
}

func (r *Registry) load(ctx context.Context, id string) (*storage.DrawRecord, error) {
	if !storage.ValidID(id) {
		return nil, errors.New(errors.ErrCodeDrawNotFound, "draw %q not found", id)
	}
	rec, err := r.store.Get(ctx, id)
	if stderrors.Is(err, storage.ErrNotFound) {
		return nil, errors.New(errors.ErrCodeDrawNotFound, "draw %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load draw %s", id)
	}
	return rec, nil
}

// finish runs on the draw's loop when the sequencer closes.
func (r *Registry) finish(d *liveDraw, st draw.State) {
	r.finishAs(d, st, storage.OutcomeOf(st))
}

// finishAs records the final state, releases subscribers, persists the
// record and, once it is stored, schedules the draw's removal from memory.
// It runs on the draw's loop.
func (r *Registry) finishAs(d *liveDraw, st draw.State, outcome storage.Outcome) {
	d.mu.Lock()
	d.final = &st
	d.outcome = outcome
	for ch := range d.subs {
		close(ch)
	}
	d.subs = nil
	d.mu.Unlock()

	rec := d.record
	rec.WinnerID = st.WinnerID
	rec.Eliminated = st.Eliminated
	rec.Outcome = outcome
	rec.ClosedAt = time.Now().UTC()

	r.saves.Add(1)
	go func() {
		defer r.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		defer time.AfterFunc(r.retain, func() { r.remove(d.id) })
		if err := r.store.Save(ctx, &rec); err != nil {
			r.logger.Error("persist draw", "id", rec.ID, "error", err)
			return
		}
		r.logger.Info("draw finished", "id", rec.ID, "outcome", outcome, "winner", rec.WinnerID)
	}()

	d.loop.Close()
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.draws, id)
	r.mu.Unlock()
}

// publish runs on the draw's loop for every sequencer event.
func (d *liveDraw) publish(e draw.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = append(d.history, e)
	for ch := range d.subs {
		select {
		case ch <- e:
		default:
			delete(d.subs, ch)
			close(ch)
		}
	}
}

func (d *liveDraw) view() View {
	st, live := d.snapshot()
	return View{
		ID:           d.id,
		ListingID:    d.record.ListingID,
		Participants: d.record.Participants,
		Layout:       d.layout,
		State:        st,
		Outcome:      d.finalOutcome(),
		Live:         live,
	}
}

// snapshot returns the current state and whether the draw is still live.
func (d *liveDraw) snapshot() (draw.State, bool) {
	if st, ok := d.finalState(); ok {
		return st, false
	}
	var st draw.State
	if err := d.loop.Call(func() { st = d.seq.Snapshot() }); err != nil {
		final, _ := d.finalState()
		return final, false
	}
	return st, true
}

func (d *liveDraw) finalState() (draw.State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.final == nil {
		return draw.State{}, false
	}
	return *d.final, true
}

func (d *liveDraw) finalOutcome() storage.Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outcome
}

func (d *liveDraw) finished() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.final != nil
}

func recordView(rec *storage.DrawRecord) View {
	return View{
		ID:           rec.ID,
		ListingID:    rec.ListingID,
		Participants: rec.Participants,
		Layout:       ring.ComputeWithOptions(len(rec.Participants), rec.Width, rec.Height, ring.DefaultOptions()),
		State:        rec.FinalState(),
		Outcome:      rec.Outcome,
	}
}

// newSeed draws a seed for draws that do not specify one.
func newSeed() uint64 { return rand.Uint64() }
