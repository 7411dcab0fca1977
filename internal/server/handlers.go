package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/spotlight/pkg/buildinfo"
	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/pipeline"
	"github.com/matzehuels/spotlight/pkg/render/stage/sink"
	"github.com/matzehuels/spotlight/pkg/render/stage/styles"
	"github.com/matzehuels/spotlight/pkg/sound"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
}

const defaultListLimit = 50

type createDrawRequest struct {
	Participants []draw.Participant `json:"participants"`
	Width        float64            `json:"width"`
	Height       float64            `json:"height"`
	Seed         *uint64            `json:"seed,omitempty"`
	Listing      int                `json:"listing,omitempty"`
	Winner       string             `json:"winner,omitempty"`
	TimeScale    float64            `json:"time_scale,omitempty"`
}

type createDrawResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count, err := intParam(q.Get("count"), 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	width, err := floatParam(q.Get("width"), pipeline.DefaultWidth)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	height, err := floatParam(q.Get("height"), pipeline.DefaultHeight)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}

	res, err := s.opts.Runner.Execute(r.Context(), pipeline.Options{
		Count:    count,
		Width:    width,
		Height:   height,
		Geometry: s.opts.Geometry,
		Formats:  []string{format},
		Style:    q.Get("style"),
		Rings:    q.Get("rings") == "true",
		Chain:    q.Get("chain") == "true",
		Logger:   s.logger,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBytes(w, contentTypes[format], res.Artifacts[format])
}

func (s *Server) handleCreateDraw(w http.ResponseWriter, r *http.Request) {
	var req createDrawRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	participants, winner := req.Participants, req.Winner
	if req.Listing != 0 {
		if err := errors.ValidateListingID(req.Listing); err != nil {
			s.writeError(w, r, err)
			return
		}
		if s.opts.Listings == nil {
			s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no data source configured"))
			return
		}
		ld, err := s.opts.Listings.Winner(r.Context(), req.Listing, false)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if len(participants) == 0 {
			participants = ld.Participants
		}
		if winner == "" {
			winner = ld.WinnerID
		}
	}

	layout, err := s.opts.Runner.Layout(r.Context(), pipeline.Options{
		Participants: participants,
		Width:        req.Width,
		Height:       req.Height,
		Geometry:     s.opts.Geometry,
		Logger:       s.logger,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	seed := newSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	scale := s.opts.TimeScale
	if req.TimeScale > 0 {
		scale = req.TimeScale
	}

	id, err := s.registry.Start(DrawParams{
		Participants: participants,
		Layout:       layout,
		ListingID:    req.Listing,
		Winner:       winner,
		Seed:         seed,
		Timings:      s.opts.Timings,
		TimeScale:    scale,
		Sound:        s.opts.Sound,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/draws/"+id)
	writeJSON(w, http.StatusCreated, createDrawResponse{ID: id})
}

func (s *Server) handleListDraws(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"), defaultListLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views, err := s.registry.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetDraw(w http.ResponseWriter, r *http.Request) {
	view, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleStopDraw(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Stop(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Dismiss(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	view, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	style, err := styles.ByName(r.URL.Query().Get("style"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	svg := sink.RenderSVG(view.Layout,
		sink.WithParticipants(view.Participants),
		sink.WithState(view.State),
		sink.WithStatus(),
		sink.WithStyle(style),
	)
	writeBytes(w, contentTypes[pipeline.FormatSVG], svg)
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(chi.URLParam(r, "id"), 0)
	if err == nil {
		err = errors.ValidateListingID(id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.opts.Listings == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no data source configured"))
		return
	}
	ld, err := s.opts.Listings.Winner(r.Context(), id, r.URL.Query().Get("refresh") == "true")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ld)
}

func (s *Server) handleSound(w http.ResponseWriter, r *http.Request) {
	cue := sound.Cue(chi.URLParam(r, "cue"))
	if !cue.Valid() {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "unknown cue %q", cue))
		return
	}
	seed, err := intParam(r.URL.Query().Get("seed"), 1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := sound.RenderWAV(cue, uint64(seed))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	writeBytes(w, "audio/wav", data)
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid integer %q", v)
	}
	return n, nil
}

func floatParam(v string, def float64) (float64, error) {
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid number %q", v)
	}
	return f, nil
}
