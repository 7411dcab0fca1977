package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes draw, pipeline and HTTP events to a logger at debug level,
// except for draw lifecycle events which are logged at info.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks logging to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger}
}

// Register installs h for every hook category it implements.
func (h *LogHooks) Register() {
	SetDrawHooks(h)
	SetPipelineHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnDrawStart(_ context.Context, drawID string, participants int) {
	h.Logger.Info("draw started", "id", drawID, "participants", participants)
}

func (h *LogHooks) OnEliminated(_ context.Context, drawID, participantID string) {
	h.Logger.Debug("participant eliminated", "id", drawID, "participant", participantID)
}

func (h *LogHooks) OnWinner(_ context.Context, drawID, participantID string, elapsed time.Duration) {
	h.Logger.Info("winner chosen", "id", drawID, "winner", participantID, "elapsed", elapsed)
}

func (h *LogHooks) OnDrawClosed(_ context.Context, drawID, outcome string, elapsed time.Duration) {
	h.Logger.Info("draw closed", "id", drawID, "outcome", outcome, "elapsed", elapsed)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, count int) {
	h.Logger.Debug("layout started", "count", count)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, count, rings int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("layout failed", "count", count, "err", err)
		return
	}
	h.Logger.Debug("layout complete", "count", count, "rings", rings, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.Logger.Debug("render started", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("render failed", "formats", formats, "err", err)
		return
	}
	h.Logger.Debug("render complete", "formats", formats, "duration", d)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.Logger.Debug("request", "method", method, "path", path, "status", status, "duration", d)
}

var (
	_ DrawHooks     = (*LogHooks)(nil)
	_ PipelineHooks = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
