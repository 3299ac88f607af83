package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yonima/shell/internal/auth"
	"github.com/yonima/shell/internal/shell"
)

// sessionShell is the subset of *shell.Shell the handler needs.
type sessionShell interface {
	Launch(ctx context.Context, deviceID string) (*shell.Session, error)
	Session(id string) (*shell.Session, error)
	Close(id string) error
	ResetOnboarding(ctx context.Context, deviceID string)
}

type SessionHandler struct {
	shell  sessionShell
	logger *slog.Logger
}

func NewSessionHandler(sh sessionShell, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{shell: sh, logger: logger.With("component", "session_handler")}
}

type deviceURI struct {
	Device string `uri:"device" binding:"required,max=64,printascii"`
}

type cellURI struct {
	Index int `uri:"index" binding:"min=0"`
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

type codeRequest struct {
	Code string `json:"code" binding:"required"`
}

type cellRequest struct {
	Text string `json:"text"`
}

// POST /devices/:device/launch
func (h *SessionHandler) Launch(c *gin.Context) {
	var uri deviceURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.shell.Launch(c.Request.Context(), uri.Device)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, sess.View())
}

// POST /devices/:device/onboarding/reset
func (h *SessionHandler) ResetOnboarding(c *gin.Context) {
	var uri deviceURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.shell.ResetOnboarding(c.Request.Context(), uri.Device)
	c.Status(http.StatusNoContent)
}

// GET /sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// DELETE /sessions/:id
func (h *SessionHandler) Close(c *gin.Context) {
	if err := h.shell.Close(c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /sessions/:id/onboarding/next
func (h *SessionHandler) OnboardingNext(c *gin.Context) {
	h.do(c, func(s *shell.Session) error { return s.OnboardingNext(c.Request.Context()) })
}

// POST /sessions/:id/onboarding/back
func (h *SessionHandler) OnboardingBack(c *gin.Context) {
	h.do(c, func(s *shell.Session) error { return s.OnboardingBack() })
}

// POST /sessions/:id/onboarding/skip
func (h *SessionHandler) OnboardingSkip(c *gin.Context) {
	h.do(c, func(s *shell.Session) error { return s.OnboardingSkip(c.Request.Context()) })
}

// POST /sessions/:id/auth/phone
func (h *SessionHandler) SubmitPhone(c *gin.Context) {
	var req phoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.start(c, func(f *auth.Flow) (*auth.Task, error) { return f.SubmitPhoneNumber(req.Phone) })
}

// PUT /sessions/:id/auth/phone
// Mirrors typing in the phone field.
func (h *SessionHandler) TypePhone(c *gin.Context) {
	var req cellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.start(c, func(f *auth.Flow) (*auth.Task, error) {
		f.SetPhoneNumber(req.Text)
		return nil, nil
	})
}

// POST /sessions/:id/auth/code
func (h *SessionHandler) SubmitCode(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.start(c, func(f *auth.Flow) (*auth.Task, error) { return f.SubmitCode(req.Code) })
}

// POST /sessions/:id/auth/cells/:index
func (h *SessionHandler) EnterDigit(c *gin.Context) {
	var uri cellURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var req cellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.start(c, func(f *auth.Flow) (*auth.Task, error) { return f.EnterDigit(uri.Index, req.Text) })
}

// POST /sessions/:id/auth/cells/:index/backspace
func (h *SessionHandler) Backspace(c *gin.Context) {
	var uri cellURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.start(c, func(f *auth.Flow) (*auth.Task, error) { return nil, f.Backspace(uri.Index) })
}

// POST /sessions/:id/auth/back
func (h *SessionHandler) GoBack(c *gin.Context) {
	h.start(c, func(f *auth.Flow) (*auth.Task, error) {
		f.GoBack()
		return nil, nil
	})
}

// POST /sessions/:id/auth/resend
func (h *SessionHandler) Resend(c *gin.Context) {
	h.start(c, func(f *auth.Flow) (*auth.Task, error) { return f.Resend() })
}

func (h *SessionHandler) session(c *gin.Context) (*shell.Session, bool) {
	sess, err := h.shell.Session(c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return nil, false
	}
	return sess, true
}

func (h *SessionHandler) do(c *gin.Context, action func(*shell.Session) error) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := action(sess); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// start runs a sign-in action. When it starts a send or verify call the
// response is 202 with the submitting state, unless ?wait=true asks to
// block until the call has finished.
func (h *SessionHandler) start(c *gin.Context, action func(*auth.Flow) (*auth.Task, error)) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	flow, err := sess.Auth()
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	task, err := action(flow)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if task == nil {
		c.JSON(http.StatusOK, sess.View())
		return
	}

	if c.Query("wait") != "true" {
		c.JSON(http.StatusAccepted, sess.View())
		return
	}
	select {
	case <-task.Done():
	case <-c.Request.Context().Done():
		c.Status(http.StatusRequestTimeout)
		return
	}
	if err := task.Err(); err != nil {
		h.logger.InfoContext(c.Request.Context(), "sign-in call finished with error", "error", err)
	}
	c.JSON(http.StatusOK, sess.View())
}
