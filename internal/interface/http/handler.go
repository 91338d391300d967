package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/domain/booking"
	"github.com/yanqian/appliance-assistant/internal/domain/flow"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

const partImagesRoute = "/api/v1/parts/images/"

var errBookingNotFound = apperrors.Wrap(apperrors.CodeNotFound, "booking not found", nil)

// PartsCatalog lists catalog parts and resolves their image files.
type PartsCatalog interface {
	appliance.PartsCatalog
	ImageFile(rel string) (string, error)
}

// CacheClearer is a repository with a read cache.
type CacheClearer interface {
	ClearCache()
}

// CacheClearers are the caches flushed by the admin endpoint.
type CacheClearers []CacheClearer

// UploadLimit caps the nameplate upload size in bytes.
type UploadLimit int64

// Handler wires the HTTP transport to the conversation engine.
type Handler struct {
	engine      *flow.Engine
	sessions    flow.SessionStore
	tokens      *SessionTokens
	technicians appliance.TechnicianRepository
	catalog     PartsCatalog
	bookings    *booking.Service
	caches      CacheClearers
	maxUpload   int64
	locks       sessionLocks
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(engine *flow.Engine, sessions flow.SessionStore, tokens *SessionTokens, technicians appliance.TechnicianRepository, catalog PartsCatalog, bookings *booking.Service, caches CacheClearers, maxUpload UploadLimit, logger *slog.Logger) *Handler {
	return &Handler{
		engine:      engine,
		sessions:    sessions,
		tokens:      tokens,
		technicians: technicians,
		catalog:     catalog,
		bookings:    bookings,
		caches:      caches,
		maxUpload:   int64(maxUpload),
		logger:      logger.With("component", "http.handler"),
	}
}

// SessionResponse is returned when a conversation starts.
type SessionResponse struct {
	Session string    `json:"session"`
	Token   string    `json:"token"`
	View    flow.View `json:"view"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateSession starts a conversation and issues its token.
func (h *Handler) CreateSession(c *gin.Context) {
	s := h.engine.NewSession()
	if err := h.sessions.Save(c.Request.Context(), s); err != nil {
		abortWithAppError(c, err)
		return
	}
	token, err := h.tokens.Issue(s.ID)
	if err != nil {
		abortWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SessionResponse{Session: s.ID, Token: token, View: h.render(s)})
}

// GetSession renders the current page.
func (h *Handler) GetSession(c *gin.Context) {
	s, ok := h.loadSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.render(s))
}

// ApplyEvent applies one user interaction. A rejected event leaves the
// stored session unchanged.
func (h *Handler) ApplyEvent(c *gin.Context) {
	var action flow.Action
	if err := c.ShouldBindJSON(&action); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}
	h.updateSession(c, func(ctx context.Context, s *flow.Session) error {
		return h.engine.Apply(ctx, s, action)
	})
}

// UploadNameplate reads a nameplate photo sent as the "image" form file.
func (h *Handler) UploadNameplate(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "image is required", err))
		return
	}
	if h.maxUpload > 0 && fileHeader.Size > h.maxUpload {
		abortWithError(c, NewHTTPError(http.StatusRequestEntityTooLarge, "invalid_input", "image exceeds the upload limit", nil))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read upload", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "upload_failed", "failed to read file", err))
		return
	}

	h.updateSession(c, func(ctx context.Context, s *flow.Session) error {
		return h.engine.UploadNameplate(ctx, s, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	})
}

// SessionImage serves an archived upload referenced by the chat.
func (h *Handler) SessionImage(c *gin.Context) {
	s, ok := h.loadSession(c)
	if !ok {
		return
	}
	img, err := h.engine.Image(c.Request.Context(), s, c.Param("hash"))
	if err != nil {
		abortWithAppError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

// ResetSession starts over while keeping the session ID.
func (h *Handler) ResetSession(c *gin.Context) {
	h.updateSession(c, func(_ context.Context, s *flow.Session) error {
		h.engine.Reset(s)
		return nil
	})
}

// Technicians lists the roster, optionally filtered by appliance type.
func (h *Handler) Technicians(c *gin.Context) {
	ctx := c.Request.Context()
	applianceType := strings.TrimSpace(c.Query("applianceType"))
	var (
		techs []appliance.Technician
		err   error
	)
	if applianceType == "" {
		techs, err = h.technicians.All(ctx)
	} else {
		techs, err = h.technicians.AvailableFor(ctx, applianceType)
	}
	if err != nil {
		abortWithAppError(c, err)
		return
	}
	if techs == nil {
		techs = []appliance.Technician{}
	}
	c.JSON(http.StatusOK, gin.H{"technicians": techs})
}

// Parts lists the catalog parts for an issue.
func (h *Handler) Parts(c *gin.Context) {
	issue := strings.TrimSpace(c.Query("issue"))
	if issue == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "issue is required", nil))
		return
	}
	parts, err := h.catalog.PartsForIssue(issue)
	if err != nil {
		abortWithAppError(c, err)
		return
	}
	out := make([]PartResponse, 0, len(parts))
	for _, p := range parts {
		out = append(out, PartResponse{CatalogPart: p, ImageURL: partImageURL(p.ImagePath)})
	}
	c.JSON(http.StatusOK, gin.H{
		"issue":   issue,
		"special": h.catalog.IsSpecialIssue(issue),
		"parts":   out,
	})
}

// PartResponse is a catalog part with the URL serving its image.
type PartResponse struct {
	appliance.CatalogPart
	ImageURL string `json:"image_url"`
}

func partImageURL(imagePath string) string {
	segments := strings.Split(imagePath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return partImagesRoute + strings.Join(segments, "/")
}

// PartImage serves a catalog image.
func (h *Handler) PartImage(c *gin.Context) {
	full, err := h.catalog.ImageFile(c.Param("path"))
	if err != nil {
		abortWithAppError(c, err)
		return
	}
	c.File(full)
}

// Booking returns a booking placed from the caller's session.
func (h *Handler) Booking(c *gin.Context) {
	s, ok := h.loadSession(c)
	if !ok {
		return
	}
	if !s.OwnsBooking(c.Param("id")) {
		abortWithAppError(c, errBookingNotFound)
		return
	}
	record, err := h.bookings.Lookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ClearCache drops the repository read caches.
func (h *Handler) ClearCache(c *gin.Context) {
	for _, cache := range h.caches {
		cache.ClearCache()
	}
	h.logger.Info("repository caches cleared", "count", len(h.caches))
	c.JSON(http.StatusOK, gin.H{"cleared": len(h.caches)})
}

func (h *Handler) loadSession(c *gin.Context) (*flow.Session, bool) {
	id, ok := getSessionID(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing session token", nil))
		return nil, false
	}
	s, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		abortWithAppError(c, err)
		return nil, false
	}
	return s, true
}

// updateSession runs the load, apply and save cycle for the authenticated
// session while holding its lock. Nothing is saved when apply fails.
func (h *Handler) updateSession(c *gin.Context, apply func(context.Context, *flow.Session) error) {
	id, ok := getSessionID(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing session token", nil))
		return
	}
	unlock := h.locks.lock(id)
	defer unlock()

	s, ok := h.loadSession(c)
	if !ok {
		return
	}
	if err := apply(c.Request.Context(), s); err != nil {
		abortWithAppError(c, err)
		return
	}
	h.saveAndRender(c, s)
}

func (h *Handler) saveAndRender(c *gin.Context, s *flow.Session) {
	if err := h.sessions.Save(c.Request.Context(), s); err != nil {
		abortWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.render(s))
}

func (h *Handler) render(s *flow.Session) flow.View {
	return flow.Render(s, !h.engine.AgentsAvailable())
}
