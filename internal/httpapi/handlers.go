package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/catnav/internal/domain"
	"storefront/catnav/internal/selection"
	"storefront/catnav/internal/service"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// NavigationService is what the HTTP layer needs from service.Service.
type NavigationService interface {
	Menu(ctx context.Context, root domain.MenuRoot, direction domain.Direction, perms service.Permissions) (*service.MenuResult, error)
	Children(ctx context.Context, root domain.MenuRoot, id domain.CategoryID, perms service.Permissions) (*service.ChildrenResult, error)
	Breadcrumb(ctx context.Context, root domain.MenuRoot, composite string, perms service.Permissions) ([]domain.MenuEntry, error)
	CreateSession(ctx context.Context, root domain.MenuRoot, direction domain.Direction, perms service.Permissions) (*service.SessionView, error)
	Session(id string) (*service.SessionView, error)
	Dispatch(ctx context.Context, id string, ev service.Event) (*service.SessionView, error)
	CloseSession(id string) error
}

type handler struct {
	svc NavigationService
}

type createSessionRequest struct {
	Root      domain.MenuRoot `json:"root"`
	Locale    string          `json:"locale"`
	Direction string          `json:"direction"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) menu(w http.ResponseWriter, r *http.Request) {
	root, ok := rootParam(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Menu(r.Context(), root, DirectionFromRequest(r), permissionsFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) children(w http.ResponseWriter, r *http.Request) {
	root, ok := rootParam(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "category id must be a positive integer")
		return
	}

	res, err := h.svc.Children(r.Context(), root, domain.CategoryID(id), permissionsFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) breadcrumb(w http.ResponseWriter, r *http.Request) {
	root, ok := rootParam(w, r)
	if !ok {
		return
	}

	ids := r.URL.Query().Get("ids")
	entries, err := h.svc.Breadcrumb(r.Context(), root, ids, permissionsFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"root":    root,
		"ids":     ids,
		"entries": entries,
	})
}

func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Root == "" {
		req.Root = domain.MenuRootPrimary
	}
	root, ok := domain.ParseMenuRoot(req.Root.String())
	if !ok {
		writeMessage(w, http.StatusNotFound, "unknown menu root")
		return
	}

	direction := DirectionFromRequest(r)
	switch {
	case req.Direction != "":
		direction = domain.ParseDirection(strings.ToLower(req.Direction))
	case req.Locale != "":
		direction = DirectionOfLocale(req.Locale)
	}

	view, err := h.svc.CreateSession(r.Context(), root, direction, permissionsFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CloseSession(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) dispatch(w http.ResponseWriter, r *http.Request) {
	var ev service.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid event body")
		return
	}

	view, err := h.svc.Dispatch(r.Context(), chi.URLParam(r, "id"), ev)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func rootParam(w http.ResponseWriter, r *http.Request) (domain.MenuRoot, bool) {
	root, ok := domain.ParseMenuRoot(chi.URLParam(r, "root"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "unknown menu root")
	}
	return root, ok
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownRoot),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidEvent),
		errors.Is(err, service.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, selection.ErrPanelClosed):
		return http.StatusConflict
	case errors.Is(err, selection.ErrIndexOutOfRange):
		return http.StatusUnprocessableEntity
	default:
		// Everything else comes from the catalog or the tree decoder
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	if code == http.StatusBadGateway {
		log.Errorf("❌ %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeMessage(w, code, err.Error())
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("⚠️ Failed to write response: %v", err)
	}
}
