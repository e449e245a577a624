// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"tenant_search/internal/app"
	"tenant_search/internal/domain"
)

type Handlers struct {
	Sessions    *Sessions
	SearchLog   domain.SearchLog // optional
	RatingsWait time.Duration
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// sessionView is a snapshot plus the events drained with it.
type sessionView struct {
	app.Snapshot
	Outcome app.Outcome `json:"outcome,omitempty"`
	Events  []Event     `json:"events"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/search", h.oneShotSearch)
	s.mux.Get("/v1/searches/recent", h.recentSearches)
	s.mux.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", h.openSession)
		r.Get("/{id}", h.getSession)
		r.Delete("/{id}", h.closeSession)
		r.Post("/{id}/search", h.search)
		r.Post("/{id}/back", h.back)
		r.Post("/{id}/listings/{listingID}/details", h.openDetails)
		r.Post("/{id}/listings/{listingID}/landlord-reviews", h.openLandlordReviews)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

func filterFromQuery(r *http.Request) domain.SearchFilter {
	q := r.URL.Query()
	return domain.SearchFilter{
		City:         q.Get("city"),
		MaxPrice:     q.Get("maxPrice"),
		PropertyType: q.Get("propertyType"),
		Bedrooms:     q.Get("bedrooms"),
	}
}

// wantWait reads ?wait=; def applies when absent or malformed.
func wantWait(r *http.Request, def bool) bool {
	if v := r.URL.Query().Get("wait"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// waitRatings gives aggregation up to RatingsWait; on timeout the snapshot
// simply shows the ratings as pending.
func (h *Handlers) waitRatings(ctx context.Context, e *entry) {
	wait := h.RatingsWait
	if wait <= 0 {
		wait = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := e.sess.Wait(ctx); err != nil {
		log.Debug().Err(err).Str("session", e.sess.ID()).Msg("ratings still pending")
	}
}

func view(e *entry, o app.Outcome) sessionView {
	return sessionView{Snapshot: e.sess.Snapshot(), Outcome: o, Events: e.box.drain()}
}

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	e, ok := h.Sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "session not found")
	}
	return e, ok
}

func listingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "listingID"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "listing id must be a number")
		return 0, false
	}
	return id, true
}

func (h *Handlers) oneShotSearch(w http.ResponseWriter, r *http.Request) {
	e := h.Sessions.Open()
	defer h.Sessions.Close(e.sess.ID())

	o := e.sess.Search(r.Context(), filterFromQuery(r))
	if o == app.OutcomePopulated && wantWait(r, true) {
		h.waitRatings(r.Context(), e)
	}
	writeJSON(w, http.StatusOK, view(e, o))
}

func (h *Handlers) openSession(w http.ResponseWriter, r *http.Request) {
	e := h.Sessions.Open()
	writeJSON(w, http.StatusCreated, view(e, ""))
}

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	v := view(e, "")
	etag, body := calcETagAndBody(v)
	// Nothing was drained, so a 304 loses no events.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag && len(v.Events) == 0 {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write session body")
	}
}

func (h *Handlers) closeSession(w http.ResponseWriter, r *http.Request) {
	if !h.Sessions.Close(chi.URLParam(r, "id")) {
		writeProblem(w, http.StatusNotFound, "Not Found", "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	var f domain.SearchFilter
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid body", "body must be a JSON search filter")
			return
		}
	}
	o := e.sess.Search(r.Context(), f)
	if o == app.OutcomePopulated && wantWait(r, false) {
		h.waitRatings(r.Context(), e)
	}
	writeJSON(w, http.StatusOK, view(e, o))
}

func (h *Handlers) back(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	e.sess.Back()
	writeJSON(w, http.StatusOK, view(e, ""))
}

func (h *Handlers) openDetails(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, (*app.Session).OpenDetails)
}

func (h *Handlers) openLandlordReviews(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, (*app.Session).OpenLandlordReviews)
}

func (h *Handlers) navigate(w http.ResponseWriter, r *http.Request, open func(*app.Session, int64) error) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	id, ok := listingID(w, r)
	if !ok {
		return
	}
	if err := open(e.sess, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "listing not in current results")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view(e, ""))
}

func (h *Handlers) recentSearches(w http.ResponseWriter, r *http.Request) {
	if h.SearchLog == nil {
		writeProblem(w, http.StatusNotImplemented, "Not Implemented", "search log is disabled")
		return
	}
	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}
	out, err := h.SearchLog.RecentSearches(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("recent searches failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "search log unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}
