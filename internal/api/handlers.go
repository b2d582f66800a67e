package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/uruz/internal/apperr"
	"github.com/starford/uruz/internal/matservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *matservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *matservice.Service) *Handler {
	return &Handler{svc: svc}
}

// materialPath extracts the document path from the URL (everything after
// /api/materials/). Supports encoded slashes from OpenAPI clients
// (e.g. steels%2F12x18n10t.json).
func materialPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListMaterials handles GET /api/materials.
//
//	@Summary		List materials with optional pagination and area filtering
//	@Tags			materials
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			area	query		string	false	"Filter by application area"
//	@Param			sort	query		string	false	"Sort field"	Enums(display_name, path, updated_at)
//	@Success		200		{object}	MaterialListResponse
//	@Security		BearerAuth
//	@Router			/materials [get]
func (h *Handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	area := q.Get("area")
	sort := q.Get("sort")

	items, total, err := h.svc.ListMaterials(r.Context(), limit, offset, area, sort)
	if err != nil {
		slog.Error("list materials failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"materials": items,
		"total":     total,
	})
}

// GetMaterial handles GET /api/materials/*.
//
//	@Summary		Get a single material record by path
//	@Tags			materials
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	MaterialDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/materials/{path} [get]
func (h *Handler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	path := materialPath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	detail, err := h.svc.GetMaterial(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
		} else {
			slog.Error("get material failed", slog.String("path", path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// CreateMaterial handles POST /api/materials.
//
//	@Summary		Create a new material record
//	@Tags			materials
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateMaterialRequest	true	"Record to create"
//	@Success		201		{object}	MaterialDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/materials [post]
func (h *Handler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	detail, err := h.svc.CreateMaterial(r.Context(), req.Path, req.Material, r.Header.Get("X-Actor"))
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			writeError(w, http.StatusConflict, "material already exists")
		case errors.Is(err, apperr.ErrInvalidRecord):
			writeError(w, http.StatusBadRequest, "invalid record: "+err.Error())
		default:
			slog.Error("create material failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// UpdateMaterial handles PUT /api/materials/*.
//
// The X-Actor header attributes the save in the changelog ledger; it falls
// back to the configured default actor when absent.
//
//	@Summary		Commit an edited material record with optimistic concurrency
//	@Tags			materials
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string					true	"Document path"
//	@Param			If-Match	header	string					false	"SHA-256 checksum for optimistic concurrency"
//	@Param			X-Actor		header	string					false	"Changelog attribution"
//	@Param			body		body	UpdateMaterialRequest	true	"Edited record"
//	@Success		200			{object}	MaterialDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/materials/{path} [put]
func (h *Handler) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	path := materialPath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	var req UpdateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Material == nil {
		writeError(w, http.StatusBadRequest, "material is required")
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)
	actor := r.Header.Get("X-Actor")

	detail, err := h.svc.UpdateMaterial(r.Context(), path, req.Material, ifMatch, actor)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		case errors.Is(err, apperr.ErrConflict):
			writeError(w, http.StatusConflict, "checksum mismatch")
		case errors.Is(err, apperr.ErrInvalidRecord):
			writeError(w, http.StatusBadRequest, "invalid record: "+err.Error())
		default:
			slog.Error("update material failed", slog.String("path", path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// DeleteMaterial handles DELETE /api/materials/*.
//
//	@Summary		Delete a material record
//	@Tags			materials
//	@Param			path	path	string	true	"Document path"
//	@Success		204		"Material deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/materials/{path} [delete]
func (h *Handler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	path := materialPath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err := h.svc.DeleteMaterial(r.Context(), path); err != nil {
		slog.Error("delete material failed", slog.String("path", path), slog.String("error", err.Error()))
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across materials
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// ValueAt handles GET /api/value.
//
//	@Summary		Resolve one property of one record at a temperature
//	@Tags			properties
//	@Produce		json
//	@Param			path		query		string	true	"Document path"
//	@Param			prop		query		string	true	"Property key"
//	@Param			temp		query		number	true	"Temperature, °С"
//	@Param			category	query		string	false	"Strength category (mechanical properties)"
//	@Param			unit		query		string	false	"Display unit"
//	@Success		200			{object}	matservice.ValueResult
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/value [get]
func (h *Handler) ValueAt(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	prop := q.Get("prop")
	if path == "" || prop == "" {
		writeError(w, http.StatusBadRequest, "path and prop are required")
		return
	}
	temp, err := strconv.ParseFloat(q.Get("temp"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "temp must be a number")
		return
	}

	res, err := h.svc.ValueAt(r.Context(), path, prop, q.Get("category"), temp, q.Get("unit"))
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		case errors.Is(err, apperr.ErrInvalidRecord):
			writeError(w, http.StatusBadRequest, "unknown property key")
		default:
			slog.Error("value query failed", slog.String("path", path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Table handles GET /api/table.
//
//	@Summary		Batch property table across the library at one temperature
//	@Tags			properties
//	@Produce		json
//	@Param			type	query		string	true	"Property set"	Enums(physical, mechanical, hardness)
//	@Param			temp	query		number	true	"Temperature, °С (ignored for hardness)"
//	@Param			area	query		string	false	"Filter by application area"
//	@Success		200		{object}	TableResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/table [get]
func (h *Handler) Table(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	propType := q.Get("type")
	temp, err := strconv.ParseFloat(q.Get("temp"), 64)
	if err != nil && propType != "hardness" {
		writeError(w, http.StatusBadRequest, "temp must be a number")
		return
	}

	rows, err := h.svc.Table(r.Context(), propType, temp, q.Get("area"))
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidRecord) {
			writeError(w, http.StatusBadRequest, "type must be physical, mechanical or hardness")
			return
		}
		slog.Error("table query failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows": rows,
	})
}

// MatchComposition handles POST /api/composition/match.
//
//	@Summary		Rank composition sources against target element percentages
//	@Tags			composition
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MatchRequest	true	"Target percentages by element symbol"
//	@Success		200		{object}	MatchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/composition/match [post]
func (h *Handler) MatchComposition(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Targets) == 0 {
		writeError(w, http.StatusBadRequest, "targets are required")
		return
	}
	items, err := h.svc.MatchComposition(r.Context(), req.Targets, req.Area)
	if err != nil {
		slog.Error("composition match failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matches": items,
	})
}

// Areas handles GET /api/areas.
//
//	@Summary		List the derived application-area set
//	@Tags			library
//	@Produce		json
//	@Success		200	{object}	AreasResponse
//	@Security		BearerAuth
//	@Router			/areas [get]
func (h *Handler) Areas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"areas": h.svc.Areas(r.Context()),
	})
}

// Sources handles GET /api/sources. With ?source= it returns the records
// citing that source instead of the aggregated name list.
//
//	@Summary		List aggregated source names, or records citing one source
//	@Tags			library
//	@Produce		json
//	@Param			source	query		string	false	"Source name to look up"
//	@Success		200		{object}	SourcesResponse
//	@Security		BearerAuth
//	@Router			/sources [get]
func (h *Handler) Sources(w http.ResponseWriter, r *http.Request) {
	if source := r.URL.Query().Get("source"); source != "" {
		paths, err := h.svc.MaterialsUsingSource(r.Context(), source)
		if err != nil {
			slog.Error("sources lookup failed", slog.String("source", source), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"source":    source,
			"materials": paths,
		})
		return
	}

	sources, err := h.svc.Sources(r.Context())
	if err != nil {
		slog.Error("sources failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sources": sources,
	})
}
