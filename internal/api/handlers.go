package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sensemap/internal/mapservice"
	"github.com/starford/sensemap/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *mapservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *mapservice.Service) *Handler {
	return &Handler{svc: svc}
}

func mapID(r *http.Request) models.MapID { return models.MapID(chi.URLParam(r, "mapID")) }
func objectID(r *http.Request) models.ObjectID { return models.ObjectID(chi.URLParam(r, "objectID")) }
func boxID(r *http.Request) models.BoxID { return models.BoxID(chi.URLParam(r, "boxID")) }

// ListMaps handles GET /api/maps.
//
//	@Summary		List live maps, newest first
//	@Tags			maps
//	@Produce		json
//	@Success		200	{object}	MapListResponse
//	@Security		BearerAuth
//	@Router			/maps [get]
func (h *Handler) ListMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := h.svc.ListMaps(r.Context())
	if err != nil {
		writeError(w, "list maps", err)
		return
	}
	writeJSON(w, http.StatusOK, MapListResponse{Maps: maps})
}

// CreateMap handles POST /api/maps.
//
//	@Summary		Create a map
//	@Tags			maps
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateMapRequest	true	"Map to create"
//	@Success		201		{object}	models.Map
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/maps [post]
func (h *Handler) CreateMap(w http.ResponseWriter, r *http.Request) {
	var req CreateMapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := h.svc.CreateMap(r.Context(), req)
	if err != nil {
		writeError(w, "create map", err)
		return
	}
	writeRecord(w, http.StatusCreated, m)
}

// GetMap handles GET /api/maps/{mapID}.
func (h *Handler) GetMap(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetMap(r.Context(), mapID(r))
	if err != nil {
		writeError(w, "get map", err)
		return
	}
	if m == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeRecord(w, http.StatusOK, m)
}

// UpdateMap handles PATCH /api/maps/{mapID}.
func (h *Handler) UpdateMap(w http.ResponseWriter, r *http.Request) {
	var p models.MapPatch
	if !decodeBody(w, r, &p) {
		return
	}
	m, err := h.svc.UpdateMap(r.Context(), mapID(r), p, ifMatch(r))
	if err != nil {
		writeError(w, "update map", err)
		return
	}
	writeRecord(w, http.StatusOK, m)
}

// DeleteMap handles DELETE /api/maps/{mapID}.
func (h *Handler) DeleteMap(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.DeleteMap(r.Context(), mapID(r))
	if err != nil {
		writeError(w, "delete map", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// CreateObject handles POST /api/maps/{mapID}/objects.
//
//	@Summary		Place a new object on a map
//	@Tags			objects
//	@Accept			json
//	@Produce		json
//	@Param			mapID	path		string				true	"Map ID"
//	@Param			body	body		CreateObjectRequest	true	"Object to create"
//	@Success		201		{object}	models.MapObject
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/maps/{mapID}/objects [post]
func (h *Handler) CreateObject(w http.ResponseWriter, r *http.Request) {
	var req CreateObjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	o, err := h.svc.CreateObject(r.Context(), mapID(r), req.ObjectType, req.ObjectFields)
	if err != nil {
		writeError(w, "create object", err)
		return
	}
	writeRecord(w, http.StatusCreated, o)
}

// GetObject handles GET /api/objects/{objectID}.
func (h *Handler) GetObject(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.GetObject(r.Context(), objectID(r))
	if err != nil {
		writeError(w, "get object", err)
		return
	}
	if o == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeRecord(w, http.StatusOK, o)
}

// UpdateObject handles PATCH /api/objects/{objectID}.
//
//	@Summary		Partially update an object
//	@Tags			objects
//	@Accept			json
//	@Produce		json
//	@Param			objectID	path		string				true	"Object ID"
//	@Param			If-Match	header		string				false	"ETag of the version being edited"
//	@Param			body		body		models.ObjectPatch	true	"Fields to change"
//	@Success		200			{object}	models.MapObject
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/objects/{objectID} [patch]
func (h *Handler) UpdateObject(w http.ResponseWriter, r *http.Request) {
	var p models.ObjectPatch
	if !decodeBody(w, r, &p) {
		return
	}
	o, err := h.svc.UpdateObject(r.Context(), objectID(r), p, ifMatch(r))
	if err != nil {
		writeError(w, "update object", err)
		return
	}
	writeRecord(w, http.StatusOK, o)
}

// DeleteObject handles DELETE /api/objects/{objectID}. The body is the
// object as it was before deletion.
func (h *Handler) DeleteObject(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.DeleteObject(r.Context(), objectID(r))
	if err != nil {
		writeError(w, "delete object", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// CreateBox handles POST /api/maps/{mapID}/boxes.
func (h *Handler) CreateBox(w http.ResponseWriter, r *http.Request) {
	var req CreateBoxRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b, err := h.svc.CreateBox(r.Context(), mapID(r), req.BoxType, req.BoxFields)
	if err != nil {
		writeError(w, "create box", err)
		return
	}
	writeRecord(w, http.StatusCreated, b)
}

// GetBox handles GET /api/boxes/{boxID}.
func (h *Handler) GetBox(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetBox(r.Context(), boxID(r))
	if err != nil {
		writeError(w, "get box", err)
		return
	}
	if b == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeRecord(w, http.StatusOK, b)
}

// UpdateBox handles PATCH /api/boxes/{boxID}.
func (h *Handler) UpdateBox(w http.ResponseWriter, r *http.Request) {
	var p models.BoxPatch
	if !decodeBody(w, r, &p) {
		return
	}
	b, err := h.svc.UpdateBox(r.Context(), boxID(r), p, ifMatch(r))
	if err != nil {
		writeError(w, "update box", err)
		return
	}
	writeRecord(w, http.StatusOK, b)
}

// DeleteBox handles DELETE /api/boxes/{boxID}.
func (h *Handler) DeleteBox(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.DeleteBox(r.Context(), boxID(r))
	if err != nil {
		writeError(w, "delete box", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// AddToBox handles PUT /api/boxes/{boxID}/contains/{objectID}.
//
//	@Summary		Put an object into a box, moving it out of any other box
//	@Tags			containment
//	@Produce		json
//	@Param			boxID		path		string	true	"Box ID"
//	@Param			objectID	path		string	true	"Object ID"
//	@Success		200			{object}	models.Containment
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/boxes/{boxID}/contains/{objectID} [put]
func (h *Handler) AddToBox(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.AddToContainCards(r.Context(), objectID(r), boxID(r))
	if err != nil {
		writeError(w, "add to box", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RemoveFromBox handles DELETE /api/boxes/{boxID}/contains/{objectID}.
func (h *Handler) RemoveFromBox(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.RemoveFromContainCards(r.Context(), objectID(r), boxID(r))
	if err != nil {
		writeError(w, "remove from box", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Scope handles GET /api/maps/{mapID}/scope[?box=ID].
//
//	@Summary		Objects visible on the whole map or inside one box
//	@Tags			scope
//	@Produce		json
//	@Param			mapID	path		string	true	"Map ID"
//	@Param			box		query		string	false	"Box to look into"
//	@Success		200		{object}	ScopeResponse
//	@Security		BearerAuth
//	@Router			/maps/{mapID}/scope [get]
func (h *Handler) Scope(w http.ResponseWriter, r *http.Request) {
	sc := models.WholeMap()
	if box := r.URL.Query().Get("box"); box != "" {
		sc = models.InBox(models.BoxID(box))
	}
	objects, err := h.svc.ResolveScope(r.Context(), mapID(r), sc)
	if err != nil {
		writeError(w, "resolve scope", err)
		return
	}
	writeJSON(w, http.StatusOK, ScopeResponse{Scope: sc, Objects: objects})
}

// Search handles GET /api/maps/{mapID}/search.
//
//	@Summary		Full-text search across the cards of a map
//	@Tags			search
//	@Produce		json
//	@Param			mapID	path		string	true	"Map ID"
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/maps/{mapID}/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.SearchObjects(r.Context(), mapID(r), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
