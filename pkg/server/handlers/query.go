package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tracelab/entiq"
	"github.com/tracelab/entiq/pkg/hydrate"
	"github.com/tracelab/entiq/pkg/server/dto"
	"github.com/tracelab/entiq/pkg/types"
)

// QueryHandler serves the search and bulk-get endpoints.
type QueryHandler struct {
	engine interface {
		entiq.Searcher
		entiq.Getter
	}
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(engine interface {
	entiq.Searcher
	entiq.Getter
}) *QueryHandler {
	return &QueryHandler{engine: engine}
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Criteria dto.Criteria    `json:"criteria"`
	Fetch    *dto.FetchGraph `json:"fetch,omitempty"`
}

// GlobalSearchRequest is the body of POST /api/v1/search/global.
type GlobalSearchRequest struct {
	Criteria dto.Criteria    `json:"criteria"`
	Scope    []string        `json:"scope,omitempty"`
	Fetch    *dto.FetchGraph `json:"fetch,omitempty"`
}

// GetRequest is the body of POST /api/v1/objects.
type GetRequest struct {
	Refs  []string        `json:"refs"`
	Kind  string          `json:"kind,omitempty"`
	Fetch *dto.FetchGraph `json:"fetch,omitempty"`
}

// Search handles POST /api/v1/search.
func (h *QueryHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	crit, err := req.Criteria.ToCriteria()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid criteria", Details: err.Error()})
		return
	}
	graph, err := req.Fetch.ToGraph(crit.Kind())
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid fetch graph", Details: err.Error()})
		return
	}

	result, err := h.engine.SearchObjects(c.Request.Context(), principalFrom(c), crit, graph)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	roots, arena := dto.RenderObjects(result.Objects)
	c.JSON(http.StatusOK, dto.SearchResponse{TotalCount: result.TotalCount, Roots: roots, Objects: arena})
}

// SearchGlobal handles POST /api/v1/search/global.
func (h *QueryHandler) SearchGlobal(c *gin.Context) {
	var req GlobalSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	crit, err := req.Criteria.ToCriteria()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid criteria", Details: err.Error()})
		return
	}
	graph, err := req.Fetch.ToGraph(crit.Kind())
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid fetch graph", Details: err.Error()})
		return
	}
	scope := make([]types.Kind, 0, len(req.Scope))
	for _, k := range req.Scope {
		scope = append(scope, types.Kind(k))
	}

	result, err := h.engine.SearchGlobal(c.Request.Context(), principalFrom(c), crit, scope, graph)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	roots, arena := dto.RenderObjects(result.Objects)
	c.JSON(http.StatusOK, dto.SearchResponse{TotalCount: result.TotalCount, Roots: roots, Objects: arena})
}

// GetObjects handles POST /api/v1/objects.
func (h *QueryHandler) GetObjects(c *gin.Context) {
	var req GetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	if len(req.Refs) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "refs is required"})
		return
	}

	refs := make([]types.EntityRef, 0, len(req.Refs))
	for _, s := range req.Refs {
		ref, err := types.ParseRef(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid ref", Details: err.Error()})
			return
		}
		refs = append(refs, ref)
	}

	kind := types.Kind(req.Kind)
	if kind == "" {
		kind = refs[0].Kind
	}
	graph, err := req.Fetch.ToGraph(kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid fetch graph", Details: err.Error()})
		return
	}

	found, err := h.engine.GetObjects(c.Request.Context(), principalFrom(c), refs, graph)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	// Render in request order so arena indexes are stable.
	var presentRefs []types.EntityRef
	var presentObjs []*hydrate.Object
	for _, ref := range refs {
		if obj, ok := found[ref]; ok {
			presentRefs = append(presentRefs, ref)
			presentObjs = append(presentObjs, obj)
		}
	}

	indexes, arena := dto.RenderObjects(presentObjs)
	response := dto.GetResponse{Found: make(map[string]int, len(presentRefs)), Objects: arena}
	for i, ref := range presentRefs {
		response.Found[ref.String()] = indexes[i]
	}
	c.JSON(http.StatusOK, response)
}

func principalFrom(c *gin.Context) types.Principal {
	userID, _ := c.Request.Context().Value(types.ContextKeyUserID).(string)
	return types.Principal{UserID: userID}
}

func writeEngineError(c *gin.Context, err error) {
	var invalid *types.InvalidCriteriaError
	var denied *types.AccessDeniedError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid criteria", Details: err.Error()})
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "access denied", Details: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "query failed", Details: err.Error()})
	}
}
