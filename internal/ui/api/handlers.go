package api

import (
	"edgegraph/internal/core/app"
	"edgegraph/internal/core/errors"
	"edgegraph/internal/data/history"
	"edgegraph/internal/engine/graph"
	"edgegraph/internal/output"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

const msgNoNodes = "no nodes found"

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type StatsResponse struct {
	graph.Summary
	MemoryHuman string          `json:"memory_human"`
	DatasetPath string          `json:"dataset_path,omitempty"`
	LastLoad    *app.LoadReport `json:"last_load,omitempty"`
}

type MaxDegreeResponse struct {
	Found     bool                `json:"found"`
	ID        int64               `json:"id"`
	OutDegree int64               `json:"out_degree"`
	Top       []graph.DegreeEntry `json:"top,omitempty"`
	Message   string              `json:"message,omitempty"`
}

type TraverseResponse struct {
	output.Subgraph
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
}

type NeighborsResponse struct {
	ID        int64   `json:"id"`
	OutDegree int     `json:"out_degree"`
	Neighbors []int64 `json:"neighbors"`
}

type LoadRequest struct {
	Path string `json:"path"`
}

type HistoryEntry struct {
	LoadID       string    `json:"load_id"`
	DatasetPath  string    `json:"dataset_path"`
	Status       string    `json:"status"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Nodes        int64     `json:"nodes"`
	Edges        int64     `json:"edges"`
	MemoryBytes  int64     `json:"memory_bytes"`
	DurationMS   int64     `json:"duration_ms"`
	StartedAt    time.Time `json:"started_at"`
}

func (s *Server) handleHealth(c *gin.Context) {
	status := s.health.Check(c.Request.Context())
	code := http.StatusOK
	if status.Status != "up" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

func (s *Server) handleStats(c *gin.Context) {
	sum := s.app.Engine.Summary()
	resp := StatsResponse{
		Summary:     sum,
		MemoryHuman: humanize.IBytes(uint64(sum.MemoryBytes)),
		DatasetPath: s.app.DatasetPath(),
	}
	if report, ok := s.app.Engine.LastLoad(); ok {
		resp.LastLoad = &report
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMaxDegree(c *gin.Context) {
	top := 0
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(c, errors.New(errors.CodeValidationError, "top must be a non-negative integer"))
			return
		}
		top = n
	}

	store := s.app.Engine.Snapshot()
	id, degree, ok := store.MaxOutDegreeNode()
	resp := MaxDegreeResponse{Found: ok, ID: id, OutDegree: degree}
	if !ok {
		resp.Message = msgNoNodes
	}
	if top > 0 {
		resp.Top = store.TopOutDegree(top)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleTraverse(c *gin.Context) {
	start, err := strconv.ParseInt(strings.TrimSpace(c.Query("start")), 10, 64)
	if err != nil {
		writeError(c, errors.New(errors.CodeValidationError, "start must be an integer node id"))
		return
	}

	depth := s.app.Config.Traversal.DefaultDepth
	if raw := c.Query("depth"); raw != "" {
		depth, err = strconv.Atoi(raw)
		if err != nil {
			writeError(c, errors.New(errors.CodeValidationError, "depth must be an integer"))
			return
		}
	}

	format, err := output.ParseFormat(c.Query("format"))
	if err != nil {
		writeError(c, errors.Wrap(err, errors.CodeValidationError, "invalid format"))
		return
	}

	depth = s.app.Engine.ClampDepth(depth)
	sub := output.Subgraph{
		Start: start,
		Depth: depth,
		Edges: s.app.Engine.Traverse(c.Request.Context(), start, depth),
		Found: s.app.Engine.Contains(start),
	}

	if format != output.FormatJSON {
		text, err := output.Render(format, sub)
		if err != nil {
			writeError(c, errors.Wrap(err, errors.CodeInternal, "render failed"))
			return
		}
		c.Data(http.StatusOK, format.ContentType(), []byte(text))
		return
	}

	resp := TraverseResponse{Subgraph: sub, Count: len(sub.Edges)}
	if len(sub.Edges) == 0 {
		resp.Message = msgNoNodes
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleNeighbors(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, errors.New(errors.CodeValidationError, "id must be an integer node id"))
		return
	}
	neighbors, ok := s.app.Engine.Neighbors(id)
	if !ok {
		writeError(c, errors.New(errors.CodeNotFound, "node not found"))
		return
	}
	c.JSON(http.StatusOK, NeighborsResponse{ID: id, OutDegree: len(neighbors), Neighbors: neighbors})
}

func (s *Server) handleHistory(c *gin.Context) {
	if !s.app.HistoryEnabled() {
		writeError(c, errors.New(errors.CodeNotFound, "load history is disabled"))
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(c, errors.New(errors.CodeValidationError, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	records, err := s.app.RecentLoads(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, historyEntries(records))
}

func (s *Server) handleLoad(c *gin.Context) {
	var req LoadRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, errors.Wrap(err, errors.CodeValidationError, "invalid request body"))
			return
		}
	}
	report, err := s.app.LoadDataset(c.Request.Context(), req.Path)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func historyEntries(records []history.LoadRecord) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(records))
	for _, r := range records {
		out = append(out, HistoryEntry{
			LoadID:       r.LoadID,
			DatasetPath:  r.DatasetPath,
			Status:       r.Status,
			ErrorCode:    r.ErrorCode,
			ErrorMessage: r.ErrorMessage,
			Nodes:        r.Nodes,
			Edges:        r.Edges,
			MemoryBytes:  r.MemoryBytes,
			DurationMS:   r.Duration.Milliseconds(),
			StartedAt:    r.StartedAt,
		})
	}
	return out
}

func writeError(c *gin.Context, err error) {
	code := errors.CodeOf(err)
	c.AbortWithStatusJSON(statusFor(code), ErrorResponse{Error: err.Error(), Code: string(code)})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeFormat, errors.CodeIO:
		return http.StatusUnprocessableEntity
	case errors.CodeCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
