package audit

import (
	"net/http"
	"strconv"

	"barberia_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler exposes the admin-only audit listing endpoint.
type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/audit/auth-events", h.ListAuthEvents)
}

type listResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

func (h *Handler) ListAuthEvents(c *gin.Context) {
	params := ListParams{
		Email:  c.Query("email"),
		Event:  c.Query("event"),
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	}

	entries, total, err := h.repo.List(c.Request.Context(), params)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list audit events", nil)
		return
	}

	httpkit.OK(c, listResponse{Entries: entries, Total: total})
}

func intQuery(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}
