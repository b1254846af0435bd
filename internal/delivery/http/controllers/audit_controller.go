package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"corporateevents/internal/delivery/http/helpers"
	"corporateevents/internal/domain"
)

// ListAuditLogsData is the data of GET /admin/audit-logs.
type ListAuditLogsData struct {
	Items      []*domain.AuditEntry   `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListAuditLogsSuccessResponse is the success response envelope for GET /admin/audit-logs.
type ListAuditLogsSuccessResponse struct {
	Data  ListAuditLogsData `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// AuditController serves the audit log viewer.
type AuditController struct {
	Logger  *slog.Logger
	Service domain.AuditService
}

func NewAuditController(logger *slog.Logger, svc domain.AuditService) *AuditController {
	return &AuditController{Logger: logger, Service: svc}
}

// ListAuditLogs godoc
// @Summary List audit log entries
// @Description Newest first. Optional filters by level (info, warn, error) and scope. Requires the admin role.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param level query string false "info, warn or error"
// @Param scope query string false "Scope, e.g. registration"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListAuditLogsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/audit-logs [get]
func (c *AuditController) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AuditFilter{
		Level: domain.AuditLevel(strings.ToLower(strings.TrimSpace(q.Get("level")))),
		Scope: strings.TrimSpace(q.Get("scope")),
	}
	params := helpers.ParsePagination(r)
	entries, total, err := c.Service.List(r.Context(), filter, params)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		writeInternalError(c.Logger, w, r, err)
		return
	}
	if entries == nil {
		entries = []*domain.AuditEntry{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListAuditLogsData{
		Items:      entries,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}
