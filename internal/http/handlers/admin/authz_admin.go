package admin

import (
	"errors"
	"strings"

	"github.com/loadbid-next/internal/authz"
	"github.com/loadbid-next/internal/http/handlers/shared"
	"github.com/loadbid-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SetOperatorRolesRequest 操作员附加角色
type SetOperatorRolesRequest struct {
	Roles []string `json:"roles"`
}

// GetAuthzRoles 角色与策略列表
func (h *Handler) GetAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRolesWithPolicies()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "list roles failed", err)
		return
	}
	response.Success(c, roles)
}

// GetOperatorRoles 查询操作员附加角色
func (h *Handler) GetOperatorRoles(c *gin.Context) {
	subject := strings.TrimSpace(c.Param("subject"))
	roles, err := h.AuthzService.GetOperatorRoles(subject)
	if err != nil {
		respondAuthzError(c, err, "get operator roles failed")
		return
	}
	response.Success(c, gin.H{"subject": subject, "roles": roles})
}

// SetOperatorRoles 覆盖操作员附加角色，空列表表示只保留令牌角色
func (h *Handler) SetOperatorRoles(c *gin.Context) {
	identity, ok := shared.RequireIdentity(c)
	if !ok {
		return
	}
	var req SetOperatorRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	subject := strings.TrimSpace(c.Param("subject"))
	roles, err := h.AuthzService.SetOperatorRoles(subject, req.Roles)
	if err != nil {
		respondAuthzError(c, err, "set operator roles failed")
		return
	}
	shared.RequestLog(c).Infow("admin_operator_roles_updated",
		"actor", identity.Subject,
		"subject", subject,
		"roles", roles,
	)
	response.Success(c, gin.H{"subject": subject, "roles": roles})
}

func respondAuthzError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, authz.ErrSubjectRequired), errors.Is(err, authz.ErrUnknownRole):
		shared.RespondError(c, response.CodeBadRequest, err.Error(), nil)
	default:
		shared.RespondError(c, response.CodeInternal, fallbackMsg, err)
	}
}
