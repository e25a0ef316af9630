package shared

import (
	"strings"

	"github.com/loadbid-next/internal/constants"
	"github.com/loadbid-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入的上下文键
const (
	ContextKeySubject         = "auth_subject"
	ContextKeyRole            = "auth_role"
	ContextKeyOperatingNumber = "auth_operating_number"
	ContextKeyDotNumber       = "auth_dot_number"
)

// Identity 外部身份服务签发令牌中的调用方信息
type Identity struct {
	Subject         string
	Role            string
	OperatingNumber string
	DotNumber       string
}

// IsAdmin 是否为后台角色
func (i Identity) IsAdmin() bool {
	switch i.Role {
	case constants.RoleAdmin, constants.RoleDispatcher:
		return true
	default:
		return false
	}
}

// SetIdentity 写入调用方身份
func SetIdentity(c *gin.Context, identity Identity) {
	c.Set(ContextKeySubject, identity.Subject)
	c.Set(ContextKeyRole, identity.Role)
	c.Set(ContextKeyOperatingNumber, identity.OperatingNumber)
	c.Set(ContextKeyDotNumber, identity.DotNumber)
}

// LookupIdentity 读取调用方身份，未鉴权时返回 false
func LookupIdentity(c *gin.Context) (Identity, bool) {
	subject := strings.TrimSpace(c.GetString(ContextKeySubject))
	if subject == "" {
		return Identity{}, false
	}
	return Identity{
		Subject:         subject,
		Role:            c.GetString(ContextKeyRole),
		OperatingNumber: c.GetString(ContextKeyOperatingNumber),
		DotNumber:       c.GetString(ContextKeyDotNumber),
	}, true
}

// RequireIdentity 读取调用方身份，缺失时直接返回 401
func RequireIdentity(c *gin.Context) (Identity, bool) {
	identity, ok := LookupIdentity(c)
	if !ok {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return Identity{}, false
	}
	return identity, true
}
