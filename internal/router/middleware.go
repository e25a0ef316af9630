package router

import (
	"crypto/subtle"
	"strconv"
	"strings"
	"time"

	"github.com/loadbid-next/internal/authz"
	"github.com/loadbid-next/internal/config"
	"github.com/loadbid-next/internal/constants"
	"github.com/loadbid-next/internal/http/handlers/shared"
	"github.com/loadbid-next/internal/http/response"
	"github.com/loadbid-next/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"
const webhookKeyHeader = "X-Webhook-Key"

// BidderClaims 外部身份服务签发的令牌声明，Subject 为投标人/操作员 ID
type BidderClaims struct {
	Role            string `json:"role"`
	OperatingNumber string `json:"mc,omitempty"`
	DotNumber       string `json:"dot,omitempty"`
	jwt.RegisteredClaims
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			webhookKeyHeader,
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件，同时写入 request context 供服务层日志使用
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if subject := c.GetString(shared.ContextKeySubject); subject != "" {
			log = log.With("subject", subject)
		}
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// IntakeKeyMiddleware 接入 Webhook 鉴权，支持 X-Webhook-Key 或 Bearer
func IntakeKeyMiddleware(apiKey string) gin.HandlerFunc {
	apiKey = strings.TrimSpace(apiKey)
	return func(c *gin.Context) {
		if apiKey == "" {
			logger.Warnw("intake_api_key_missing")
			response.Unauthorized(c, "intake is not configured")
			c.Abort()
			return
		}
		provided := strings.TrimSpace(c.GetHeader(webhookKeyHeader))
		if provided == "" {
			provided, _ = bearerToken(c)
		}
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			response.Unauthorized(c, "invalid intake key")
			c.Abort()
			return
		}
		c.Next()
	}
}

// TokenAuthMiddleware 校验令牌；required 为 false 时无令牌放行，令牌无效仍拒绝
func TokenAuthMiddleware(cfg config.JWTConfig, required bool) gin.HandlerFunc {
	secretKey := strings.TrimSpace(cfg.SecretKey)
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer := strings.TrimSpace(cfg.Issuer); issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(options...)

	return func(c *gin.Context) {
		tokenString, present := bearerToken(c)
		if !present && !required {
			c.Next()
			return
		}
		if secretKey == "" {
			response.Unauthorized(c, "token secret is not configured")
			c.Abort()
			return
		}
		if tokenString == "" {
			response.Unauthorized(c, "authorization header missing or invalid")
			c.Abort()
			return
		}

		claims := &BidderClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		})
		subject := ""
		if err == nil {
			subject, _ = claims.GetSubject()
		}
		if err != nil || !token.Valid || strings.TrimSpace(subject) == "" {
			logger.FromContext(c.Request.Context()).Debugw("token_rejected", "error", err)
			response.Unauthorized(c, "token invalid")
			c.Abort()
			return
		}
		role := strings.ToLower(strings.TrimSpace(claims.Role))
		if role == "" {
			role = constants.RoleCarrier
		}
		shared.SetIdentity(c, shared.Identity{
			Subject:         strings.TrimSpace(subject),
			Role:            role,
			OperatingNumber: strings.TrimSpace(claims.OperatingNumber),
			DotNumber:       strings.TrimSpace(claims.DotNumber),
		})
		c.Next()
	}
}

// RequireRoleMiddleware 限定令牌角色
func RequireRoleMiddleware(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		identity, ok := shared.LookupIdentity(c)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		if _, ok := allowed[identity.Role]; !ok {
			response.Forbidden(c, "role not permitted")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRBACMiddleware 管理端 RBAC 鉴权中间件
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("admin_rbac_service_unavailable")
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}

		identity, ok := shared.LookupIdentity(c)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceOperator(identity.Subject, identity.Role, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed",
				"subject", identity.Subject,
				"role", identity.Role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_permission_denied",
				"subject", identity.Subject,
				"role", identity.Role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, "forbidden")
			c.Abort()
			return
		}

		c.Next()
	}
}

// bearerToken 读取 Authorization: Bearer，present 表示请求携带了 Authorization 头
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}
