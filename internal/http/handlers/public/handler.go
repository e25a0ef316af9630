package public

import "github.com/loadbid-next/internal/provider"

// Handler 投标端与接入端接口处理器
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
