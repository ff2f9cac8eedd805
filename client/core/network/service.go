package network

import (
	"context"

	"github.com/weisyn/albatross-rpc/client/core/registry"
	"github.com/weisyn/albatross-rpc/client/core/transport"
)

// Service 网络信息服务
type Service struct {
	caller transport.Caller
}

// NewService 创建网络服务
func NewService(c transport.Caller) *Service {
	return &Service{caller: c}
}

// GetPeerID 本地节点的 peer ID
func (s *Service) GetPeerID(ctx context.Context, opts ...registry.Option) (*registry.Result[string], error) {
	return registry.InvokeAs[string](ctx, s.caller, "getPeerId", opts)
}

// GetPeerCount 已连接的 peer 数量
func (s *Service) GetPeerCount(ctx context.Context, opts ...registry.Option) (*registry.Result[int], error) {
	return registry.InvokeAs[int](ctx, s.caller, "getPeerCount", opts)
}

// GetPeerList 已连接的 peer 列表
func (s *Service) GetPeerList(ctx context.Context, opts ...registry.Option) (*registry.Result[[]string], error) {
	return registry.InvokeAs[[]string](ctx, s.caller, "getPeerList", opts)
}
