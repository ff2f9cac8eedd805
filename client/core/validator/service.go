package validator

import (
	"context"

	"github.com/weisyn/albatross-rpc/client/core/registry"
	"github.com/weisyn/albatross-rpc/client/core/transport"
	"github.com/weisyn/albatross-rpc/client/core/types"
)

// Service 本地验证者节点服务
type Service struct {
	caller transport.Caller
}

// NewService 创建验证者服务
func NewService(c transport.Caller) *Service {
	return &Service{caller: c}
}

// GetAddress 验证者地址
func (s *Service) GetAddress(ctx context.Context, opts ...registry.Option) (*registry.Result[types.Address], error) {
	return registry.InvokeAs[types.Address](ctx, s.caller, "getAddress", opts)
}

// GetSigningKey 签名私钥
func (s *Service) GetSigningKey(ctx context.Context, opts ...registry.Option) (*registry.Result[string], error) {
	return registry.InvokeAs[string](ctx, s.caller, "getSigningKey", opts)
}

// GetVotingKey 投票私钥
func (s *Service) GetVotingKey(ctx context.Context, opts ...registry.Option) (*registry.Result[string], error) {
	return registry.InvokeAs[string](ctx, s.caller, "getVotingKey", opts)
}

// SetAutomaticReactivation 被停用后是否自动重新激活
func (s *Service) SetAutomaticReactivation(ctx context.Context, enabled bool, opts ...registry.Option) (*registry.Result[any], error) {
	return registry.InvokeAs[any](ctx, s.caller, "setAutomaticReactivation", opts, enabled)
}
