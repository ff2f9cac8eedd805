package mempool

import (
	"context"

	"github.com/weisyn/albatross-rpc/client/core/registry"
	"github.com/weisyn/albatross-rpc/client/core/transport"
	"github.com/weisyn/albatross-rpc/client/core/types"
)

// Service 交易池服务
type Service struct {
	caller transport.Caller
}

// NewService 创建交易池服务
func NewService(c transport.Caller) *Service {
	return &Service{caller: c}
}

// PushTransaction 把序列化交易放入本地交易池，返回交易哈希
func (s *Service) PushTransaction(ctx context.Context, tx types.RawTransaction, highPriority bool, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	method := "pushTransaction"
	if highPriority {
		method = "pushHighPriorityTransaction"
	}
	return registry.InvokeAs[types.Hash](ctx, s.caller, method, opts, tx)
}

// MempoolContent 交易池内容
// includeTransactions 为 false 时节点只返回哈希，解码为只有 Hash 字段的交易
func (s *Service) MempoolContent(ctx context.Context, includeTransactions bool, opts ...registry.Option) (*registry.Result[[]Entry], error) {
	return registry.InvokeAs[[]Entry](ctx, s.caller, "mempoolContent", opts, includeTransactions)
}

// Mempool 交易池概况
func (s *Service) Mempool(ctx context.Context, opts ...registry.Option) (*registry.Result[types.MempoolInfo], error) {
	return registry.InvokeAs[types.MempoolInfo](ctx, s.caller, "mempool", opts)
}

// GetMinFeePerByte 最低单字节手续费
func (s *Service) GetMinFeePerByte(ctx context.Context, opts ...registry.Option) (*registry.Result[float64], error) {
	return registry.InvokeAs[float64](ctx, s.caller, "getMinFeePerByte", opts)
}
