package zkp

import (
	"context"

	"github.com/weisyn/albatross-rpc/client/core/registry"
	"github.com/weisyn/albatross-rpc/client/core/transport"
	"github.com/weisyn/albatross-rpc/client/core/types"
)

// Service 零知识证明组件服务
type Service struct {
	caller transport.Caller
}

// NewService 创建 ZKP 服务
func NewService(c transport.Caller) *Service {
	return &Service{caller: c}
}

// wireState 节点返回的字段名
type wireState struct {
	LatestHeaderHash  types.Hash        `json:"latest-header-number"`
	LatestBlockNumber types.BlockNumber `json:"latest-block-number"`
	LatestProof       string            `json:"latest-proof,omitempty"`
}

// GetZkpState 当前 ZKP 状态
func (s *Service) GetZkpState(ctx context.Context, opts ...registry.Option) (*registry.Result[types.ZKPState], error) {
	res, err := registry.InvokeAs[wireState](ctx, s.caller, "getZkpState", opts)
	if err != nil {
		return nil, err
	}
	return &registry.Result[types.ZKPState]{
		Data: types.ZKPState{
			LatestHeaderHash:  res.Data.LatestHeaderHash,
			LatestBlockNumber: res.Data.LatestBlockNumber,
			LatestProof:       res.Data.LatestProof,
		},
		Metadata: res.Metadata,
		Error:    res.Error,
		Context:  res.Context,
	}, nil
}
