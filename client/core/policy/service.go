package policy

import (
	"context"

	"github.com/weisyn/albatross-rpc/client/core/registry"
	"github.com/weisyn/albatross-rpc/client/core/transport"
	"github.com/weisyn/albatross-rpc/client/core/types"
)

// Service 共识参数与区块编号换算
// 这些方法只依赖节点的策略常量，不读取链状态
type Service struct {
	caller transport.Caller
}

// NewService 创建策略服务
func NewService(c transport.Caller) *Service {
	return &Service{caller: c}
}

func (s *Service) number(ctx context.Context, method string, arg uint32, opts []registry.Option) (*registry.Result[uint32], error) {
	return registry.InvokeAs[uint32](ctx, s.caller, method, opts, arg)
}

func (s *Service) predicate(ctx context.Context, method string, blockNumber types.BlockNumber, opts []registry.Option) (*registry.Result[bool], error) {
	return registry.InvokeAs[bool](ctx, s.caller, method, opts, blockNumber)
}

// GetPolicyConstants 共识参数
func (s *Service) GetPolicyConstants(ctx context.Context, opts ...registry.Option) (*registry.Result[types.PolicyConstants], error) {
	return registry.InvokeAs[types.PolicyConstants](ctx, s.caller, "getPolicyConstants", opts)
}

// GetEpochAt 高度所在纪元；justIndex 时返回在纪元内的序号，纪元首块为 0
func (s *Service) GetEpochAt(ctx context.Context, blockNumber types.BlockNumber, justIndex bool, opts ...registry.Option) (*registry.Result[types.EpochIndex], error) {
	if justIndex {
		return s.number(ctx, "getEpochIndexAt", blockNumber, opts)
	}
	return s.number(ctx, "getEpochAt", blockNumber, opts)
}

// GetBatchAt 高度所在批次；justIndex 时返回在批次内的序号
func (s *Service) GetBatchAt(ctx context.Context, blockNumber types.BlockNumber, justIndex bool, opts ...registry.Option) (*registry.Result[types.BatchIndex], error) {
	if justIndex {
		return s.number(ctx, "getBatchIndexAt", blockNumber, opts)
	}
	return s.number(ctx, "getBatchAt", blockNumber, opts)
}

// GetElectionBlockAfter 高度之后的下一个选举区块
func (s *Service) GetElectionBlockAfter(ctx context.Context, blockNumber types.BlockNumber, opts ...registry.Option) (*registry.Result[types.BlockNumber], error) {
	return s.number(ctx, "getElectionBlockAfter", blockNumber, opts)
}

// GetElectionBlockBefore 高度之前的上一个选举区块，不含自身
func (s *Service) GetElectionBlockBefore(ctx context.Context, blockNumber types.BlockNumber, opts ...registry.Option) (*registry.Result[types.BlockNumber], error) {
	return s.number(ctx, "getElectionBlockBefore", blockNumber, opts)
}

// GetLastElectionBlock 高度之前的上一个选举区块，若自身是选举区块则返回自身
func (s *Service) GetLastElectionBlock(ctx context.Context, blockNumber types.BlockNumber, opts ...registry.Option) (*registry.Result[types.BlockNumber], error) {
	return s.number(ctx, "getLastElectionBlock", blockNumber, opts)
}

// GetIsElectionBlockAt 是否为选举区块
func (s *Service) GetIsElectionBlockAt(ctx context.Context, blockNumber types.BlockNumber, opts ...registry.Option) (*registry.Result[bool], error) {
	return s.predicate(ctx, "getIsElectionBlockAt", blockNumber, opts)
}

// GetMacroBlockAfter 高度之后的下一个宏区块
func (s *Service) GetMacroBlockAfter(ctx context.Context, blockNumber types.BlockNumber, opts ...registry.Option) (*registry.Result[types.BlockNumber], error) {
	return s.number(ctx, "getMacroBlockAfter", blockNumber, opts)
}

// GetMacroBlockBefore 高度之前的上一个宏区块，不含自身
func (s *Service) GetMacroBlockBefore(ctx context.Context, blockNumber types.BlockNumber, opts ...registry.Option) (*registry.Result[types.BlockNumber], error) {
	return s.number(ctx, "getMacroBlockBefore", blockNumber, opts)
}

// GetLastMacroBlock 高度之前的上一个宏区块，若自身是宏区块则返回自身
func (s *Service) GetLastMacroBlock(ctx context.Context, blockNumber types.BlockNumber, opts ...registry.Option) (*registry.Result[types.BlockNumber], error) {
	return s.number(ctx, "getLastMacroBlock", blockNumber, opts)
}

// GetIsMacroBlockAt 是否为宏区块
func (s *Service) GetIsMacroBlockAt(ctx context.Context, blockNumber types.BlockNumber, opts ...registry.Option) (*registry.Result[bool], error) {
	return s.predicate(ctx, "getIsMacroBlockAt", blockNumber, opts)
}

// GetIsMicroBlockAt 是否为微区块
func (s *Service) GetIsMicroBlockAt(ctx context.Context, blockNumber types.BlockNumber, opts ...registry.Option) (*registry.Result[bool], error) {
	return s.predicate(ctx, "getIsMicroBlockAt", blockNumber, opts)
}

// GetFirstBlockOf 纪元的第一个区块
func (s *Service) GetFirstBlockOf(ctx context.Context, epoch types.EpochIndex, opts ...registry.Option) (*registry.Result[types.BlockNumber], error) {
	return s.number(ctx, "getFirstBlockOf", epoch, opts)
}

// GetFirstBlockOfBatch 批次的第一个区块
func (s *Service) GetFirstBlockOfBatch(ctx context.Context, batch types.BatchIndex, opts ...registry.Option) (*registry.Result[types.BlockNumber], error) {
	return s.number(ctx, "getFirstBlockOfBatch", batch, opts)
}

// GetElectionBlockOf 纪元的选举区块
func (s *Service) GetElectionBlockOf(ctx context.Context, epoch types.EpochIndex, opts ...registry.Option) (*registry.Result[types.BlockNumber], error) {
	return s.number(ctx, "getElectionBlockOf", epoch, opts)
}

// GetMacroBlockOf 批次的宏区块
func (s *Service) GetMacroBlockOf(ctx context.Context, batch types.BatchIndex, opts ...registry.Option) (*registry.Result[types.BlockNumber], error) {
	return s.number(ctx, "getMacroBlockOf", batch, opts)
}

// GetFirstBatchOfEpoch 高度所在批次是否为纪元的第一个批次
func (s *Service) GetFirstBatchOfEpoch(ctx context.Context, blockNumber types.BlockNumber, opts ...registry.Option) (*registry.Result[bool], error) {
	return s.predicate(ctx, "getFirstBatchOfEpoch", blockNumber, opts)
}

// SupplyQuery 供应量计算参数，时间均为 Unix 毫秒
type SupplyQuery struct {
	GenesisSupply types.Coin
	GenesisTime   uint64
	CurrentTime   uint64
}

// GetSupplyAt 给定时间的总供应量，单位 Luna
func (s *Service) GetSupplyAt(ctx context.Context, q SupplyQuery, opts ...registry.Option) (*registry.Result[types.Coin], error) {
	return registry.InvokeAs[types.Coin](ctx, s.caller, "getSupplyAt", opts, q.GenesisSupply, q.GenesisTime, q.CurrentTime)
}
