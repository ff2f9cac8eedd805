package blockchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/weisyn/albatross-rpc/client/core/registry"
	"github.com/weisyn/albatross-rpc/client/core/transport"
	"github.com/weisyn/albatross-rpc/client/core/types"
)

// ErrInvalidQuery 查询条件为空或多选
var ErrInvalidQuery = errors.New("invalid query")

// Service 链数据查询与订阅服务
type Service struct {
	gateway transport.Gateway
}

// NewService 创建链数据服务
func NewService(gw transport.Gateway) *Service {
	return &Service{gateway: gw}
}

// GetBlockNumber 当前链头高度
func (s *Service) GetBlockNumber(ctx context.Context, opts ...registry.Option) (*registry.Result[types.BlockNumber], error) {
	return registry.InvokeAs[types.BlockNumber](ctx, s.gateway, "getBlockNumber", opts)
}

// GetBatchNumber 当前链头所在批次
func (s *Service) GetBatchNumber(ctx context.Context, opts ...registry.Option) (*registry.Result[types.BatchIndex], error) {
	return registry.InvokeAs[types.BatchIndex](ctx, s.gateway, "getBatchNumber", opts)
}

// GetEpochNumber 当前链头所在纪元
func (s *Service) GetEpochNumber(ctx context.Context, opts ...registry.Option) (*registry.Result[types.EpochIndex], error) {
	return registry.InvokeAs[types.EpochIndex](ctx, s.gateway, "getEpochNumber", opts)
}

// BlockQuery 区块查询条件，Hash 与 Number 二选一
type BlockQuery struct {
	Hash                types.Hash
	Number              *types.BlockNumber
	IncludeTransactions bool
}

// GetBlockBy 按哈希或高度查询区块
func (s *Service) GetBlockBy(ctx context.Context, q BlockQuery, opts ...registry.Option) (*registry.Result[types.Block], error) {
	switch {
	case q.Hash != "" && q.Number == nil:
		return registry.InvokeAs[types.Block](ctx, s.gateway, "getBlockByHash", opts, q.Hash, q.IncludeTransactions)
	case q.Hash == "" && q.Number != nil:
		return registry.InvokeAs[types.Block](ctx, s.gateway, "getBlockByNumber", opts, *q.Number, q.IncludeTransactions)
	default:
		return nil, fmt.Errorf("block query needs exactly one of hash or number: %w", ErrInvalidQuery)
	}
}

// GetLatestBlock 最新区块
func (s *Service) GetLatestBlock(ctx context.Context, includeTransactions bool, opts ...registry.Option) (*registry.Result[types.Block], error) {
	return registry.InvokeAs[types.Block](ctx, s.gateway, "getLatestBlock", opts, includeTransactions)
}

// GetSlotAt 指定高度的出块槽位，offset 为 nil 时使用该高度已有区块的偏移
func (s *Service) GetSlotAt(ctx context.Context, blockNumber types.BlockNumber, offset *uint32, opts ...registry.Option) (*registry.Result[types.Slot], error) {
	var off any
	if offset != nil {
		off = *offset
	}
	return registry.InvokeAs[types.Slot](ctx, s.gateway, "getSlotAt", opts, blockNumber, off)
}

// GetTransactionByHash 按哈希查询交易
func (s *Service) GetTransactionByHash(ctx context.Context, hash types.Hash, opts ...registry.Option) (*registry.Result[types.Transaction], error) {
	return registry.InvokeAs[types.Transaction](ctx, s.gateway, "getTransactionByHash", opts, hash)
}

// TransactionQuery 交易列表查询条件，BlockNumber、BatchNumber、Address 三选一
type TransactionQuery struct {
	BlockNumber *types.BlockNumber
	BatchNumber *types.BatchIndex
	Address     types.Address
	// Max 仅对 Address 有效，nil 时节点默认 500
	Max *uint16
}

func (q TransactionQuery) count() int {
	n := 0
	if q.BlockNumber != nil {
		n++
	}
	if q.BatchNumber != nil {
		n++
	}
	if q.Address != "" {
		n++
	}
	return n
}

// GetTransactionsBy 按区块、批次或地址查询交易
// 按地址查询时返回该地址作为发送方或接收方的最近交易，包含奖励交易
func (s *Service) GetTransactionsBy(ctx context.Context, q TransactionQuery, opts ...registry.Option) (*registry.Result[[]types.Transaction], error) {
	if q.count() != 1 {
		return nil, fmt.Errorf("transaction query needs exactly one of block, batch or address: %w", ErrInvalidQuery)
	}
	switch {
	case q.BlockNumber != nil:
		return registry.InvokeAs[[]types.Transaction](ctx, s.gateway, "getTransactionsByBlockNumber", opts, *q.BlockNumber)
	case q.BatchNumber != nil:
		return registry.InvokeAs[[]types.Transaction](ctx, s.gateway, "getTransactionsByBatchNumber", opts, *q.BatchNumber)
	default:
		return registry.InvokeAs[[]types.Transaction](ctx, s.gateway, "getTransactionsByAddress", opts, q.Address, optional(q.Max))
	}
}

// GetTransactionHashesByAddress 地址相关的交易哈希
func (s *Service) GetTransactionHashesByAddress(ctx context.Context, address types.Address, limit *uint16, opts ...registry.Option) (*registry.Result[[]types.Hash], error) {
	return registry.InvokeAs[[]types.Hash](ctx, s.gateway, "getTransactionHashesByAddress", opts, address, optional(limit))
}

// GetInherentsByBlockNumber 区块内的内生交易，仅主链
func (s *Service) GetInherentsByBlockNumber(ctx context.Context, blockNumber types.BlockNumber, opts ...registry.Option) (*registry.Result[[]types.Inherent], error) {
	return registry.InvokeAs[[]types.Inherent](ctx, s.gateway, "getInherentsByBlockNumber", opts, blockNumber)
}

// GetInherentsByBatchNumber 批次内的内生交易，仅主链
func (s *Service) GetInherentsByBatchNumber(ctx context.Context, batch types.BatchIndex, opts ...registry.Option) (*registry.Result[[]types.Inherent], error) {
	return registry.InvokeAs[[]types.Inherent](ctx, s.gateway, "getInherentsByBatchNumber", opts, batch)
}

// GetAccountBy 按地址查询账户
func (s *Service) GetAccountBy(ctx context.Context, address types.Address, opts ...registry.Option) (*registry.Result[types.Account], error) {
	return registry.InvokeAs[types.Account](ctx, s.gateway, "getAccountByAddress", opts, address)
}

// GetActiveValidators 当前活跃验证者
func (s *Service) GetActiveValidators(ctx context.Context, opts ...registry.Option) (*registry.Result[[]types.Validator], error) {
	return registry.InvokeAs[[]types.Validator](ctx, s.gateway, "getActiveValidators", opts)
}

// GetCurrentSlashedSlots 当前批次被惩罚的槽位
func (s *Service) GetCurrentSlashedSlots(ctx context.Context, opts ...registry.Option) (*registry.Result[types.SlashedSlots], error) {
	return registry.InvokeAs[types.SlashedSlots](ctx, s.gateway, "getCurrentSlashedSlots", opts)
}

// GetPreviousSlashedSlots 上一批次被惩罚的槽位
func (s *Service) GetPreviousSlashedSlots(ctx context.Context, opts ...registry.Option) (*registry.Result[types.SlashedSlots], error) {
	return registry.InvokeAs[types.SlashedSlots](ctx, s.gateway, "getPreviousSlashedSlots", opts)
}

// GetParkedValidators 当前被暂停的验证者
func (s *Service) GetParkedValidators(ctx context.Context, opts ...registry.Option) (*registry.Result[types.ParkedValidators], error) {
	return registry.InvokeAs[types.ParkedValidators](ctx, s.gateway, "getParkedValidators", opts)
}

// GetValidatorBy 按地址查询验证者，includeStakers 时附带委托给它的质押者
func (s *Service) GetValidatorBy(ctx context.Context, address types.Address, includeStakers bool, opts ...registry.Option) (*registry.Result[types.Validator], error) {
	return registry.InvokeAs[types.Validator](ctx, s.gateway, "getValidatorByAddress", opts, address, includeStakers)
}

// GetStakerByAddress 按地址查询质押者
func (s *Service) GetStakerByAddress(ctx context.Context, address types.Address, opts ...registry.Option) (*registry.Result[types.Staker], error) {
	return registry.InvokeAs[types.Staker](ctx, s.gateway, "getStakerByAddress", opts, address)
}

// BlockFilter 区块订阅的内容粒度
type BlockFilter int

const (
	// BlockFull 包含交易的完整区块
	BlockFull BlockFilter = iota
	// BlockPartial 不含交易的区块
	BlockPartial
)

// SubscribeForBlocks 订阅新区块
func (s *Service) SubscribeForBlocks(ctx context.Context, filter BlockFilter, stream transport.StreamOptions, opts ...registry.Option) (*registry.Stream[types.Block], error) {
	return registry.Subscribe[types.Block](ctx, s.gateway, "subscribeForHeadBlock", stream, opts, filter == BlockFull)
}

// SubscribeForBlockHashes 订阅新区块哈希
func (s *Service) SubscribeForBlockHashes(ctx context.Context, stream transport.StreamOptions, opts ...registry.Option) (*registry.Stream[types.Hash], error) {
	return registry.Subscribe[types.Hash](ctx, s.gateway, "subscribeForHeadBlockHash", stream, opts)
}

// SubscribeForValidatorElectionByAddress 订阅指定验证者在选举区块中的信息
func (s *Service) SubscribeForValidatorElectionByAddress(ctx context.Context, address types.Address, stream transport.StreamOptions, opts ...registry.Option) (*registry.Stream[types.Validator], error) {
	return registry.Subscribe[types.Validator](ctx, s.gateway, "subscribeForValidatorElectionByAddress", stream, opts, address)
}

// SubscribeForLogsByAddressesAndTypes 订阅日志
// addresses 或 logTypes 为空表示不按该维度过滤
func (s *Service) SubscribeForLogsByAddressesAndTypes(ctx context.Context, addresses []types.Address, logTypes []types.LogType, stream transport.StreamOptions, opts ...registry.Option) (*registry.Stream[types.BlockLog], error) {
	if addresses == nil {
		addresses = []types.Address{}
	}
	if logTypes == nil {
		logTypes = []types.LogType{}
	}
	return registry.Subscribe[types.BlockLog](ctx, s.gateway, "subscribeForLogsByAddressesAndTypes", stream, opts, addresses, logTypes)
}

func optional[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
