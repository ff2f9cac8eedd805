package consensus

import (
	"context"

	"github.com/weisyn/albatross-rpc/client/core/registry"
	"github.com/weisyn/albatross-rpc/client/core/transport"
	"github.com/weisyn/albatross-rpc/client/core/types"
)

// Service 共识与交易构建服务
//
// Create* 方法返回序列化后的交易，Send* 方法由节点签名并广播，返回交易哈希。
// 两组方法的参数完全相同，由 mode 区分。
type Service struct {
	caller transport.Caller
}

// NewService 创建共识服务
func NewService(c transport.Caller) *Service {
	return &Service{caller: c}
}

// mode 构建或发送
type mode string

const (
	create mode = "create"
	send   mode = "send"
)

func (s *Service) tx(ctx context.Context, m mode, name string, opts []registry.Option, args ...any) (*registry.Result[string], error) {
	return registry.InvokeAs[string](ctx, s.caller, string(m)+name, opts, args...)
}

// IsConsensusEstablished 节点是否已达成共识
func (s *Service) IsConsensusEstablished(ctx context.Context, opts ...registry.Option) (*registry.Result[bool], error) {
	return registry.InvokeAs[bool](ctx, s.caller, "isConsensusEstablished", opts)
}

// GetRawTransactionInfo 解析序列化交易
func (s *Service) GetRawTransactionInfo(ctx context.Context, raw types.RawTransaction, opts ...registry.Option) (*registry.Result[types.Transaction], error) {
	return registry.InvokeAs[types.Transaction](ctx, s.caller, "getRawTransactionInfo", opts, raw)
}

// TxCommon 交易公共字段
type TxCommon struct {
	Fee                 types.Coin
	ValidityStartHeight types.ValidityStartHeight
}

// BasicTransaction 普通转账，Data 非空时使用带数据的变体
type BasicTransaction struct {
	Wallet    types.Address
	Recipient types.Address
	Data      string
	Value     types.Coin
	TxCommon
}

func (s *Service) basic(ctx context.Context, m mode, p BasicTransaction, opts []registry.Option) (*registry.Result[string], error) {
	if p.Data != "" {
		return s.tx(ctx, m, "BasicTransactionWithData", opts, p.Wallet, p.Recipient, p.Data, p.Value, p.Fee, p.ValidityStartHeight)
	}
	return s.tx(ctx, m, "BasicTransaction", opts, p.Wallet, p.Recipient, p.Value, p.Fee, p.ValidityStartHeight)
}

// CreateTransaction 构建普通转账
func (s *Service) CreateTransaction(ctx context.Context, p BasicTransaction, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.basic(ctx, create, p, opts)
}

// SendTransaction 发送普通转账
func (s *Service) SendTransaction(ctx context.Context, p BasicTransaction, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.basic(ctx, send, p, opts)
}

// NewVesting 创建归属合约
type NewVesting struct {
	Wallet    types.Address
	Owner     types.Address
	StartTime uint64
	TimeStep  uint64
	NumSteps  uint32
	Value     types.Coin
	TxCommon
}

func (p NewVesting) args() []any {
	return []any{p.Wallet, p.Owner, p.StartTime, p.TimeStep, p.NumSteps, p.Value, p.Fee, p.ValidityStartHeight}
}

// CreateNewVestingTransaction 构建归属合约创建交易
func (s *Service) CreateNewVestingTransaction(ctx context.Context, p NewVesting, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "NewVestingTransaction", opts, p.args()...)
}

// SendNewVestingTransaction 发送归属合约创建交易
func (s *Service) SendNewVestingTransaction(ctx context.Context, p NewVesting, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "NewVestingTransaction", opts, p.args()...)
}

// ContractRedeem 从合约（归属或 HTLC 超时）中取回资金
type ContractRedeem struct {
	Wallet          types.Address
	ContractAddress types.Address
	Recipient       types.Address
	Value           types.Coin
	TxCommon
}

func (p ContractRedeem) args() []any {
	return []any{p.Wallet, p.ContractAddress, p.Recipient, p.Value, p.Fee, p.ValidityStartHeight}
}

// CreateRedeemVestingTransaction 构建归属合约取回交易
func (s *Service) CreateRedeemVestingTransaction(ctx context.Context, p ContractRedeem, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "RedeemVestingTransaction", opts, p.args()...)
}

// SendRedeemVestingTransaction 发送归属合约取回交易
func (s *Service) SendRedeemVestingTransaction(ctx context.Context, p ContractRedeem, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "RedeemVestingTransaction", opts, p.args()...)
}

// NewHTLC 创建哈希时间锁合约
type NewHTLC struct {
	Wallet        types.Address
	HTLCSender    types.Address
	HTLCRecipient types.Address
	HashRoot      types.Hash
	HashCount     uint8
	HashAlgorithm types.HashAlgorithm
	Timeout       uint64
	Value         types.Coin
	TxCommon
}

func (p NewHTLC) args() []any {
	return []any{p.Wallet, p.HTLCSender, p.HTLCRecipient, p.HashRoot, p.HashCount, p.HashAlgorithm, p.Timeout, p.Value, p.Fee, p.ValidityStartHeight}
}

// CreateNewHtlcTransaction 构建 HTLC 创建交易
func (s *Service) CreateNewHtlcTransaction(ctx context.Context, p NewHTLC, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "NewHtlcTransaction", opts, p.args()...)
}

// SendNewHtlcTransaction 发送 HTLC 创建交易
func (s *Service) SendNewHtlcTransaction(ctx context.Context, p NewHTLC, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "NewHtlcTransaction", opts, p.args()...)
}

// RegularHTLCRedeem 以原像取回 HTLC
type RegularHTLCRedeem struct {
	Wallet          types.Address
	ContractAddress types.Address
	Recipient       types.Address
	PreImage        string
	HashRoot        types.Hash
	HashCount       uint8
	HashAlgorithm   types.HashAlgorithm
	Value           types.Coin
	TxCommon
}

func (p RegularHTLCRedeem) args() []any {
	return []any{p.Wallet, p.ContractAddress, p.Recipient, p.PreImage, p.HashRoot, p.HashCount, p.HashAlgorithm, p.Value, p.Fee, p.ValidityStartHeight}
}

// CreateRedeemRegularHtlcTransaction 构建 HTLC 常规取回交易
func (s *Service) CreateRedeemRegularHtlcTransaction(ctx context.Context, p RegularHTLCRedeem, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "RedeemRegularHtlcTransaction", opts, p.args()...)
}

// SendRedeemRegularHtlcTransaction 发送 HTLC 常规取回交易
func (s *Service) SendRedeemRegularHtlcTransaction(ctx context.Context, p RegularHTLCRedeem, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "RedeemRegularHtlcTransaction", opts, p.args()...)
}

// CreateRedeemTimeoutHtlcTransaction 构建 HTLC 超时取回交易
func (s *Service) CreateRedeemTimeoutHtlcTransaction(ctx context.Context, p ContractRedeem, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "RedeemTimeoutHtlcTransaction", opts, p.args()...)
}

// SendRedeemTimeoutHtlcTransaction 发送 HTLC 超时取回交易
func (s *Service) SendRedeemTimeoutHtlcTransaction(ctx context.Context, p ContractRedeem, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "RedeemTimeoutHtlcTransaction", opts, p.args()...)
}

// EarlyHTLCRedeem 双方签名提前取回 HTLC
type EarlyHTLCRedeem struct {
	Wallet                 types.Address
	HTLCAddress            types.Address
	Recipient              types.Address
	HTLCSenderSignature    string
	HTLCRecipientSignature string
	Value                  types.Coin
	TxCommon
}

func (p EarlyHTLCRedeem) args() []any {
	return []any{p.Wallet, p.HTLCAddress, p.Recipient, p.HTLCSenderSignature, p.HTLCRecipientSignature, p.Value, p.Fee, p.ValidityStartHeight}
}

// CreateRedeemEarlyHtlcTransaction 构建 HTLC 提前取回交易
func (s *Service) CreateRedeemEarlyHtlcTransaction(ctx context.Context, p EarlyHTLCRedeem, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "RedeemEarlyHtlcTransaction", opts, p.args()...)
}

// SendRedeemEarlyHtlcTransaction 发送 HTLC 提前取回交易
func (s *Service) SendRedeemEarlyHtlcTransaction(ctx context.Context, p EarlyHTLCRedeem, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "RedeemEarlyHtlcTransaction", opts, p.args()...)
}

// EarlyHTLCSign 为提前取回生成一方签名
type EarlyHTLCSign struct {
	Wallet      types.Address
	HTLCAddress types.Address
	Recipient   types.Address
	Value       types.Coin
	TxCommon
}

// SignRedeemEarlyHtlcTransaction 生成提前取回所需的签名
func (s *Service) SignRedeemEarlyHtlcTransaction(ctx context.Context, p EarlyHTLCSign, opts ...registry.Option) (*registry.Result[string], error) {
	return registry.InvokeAs[string](ctx, s.caller, "signRedeemEarlyHtlcTransaction", opts,
		p.Wallet, p.HTLCAddress, p.Recipient, p.Value, p.Fee, p.ValidityStartHeight)
}
