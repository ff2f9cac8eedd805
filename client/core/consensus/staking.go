package consensus

import (
	"context"

	"github.com/weisyn/albatross-rpc/client/core/registry"
	"github.com/weisyn/albatross-rpc/client/core/types"
)

// NewStaker 创建质押者
type NewStaker struct {
	SenderWallet types.Address
	Staker       types.Address
	Delegation   types.Address
	Value        types.Coin
	TxCommon
}

func (p NewStaker) args() []any {
	return []any{p.SenderWallet, p.Staker, p.Delegation, p.Value, p.Fee, p.ValidityStartHeight}
}

// CreateNewStakerTransaction 构建质押者创建交易
func (s *Service) CreateNewStakerTransaction(ctx context.Context, p NewStaker, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "NewStakerTransaction", opts, p.args()...)
}

// SendNewStakerTransaction 发送质押者创建交易
func (s *Service) SendNewStakerTransaction(ctx context.Context, p NewStaker, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "NewStakerTransaction", opts, p.args()...)
}

// Stake 追加质押
type Stake struct {
	SenderWallet types.Address
	Staker       types.Address
	Value        types.Coin
	TxCommon
}

func (p Stake) args() []any {
	return []any{p.SenderWallet, p.Staker, p.Value, p.Fee, p.ValidityStartHeight}
}

// CreateStakeTransaction 构建追加质押交易
func (s *Service) CreateStakeTransaction(ctx context.Context, p Stake, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "StakeTransaction", opts, p.args()...)
}

// SendStakeTransaction 发送追加质押交易
func (s *Service) SendStakeTransaction(ctx context.Context, p Stake, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "StakeTransaction", opts, p.args()...)
}

// UpdateStaker 修改委托，NewDelegation 为 nil 表示取消委托
type UpdateStaker struct {
	SenderWallet  types.Address
	Staker        types.Address
	NewDelegation *types.Address
	TxCommon
}

func (p UpdateStaker) args() []any {
	return []any{p.SenderWallet, p.Staker, optional(p.NewDelegation), p.Fee, p.ValidityStartHeight}
}

// CreateUpdateStakerTransaction 构建委托修改交易
func (s *Service) CreateUpdateStakerTransaction(ctx context.Context, p UpdateStaker, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "UpdateStakerTransaction", opts, p.args()...)
}

// SendUpdateStakerTransaction 发送委托修改交易
func (s *Service) SendUpdateStakerTransaction(ctx context.Context, p UpdateStaker, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "UpdateStakerTransaction", opts, p.args()...)
}

// Unstake 解除质押
type Unstake struct {
	Staker    types.Address
	Recipient types.Address
	Value     types.Coin
	TxCommon
}

func (p Unstake) args() []any {
	return []any{p.Staker, p.Recipient, p.Value, p.Fee, p.ValidityStartHeight}
}

// CreateUnstakeTransaction 构建解除质押交易
func (s *Service) CreateUnstakeTransaction(ctx context.Context, p Unstake, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "UnstakeTransaction", opts, p.args()...)
}

// SendUnstakeTransaction 发送解除质押交易
func (s *Service) SendUnstakeTransaction(ctx context.Context, p Unstake, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "UnstakeTransaction", opts, p.args()...)
}

// NewValidator 注册验证者
type NewValidator struct {
	SenderWallet     types.Address
	Validator        types.Address
	SigningSecretKey string
	VotingSecretKey  string
	RewardAddress    types.Address
	SignalData       string
	TxCommon
}

func (p NewValidator) args() []any {
	return []any{p.SenderWallet, p.Validator, p.SigningSecretKey, p.VotingSecretKey, p.RewardAddress, p.SignalData, p.Fee, p.ValidityStartHeight}
}

// CreateNewValidatorTransaction 构建验证者注册交易
func (s *Service) CreateNewValidatorTransaction(ctx context.Context, p NewValidator, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "NewValidatorTransaction", opts, p.args()...)
}

// SendNewValidatorTransaction 发送验证者注册交易
func (s *Service) SendNewValidatorTransaction(ctx context.Context, p NewValidator, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "NewValidatorTransaction", opts, p.args()...)
}

// SignalDataUpdate 验证者信号数据的三态更新
//
// 节点以同一个字符串字段区分三种意图：null 表示不修改，空串表示清空，非空表示设置为该值。
// 零值为不修改。
type SignalDataUpdate struct {
	set   bool
	value string
}

// KeepSignalData 不修改信号数据
func KeepSignalData() SignalDataUpdate { return SignalDataUpdate{} }

// ClearSignalData 清空信号数据
func ClearSignalData() SignalDataUpdate { return SignalDataUpdate{set: true} }

// SetSignalData 设置信号数据，hash 为空时等同于 ClearSignalData
func SetSignalData(hash types.Hash) SignalDataUpdate {
	return SignalDataUpdate{set: true, value: hash}
}

// param 线上的参数值
func (u SignalDataUpdate) param() any {
	if !u.set {
		return nil
	}
	return u.value
}

// UpdateValidator 修改验证者
//
// NewSigningSecretKey、NewVotingSecretKey、NewRewardAddress 为 nil 时不修改；
// NewSignalData 使用三态编码，见 SignalDataUpdate。
type UpdateValidator struct {
	SenderWallet        types.Address
	Validator           types.Address
	NewSigningSecretKey *string
	NewVotingSecretKey  *string
	NewRewardAddress    *types.Address
	NewSignalData       SignalDataUpdate
	TxCommon
}

func (p UpdateValidator) args() []any {
	return []any{
		p.SenderWallet,
		p.Validator,
		optional(p.NewSigningSecretKey),
		optional(p.NewVotingSecretKey),
		optional(p.NewRewardAddress),
		p.NewSignalData.param(),
		p.Fee,
		p.ValidityStartHeight,
	}
}

// CreateUpdateValidatorTransaction 构建验证者修改交易
func (s *Service) CreateUpdateValidatorTransaction(ctx context.Context, p UpdateValidator, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "UpdateValidatorTransaction", opts, p.args()...)
}

// SendUpdateValidatorTransaction 发送验证者修改交易
func (s *Service) SendUpdateValidatorTransaction(ctx context.Context, p UpdateValidator, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "UpdateValidatorTransaction", opts, p.args()...)
}

// ValidatorState 停用、重新激活、解除暂停共用的参数
type ValidatorState struct {
	SenderWallet     types.Address
	Validator        types.Address
	SigningSecretKey string
	TxCommon
}

func (p ValidatorState) args() []any {
	return []any{p.SenderWallet, p.Validator, p.SigningSecretKey, p.Fee, p.ValidityStartHeight}
}

// CreateInactivateValidatorTransaction 构建验证者停用交易
func (s *Service) CreateInactivateValidatorTransaction(ctx context.Context, p ValidatorState, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "InactivateValidatorTransaction", opts, p.args()...)
}

// SendInactivateValidatorTransaction 发送验证者停用交易
func (s *Service) SendInactivateValidatorTransaction(ctx context.Context, p ValidatorState, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "InactivateValidatorTransaction", opts, p.args()...)
}

// CreateReactivateValidatorTransaction 构建验证者重新激活交易
func (s *Service) CreateReactivateValidatorTransaction(ctx context.Context, p ValidatorState, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "ReactivateValidatorTransaction", opts, p.args()...)
}

// SendReactivateValidatorTransaction 发送验证者重新激活交易
func (s *Service) SendReactivateValidatorTransaction(ctx context.Context, p ValidatorState, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "ReactivateValidatorTransaction", opts, p.args()...)
}

// CreateUnparkValidatorTransaction 构建验证者解除暂停交易
func (s *Service) CreateUnparkValidatorTransaction(ctx context.Context, p ValidatorState, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "UnparkValidatorTransaction", opts, p.args()...)
}

// SendUnparkValidatorTransaction 发送验证者解除暂停交易
func (s *Service) SendUnparkValidatorTransaction(ctx context.Context, p ValidatorState, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "UnparkValidatorTransaction", opts, p.args()...)
}

// DeleteValidator 注销验证者，Value 为退还的押金
type DeleteValidator struct {
	SenderWallet types.Address
	Validator    types.Address
	Value        types.Coin
	TxCommon
}

// 节点要求 fee 在 value 之前
func (p DeleteValidator) args() []any {
	return []any{p.SenderWallet, p.Validator, p.Fee, p.Value, p.ValidityStartHeight}
}

// CreateDeleteValidatorTransaction 构建验证者注销交易
func (s *Service) CreateDeleteValidatorTransaction(ctx context.Context, p DeleteValidator, opts ...registry.Option) (*registry.Result[types.RawTransaction], error) {
	return s.tx(ctx, create, "DeleteValidatorTransaction", opts, p.args()...)
}

// SendDeleteValidatorTransaction 发送验证者注销交易
func (s *Service) SendDeleteValidatorTransaction(ctx context.Context, p DeleteValidator, opts ...registry.Option) (*registry.Result[types.Hash], error) {
	return s.tx(ctx, send, "DeleteValidatorTransaction", opts, p.args()...)
}

func optional[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
