package wallet

import (
	"context"
	"time"

	"github.com/weisyn/albatross-rpc/client/core/registry"
	"github.com/weisyn/albatross-rpc/client/core/transport"
	"github.com/weisyn/albatross-rpc/client/core/types"
)

// Service 节点托管钱包服务，密钥保存在节点侧
type Service struct {
	caller transport.Caller
}

// NewService 创建钱包服务
func NewService(c transport.Caller) *Service {
	return &Service{caller: c}
}

// ImportRawKey 导入原始私钥，passphrase 为空时不加密
func (s *Service) ImportRawKey(ctx context.Context, keyData, passphrase string, opts ...registry.Option) (*registry.Result[types.Address], error) {
	return registry.InvokeAs[types.Address](ctx, s.caller, "importRawKey", opts, keyData, optionalString(passphrase))
}

// IsAccountImported 账户是否已导入
func (s *Service) IsAccountImported(ctx context.Context, address types.Address, opts ...registry.Option) (*registry.Result[bool], error) {
	return registry.InvokeAs[bool](ctx, s.caller, "isAccountImported", opts, address)
}

// ListAccounts 已导入的账户地址
func (s *Service) ListAccounts(ctx context.Context, opts ...registry.Option) (*registry.Result[[]types.Address], error) {
	return registry.InvokeAs[[]types.Address](ctx, s.caller, "listAccounts", opts)
}

// LockAccount 锁定账户
func (s *Service) LockAccount(ctx context.Context, address types.Address, opts ...registry.Option) (*registry.Result[any], error) {
	return registry.InvokeAs[any](ctx, s.caller, "lockAccount", opts, address)
}

// CreateAccount 在节点上生成新账户
func (s *Service) CreateAccount(ctx context.Context, passphrase string, opts ...registry.Option) (*registry.Result[types.WalletAccount], error) {
	return registry.InvokeAs[types.WalletAccount](ctx, s.caller, "createAccount", opts, optionalString(passphrase))
}

// UnlockAccount 解锁账户，duration 为 0 时由节点决定解锁时长
func (s *Service) UnlockAccount(ctx context.Context, address types.Address, passphrase string, duration time.Duration, opts ...registry.Option) (*registry.Result[bool], error) {
	var d any
	if duration > 0 {
		d = uint64(duration / time.Millisecond)
	}
	return registry.InvokeAs[bool](ctx, s.caller, "unlockAccount", opts, address, optionalString(passphrase), d)
}

// IsAccountLocked 账户是否锁定
func (s *Service) IsAccountLocked(ctx context.Context, address types.Address, opts ...registry.Option) (*registry.Result[bool], error) {
	return registry.InvokeAs[bool](ctx, s.caller, "isAccountLocked", opts, address)
}

// SignRequest 签名参数
type SignRequest struct {
	Message    string
	Address    types.Address
	Passphrase string
	IsHex      bool
}

// Sign 用节点托管的账户签名
func (s *Service) Sign(ctx context.Context, req SignRequest, opts ...registry.Option) (*registry.Result[types.Signature], error) {
	return registry.InvokeAs[types.Signature](ctx, s.caller, "sign", opts, req.Message, req.Address, req.Passphrase, req.IsHex)
}

// VerifyRequest 验签参数
type VerifyRequest struct {
	Message   string
	PublicKey string
	Signature string
	IsHex     bool
}

// VerifySignature 验证签名
func (s *Service) VerifySignature(ctx context.Context, req VerifyRequest, opts ...registry.Option) (*registry.Result[bool], error) {
	return registry.InvokeAs[bool](ctx, s.caller, "verifySignature", opts, req.Message, req.PublicKey, req.Signature, req.IsHex)
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
