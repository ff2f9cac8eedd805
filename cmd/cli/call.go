package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weisyn/albatross-rpc/client"
	"github.com/weisyn/albatross-rpc/client/core/registry"
	"github.com/weisyn/albatross-rpc/client/core/transport"
	"github.com/weisyn/albatross-rpc/client/core/types"
)

var (
	callMetadata bool
	callStrict   bool
)

// callCmd 直接调用任意 RPC 方法
var callCmd = &cobra.Command{
	Use:   "call <method> [param...]",
	Short: "调用 RPC 方法",
	Long: `按位置传参调用节点的 JSON-RPC 方法。

每个参数先按 JSON 解析，解析失败时作为字符串传递：
  albatross call getBlockByNumber 100 true
  albatross call getAccountByAddress "NQ07 0000 ..."
已登记的方法会校验参数个数并为缺省的可选参数补 null。`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildCallRequest(args[0], parseParams(args[1:]), callMetadata, callStrict)
		if err != nil {
			return err
		}
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, logger *zap.Logger) error {
			res, err := c.Call(ctx, req, transport.CallOptions{})
			if err != nil {
				return err
			}
			logger.Debug("call finished", zap.String("method", req.Method), zap.Uint64("id", res.Context.Body.ID))
			if res.Error != nil {
				return res.Error
			}
			return formatter.Print(res.Data)
		})
	},
}

func init() {
	callCmd.Flags().BoolVar(&callMetadata, "metadata", false, "请求附带链状态元数据")
	callCmd.Flags().BoolVar(&callStrict, "strict", false, "拒绝未登记的方法")
}

// parseParams 命令行参数转为位置参数，合法 JSON 原样传递
func parseParams(args []string) []any {
	params := make([]any, 0, len(args))
	for _, arg := range args {
		if json.Valid([]byte(arg)) {
			params = append(params, json.RawMessage(arg))
			continue
		}
		params = append(params, arg)
	}
	return params
}

// buildCallRequest 已登记的方法按方法表绑定参数，未登记的方法在非严格模式下原样发送
func buildCallRequest(method string, params []any, withMetadata, strict bool) (transport.CallRequest, error) {
	m, err := registry.Lookup(method)
	switch {
	case err == nil:
		if m.Kind == registry.KindSubscription {
			return transport.CallRequest{}, fmt.Errorf("%s 是订阅方法，请使用 albatross subscribe", method)
		}
		return m.CallRequest(withMetadata, params...)
	case errors.Is(err, registry.ErrUnknownMethod) && !strict:
		return transport.CallRequest{Method: method, Params: params, WithMetadata: withMetadata}, nil
	default:
		return transport.CallRequest{}, err
	}
}

// parseCoin 解析 Luna 金额
func parseCoin(s string) (types.Coin, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}
