package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weisyn/albatross-rpc/client"
	"github.com/weisyn/albatross-rpc/client/core/registry"
	"github.com/weisyn/albatross-rpc/client/core/transport"
)

var (
	subscribeOnce     bool
	subscribeMetadata bool
)

// subscribeCmd 订阅并逐行输出通知
var subscribeCmd = &cobra.Command{
	Use:   "subscribe <method> [param...]",
	Short: "订阅节点推送",
	Long: `通过 WebSocket 订阅节点推送，每条通知输出一行，Ctrl-C 结束。
  albatross subscribe subscribeForHeadBlock false
  albatross subscribe subscribeForHeadBlockHash --once`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildSubscriptionRequest(args[0], parseParams(args[1:]), subscribeMetadata)
		if err != nil {
			return err
		}
		stream := transport.StreamOptions{Once: subscribeOnce}

		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, logger *zap.Logger) error {
			sub, err := c.Subscribe(ctx, req, stream)
			if err != nil {
				return err
			}
			defer sub.Close()

			if err := sub.Next(func(n transport.StreamNotification) {
				if n.Error != nil {
					formatter.PrintError(n.Error)
					return
				}
				if err := formatter.Print(n.Data); err != nil {
					logger.Warn("print notification", zap.Error(err))
				}
			}); err != nil {
				return err
			}

			select {
			case <-sub.Done():
			case <-ctx.Done():
			}
			if id, ok := sub.SubscriptionID(); ok {
				logger.Debug("subscription ended", zap.Int64("subscription_id", id))
			}
			return nil
		})
	},
}

func init() {
	subscribeCmd.Flags().BoolVar(&subscribeOnce, "once", false, "收到第一条通知后退出")
	subscribeCmd.Flags().BoolVar(&subscribeMetadata, "metadata", false, "通知附带链状态元数据")
}

// buildSubscriptionRequest 已登记的方法必须是订阅方法
func buildSubscriptionRequest(method string, params []any, withMetadata bool) (transport.SubscriptionRequest, error) {
	m, err := registry.Lookup(method)
	switch {
	case err == nil:
		if m.Kind != registry.KindSubscription {
			return transport.SubscriptionRequest{}, fmt.Errorf("%s 不是订阅方法，请使用 albatross call", method)
		}
		return m.SubscriptionRequest(withMetadata, params...)
	case errors.Is(err, registry.ErrUnknownMethod):
		return transport.SubscriptionRequest{Method: method, Params: params, WithMetadata: withMetadata}, nil
	default:
		return transport.SubscriptionRequest{}, err
	}
}
