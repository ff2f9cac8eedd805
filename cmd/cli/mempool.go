package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weisyn/albatross-rpc/client"
)

var (
	mempoolFullTx       bool
	mempoolHighPriority bool
)

// mempoolCmd 交易池相关命令
var mempoolCmd = &cobra.Command{
	Use:   "mempool",
	Short: "交易池查询与广播",
}

// mempoolStatusCmd 交易池统计
var mempoolStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "查询交易池统计",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			info, err := c.Mempool().Mempool(ctx)
			if err != nil {
				return err
			}
			if err := info.Err(); err != nil {
				return err
			}
			fee, err := c.Mempool().GetMinFeePerByte(ctx)
			if err != nil {
				return err
			}
			return formatter.Print(map[string]any{
				"total":            info.Data.Total,
				"buckets":          info.Data.Buckets,
				"min_fee_per_byte": fee.Data,
			})
		})
	},
}

// mempoolContentCmd 交易池内容
var mempoolContentCmd = &cobra.Command{
	Use:   "content",
	Short: "列出交易池中的交易",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Mempool().MempoolContent(ctx, mempoolFullTx)
			return printResult(res, err)
		})
	},
}

// mempoolPushCmd 广播已签名的原始交易
var mempoolPushCmd = &cobra.Command{
	Use:   "push <raw-tx-hex>",
	Short: "广播原始交易",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Mempool().PushTransaction(ctx, args[0], mempoolHighPriority)
			if err == nil && res.OK() {
				formatter.PrintSuccess("交易已提交")
			}
			return printResult(res, err)
		})
	},
}

func init() {
	mempoolCmd.AddCommand(mempoolStatusCmd, mempoolContentCmd, mempoolPushCmd)
	mempoolContentCmd.Flags().BoolVar(&mempoolFullTx, "full-tx", false, "输出完整交易而不是哈希")
	mempoolPushCmd.Flags().BoolVar(&mempoolHighPriority, "high-priority", false, "以高优先级提交")
}
