package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weisyn/albatross-rpc/client"
)

// chainCmd 链相关命令
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "查询链状态",
}

// chainInfoCmd 共识状态与当前位置
var chainInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "查询共识状态与当前高度",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			established, err := c.Consensus().IsConsensusEstablished(ctx)
			if err != nil {
				return err
			}
			if err := established.Err(); err != nil {
				return err
			}
			number, err := c.Blockchain().GetBlockNumber(ctx)
			if err != nil {
				return err
			}
			if err := number.Err(); err != nil {
				return err
			}
			epoch, err := c.Policy().GetEpochAt(ctx, number.Data, false)
			if err != nil {
				return err
			}
			batch, err := c.Policy().GetBatchAt(ctx, number.Data, false)
			if err != nil {
				return err
			}
			return formatter.Print(map[string]any{
				"consensus_established": established.Data,
				"block":                 number.Data,
				"epoch":                 epoch.Data,
				"batch":                 batch.Data,
			})
		})
	},
}

// chainPolicyCmd 共识参数
var chainPolicyCmd = &cobra.Command{
	Use:   "policy",
	Short: "查询共识参数",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Policy().GetPolicyConstants(ctx)
			return printResult(res, err)
		})
	},
}

// chainValidatorsCmd 活跃验证者
var chainValidatorsCmd = &cobra.Command{
	Use:   "validators",
	Short: "列出活跃验证者",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Blockchain().GetActiveValidators(ctx)
			return printResult(res, err)
		})
	},
}

func init() {
	chainCmd.AddCommand(chainInfoCmd, chainPolicyCmd, chainValidatorsCmd)
}
