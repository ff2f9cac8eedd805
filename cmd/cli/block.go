package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weisyn/albatross-rpc/client"
	"github.com/weisyn/albatross-rpc/client/core/blockchain"
	"github.com/weisyn/albatross-rpc/client/core/registry"
)

var blockFullTx bool // 是否包含完整交易

// blockCmd 区块相关命令
var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "查询区块信息",
	Long:  "查询当前高度、最新区块，或按高度/哈希查询区块",
}

// blockCurrentCmd 当前高度、批次与纪元
var blockCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "当前区块高度",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			bc := c.Blockchain()
			number, err := bc.GetBlockNumber(ctx)
			if err != nil {
				return err
			}
			if err := number.Err(); err != nil {
				return err
			}
			batch, err := bc.GetBatchNumber(ctx)
			if err != nil {
				return err
			}
			epoch, err := bc.GetEpochNumber(ctx)
			if err != nil {
				return err
			}
			return formatter.Print(map[string]any{
				"block": number.Data,
				"batch": batch.Data,
				"epoch": epoch.Data,
			})
		})
	},
}

// blockLatestCmd 最新区块
var blockLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "最新区块",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Blockchain().GetLatestBlock(ctx, blockFullTx)
			return printResult(res, err)
		})
	},
}

// blockGetCmd 按高度或哈希获取区块
var blockGetCmd = &cobra.Command{
	Use:   "get <number|hash>",
	Short: "获取区块",
	Long:  "根据高度或哈希获取区块信息",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := blockchain.BlockQuery{IncludeTransactions: blockFullTx}
		if n, err := strconv.ParseUint(args[0], 10, 32); err == nil {
			number := uint32(n)
			q.Number = &number
		} else {
			q.Hash = args[0]
		}

		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Blockchain().GetBlockBy(ctx, q)
			return printResult(res, err)
		})
	},
}

func init() {
	blockCmd.AddCommand(blockCurrentCmd, blockLatestCmd, blockGetCmd)
	blockCmd.PersistentFlags().BoolVar(&blockFullTx, "full-tx", false, "包含完整交易信息")
}

// printResult 输出类型化结果，节点返回的错误作为命令错误
func printResult[T any](res *registry.Result[T], err error) error {
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}
	if res.Metadata != nil {
		return formatter.Print(map[string]any{"data": res.Data, "metadata": res.Metadata})
	}
	return formatter.Print(res.Data)
}
