package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weisyn/albatross-rpc/client"
	"github.com/weisyn/albatross-rpc/client/core/consensus"
	"github.com/weisyn/albatross-rpc/client/core/types"
)

var (
	txFee      uint64
	txData     string
	txValidity string
	txCreate   bool
)

// txCmd 交易相关命令
var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "交易查询与发送",
}

// txSendCmd 由节点钱包签名并发送转账
var txSendCmd = &cobra.Command{
	Use:   "send <from> <to> <value-luna>",
	Short: "发送转账",
	Long:  "由节点上已解锁的账户签名并发送转账；--create 只返回序列化后的交易",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := parseCoin(args[2])
		if err != nil {
			return err
		}
		p := consensus.BasicTransaction{
			Wallet:    args[0],
			Recipient: args[1],
			Data:      txData,
			Value:     value,
			TxCommon: consensus.TxCommon{
				Fee:                 txFee,
				ValidityStartHeight: types.ValidityStartHeight(txValidity),
			},
		}

		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			if txCreate {
				res, err := c.Consensus().CreateTransaction(ctx, p)
				return printResult(res, err)
			}
			res, err := c.Consensus().SendTransaction(ctx, p)
			return printResult(res, err)
		})
	},
}

// txGetCmd 按哈希查询交易
var txGetCmd = &cobra.Command{
	Use:   "get <hash>",
	Short: "按哈希查询交易",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Blockchain().GetTransactionByHash(ctx, args[0])
			return printResult(res, err)
		})
	},
}

// txDecodeCmd 解析原始交易
var txDecodeCmd = &cobra.Command{
	Use:   "decode <raw-tx-hex>",
	Short: "解析原始交易",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Consensus().GetRawTransactionInfo(ctx, args[0])
			return printResult(res, err)
		})
	},
}

func init() {
	txSendCmd.Flags().Uint64Var(&txFee, "fee", 0, "手续费 (Luna)")
	txSendCmd.Flags().StringVar(&txData, "data", "", "附加数据 (十六进制)")
	txSendCmd.Flags().StringVar(&txValidity, "validity", "+0", "生效高度：+n 相对当前高度，n 绝对高度")
	txSendCmd.Flags().BoolVar(&txCreate, "create", false, "只创建不发送")

	txCmd.AddCommand(txSendCmd, txGetCmd, txDecodeCmd)
	rootCmd.AddCommand(txCmd)
}
