package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weisyn/albatross-rpc/client"
	"github.com/weisyn/albatross-rpc/client/core/wallet"
)

var (
	walletPassphrase  bool
	walletUnlockFor   time.Duration
	walletSignHex     bool
	walletSignAddress string
	walletVerifyKey   string
	walletVerifySig   string
)

// walletCmd 节点托管钱包命令
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "节点托管钱包",
	Long:  "管理保存在节点上的账户：列出、创建、导入、解锁、签名",
}

// walletListCmd 列出账户
var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出节点上的账户",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Wallet().ListAccounts(ctx)
			return printResult(res, err)
		})
	},
}

// walletCreateCmd 创建账户
var walletCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "在节点上创建账户",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := maybePassphrase()
		if err != nil {
			return err
		}
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Wallet().CreateAccount(ctx, passphrase)
			return printResult(res, err)
		})
	},
}

// walletImportCmd 导入私钥
var walletImportCmd = &cobra.Command{
	Use:   "import <private-key-hex>",
	Short: "导入原始私钥",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := maybePassphrase()
		if err != nil {
			return err
		}
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Wallet().ImportRawKey(ctx, args[0], passphrase)
			return printResult(res, err)
		})
	},
}

// walletUnlockCmd 解锁账户
var walletUnlockCmd = &cobra.Command{
	Use:   "unlock <address>",
	Short: "解锁账户",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := maybePassphrase()
		if err != nil {
			return err
		}
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Wallet().UnlockAccount(ctx, args[0], passphrase, walletUnlockFor)
			return printResult(res, err)
		})
	},
}

// walletLockCmd 锁定账户
var walletLockCmd = &cobra.Command{
	Use:   "lock <address>",
	Short: "锁定账户",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Wallet().LockAccount(ctx, args[0])
			if err != nil {
				return err
			}
			if err := res.Err(); err != nil {
				return err
			}
			formatter.PrintSuccess(fmt.Sprintf("账户 %s 已锁定", args[0]))
			return nil
		})
	},
}

// walletSignCmd 签名消息
var walletSignCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "用节点上的账户签名消息",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := maybePassphrase()
		if err != nil {
			return err
		}
		req := wallet.SignRequest{Message: args[0], Address: walletSignAddress, Passphrase: passphrase, IsHex: walletSignHex}
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Wallet().Sign(ctx, req)
			return printResult(res, err)
		})
	},
}

// walletVerifyCmd 验证签名
var walletVerifyCmd = &cobra.Command{
	Use:   "verify <message>",
	Short: "验证签名",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := wallet.VerifyRequest{Message: args[0], PublicKey: walletVerifyKey, Signature: walletVerifySig, IsHex: walletSignHex}
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			res, err := c.Wallet().VerifySignature(ctx, req)
			return printResult(res, err)
		})
	},
}

// maybePassphrase --passphrase 时从终端读取账户口令
func maybePassphrase() (string, error) {
	if !walletPassphrase {
		return "", nil
	}
	return promptPassword("账户口令")
}

func init() {
	walletCmd.PersistentFlags().BoolVar(&walletPassphrase, "passphrase", false, "从终端读取账户口令")
	walletUnlockCmd.Flags().DurationVar(&walletUnlockFor, "duration", 0, "解锁时长，0 由节点决定")
	walletSignCmd.Flags().StringVar(&walletSignAddress, "address", "", "签名账户地址")
	walletSignCmd.Flags().BoolVar(&walletSignHex, "hex", false, "消息为十六进制")
	walletVerifyCmd.Flags().StringVar(&walletVerifyKey, "public-key", "", "公钥")
	walletVerifyCmd.Flags().StringVar(&walletVerifySig, "signature", "", "签名")
	walletVerifyCmd.Flags().BoolVar(&walletSignHex, "hex", false, "消息为十六进制")
	_ = walletSignCmd.MarkFlagRequired("address")
	_ = walletVerifyCmd.MarkFlagRequired("public-key")
	_ = walletVerifyCmd.MarkFlagRequired("signature")

	walletCmd.AddCommand(walletListCmd, walletCreateCmd, walletImportCmd, walletUnlockCmd, walletLockCmd, walletSignCmd, walletVerifyCmd)
	rootCmd.AddCommand(walletCmd)
}
