package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/weisyn/albatross-rpc/client"
	"github.com/weisyn/albatross-rpc/client/core/config"
	"github.com/weisyn/albatross-rpc/client/core/output"
	logconfig "github.com/weisyn/albatross-rpc/internal/config/log"
	logmodule "github.com/weisyn/albatross-rpc/internal/core/infrastructure/log"
)

// 全局标志名，同时作为 viper 键，环境变量为 ALBATROSS_<KEY>
const (
	flagProfile      = "profile"
	flagConfigDir    = "config-dir"
	flagURL          = "url"
	flagUsername     = "username"
	flagPassword     = "password"
	flagAskPassword  = "ask-password"
	flagSecret       = "secret"
	flagTimeout      = "timeout"
	flagOutput       = "output"
	flagSilent       = "silent"
	flagLogLevel     = "log-level"
	flagLogFile      = "log-file"
	flagRateLimit    = "rate-limit"
	envPrefix        = "ALBATROSS"
	defaultOutputFmt = "json"
)

var (
	settings   = viper.New()
	profileMgr *config.ProfileManager
	formatter  *output.Formatter
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "albatross",
	Short: "Albatross 节点 RPC 命令行客户端",
	Long: `albatross - Albatross 节点的 JSON-RPC / WebSocket 命令行客户端

连接参数按以下顺序覆盖：Profile < ALBATROSS_* 环境变量 < 命令行标志。
Profile 保存在 ~/.albatross/profiles/<name>.json，当前 Profile 记录在 ~/.albatross/current。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := settings.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}

		var err error
		profileMgr, err = config.NewProfileManager(settings.GetString(flagConfigDir))
		if err != nil {
			return fmt.Errorf("初始化配置: %w", err)
		}

		format, err := output.ParseFormat(settings.GetString(flagOutput))
		if err != nil {
			return err
		}
		formatter = output.NewFormatter(format, cmd.OutOrStdout())
		formatter.SetLogWriter(cmd.ErrOrStderr())
		formatter.SetSilent(settings.GetBool(flagSilent))
		return nil
	},
}

// Execute 执行根命令
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if formatter != nil {
			formatter.PrintError(err)
		} else {
			fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	settings.SetEnvPrefix(envPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()

	flags := rootCmd.PersistentFlags()
	flags.String(flagProfile, "", "使用指定的Profile (默认使用当前Profile)")
	flags.String(flagConfigDir, "", "配置目录 (默认: ~/.albatross)")
	flags.String(flagURL, "", "节点 HTTP 地址，覆盖 Profile")
	flags.String(flagUsername, "", "节点用户名 (Basic 认证)")
	flags.String(flagPassword, "", "节点密码 (Basic 认证)")
	flags.Bool(flagAskPassword, false, "从终端读取节点密码")
	flags.String(flagSecret, "", "节点 Secret (Bearer 认证)")
	flags.Duration(flagTimeout, 0, "调用超时，0 使用 Profile 设置，-1ns 不超时")
	flags.Float64(flagRateLimit, 0, "每秒最多请求数，0 使用 Profile 设置")
	flags.StringP(flagOutput, "o", defaultOutputFmt, "输出格式: json|pretty|table|text")
	flags.Bool(flagSilent, false, "静默模式 (仅输出结果)")
	flags.String(flagLogLevel, "", "日志级别: debug|info|warn|error")
	flags.String(flagLogFile, "", "日志文件路径")

	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(subscribeCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(peersCmd)
	rootCmd.AddCommand(mempoolCmd)
	rootCmd.AddCommand(methodsCmd)
	rootCmd.AddCommand(profileCmd)
}

// activeProfile --profile 指定的或当前的 Profile
func activeProfile() (*config.Profile, error) {
	if name := settings.GetString(flagProfile); name != "" {
		return profileMgr.GetProfile(name)
	}
	return profileMgr.GetCurrentProfile()
}

// resolveProfile 在 Profile 上叠加环境变量与命令行标志，返回副本
func resolveProfile() (*config.Profile, error) {
	base, err := activeProfile()
	if err != nil {
		return nil, fmt.Errorf("获取Profile: %w", err)
	}
	p := *base

	overlayString := func(key string, dst *string) {
		if settings.IsSet(key) && settings.GetString(key) != "" {
			*dst = settings.GetString(key)
		}
	}
	overlayString(flagURL, &p.NodeURL)
	overlayString(flagUsername, &p.Username)
	overlayString(flagPassword, &p.Password)
	overlayString(flagSecret, &p.Secret)
	overlayString(flagLogLevel, &p.LogLevel)
	overlayString(flagLogFile, &p.LogFile)

	if d := settings.GetDuration(flagTimeout); d != 0 {
		p.Timeout = config.Duration(d)
	}
	if rps := settings.GetFloat64(flagRateLimit); rps > 0 {
		p.RateLimit = rps
	}

	if settings.GetBool(flagAskPassword) {
		password, err := promptPassword("节点密码")
		if err != nil {
			return nil, err
		}
		p.Password = password
	}

	if p.NodeURL == "" {
		return nil, fmt.Errorf("未配置节点地址，使用 --url 或 albatross profile set url <addr>")
	}
	return &p, nil
}

// promptPassword 从终端读取密码，不回显
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--%s 需要交互式终端", flagAskPassword)
	}
	fmt.Fprint(os.Stderr, prompt+": ")
	bytePassword, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}
	return string(bytePassword), nil
}

// withClient 用 fx 组装日志与客户端，执行 fn 后按生命周期关闭
func withClient(ctx context.Context, fn func(ctx context.Context, c *client.Client, logger *zap.Logger) error) error {
	profile, err := resolveProfile()
	if err != nil {
		return err
	}

	var (
		c      *client.Client
		logger *zap.Logger
	)
	app := fx.New(
		fx.NopLogger,
		fx.Supply(profile.ClientConfig()),
		fx.Provide(func() *logconfig.Config { return profile.LogConfig() }),
		logmodule.Module(),
		client.Module(),
		fx.Populate(&c, &logger),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Stop(stopCtx); err != nil {
			logger.Warn("shutdown failed", zap.Error(err))
		}
	}()

	logger.Debug("client ready", zap.String("endpoint", c.Endpoint()), zap.String("profile", profile.Name))
	return fn(ctx, c, logger)
}
