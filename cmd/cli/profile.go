package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/albatross-rpc/client/core/config"
)

var profileCreateURL string

// profileCmd Profile管理命令
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile管理",
	Long:  "管理节点连接Profile，支持多节点切换",
}

// profileListCmd 列出所有profiles
var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := make([]map[string]any, 0)
		for _, name := range profileMgr.ListProfiles() {
			profile, err := profileMgr.GetProfile(name)
			if err != nil {
				continue
			}
			rows = append(rows, map[string]any{
				"name":     name,
				"node_url": profile.NodeURL,
				"current":  name == profileMgr.CurrentName(),
			})
		}
		return formatter.Print(rows)
	},
}

// profileShowCmd 显示profile详情，凭据打码
var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "显示profile详情",
	Long:  "显示指定profile的配置(不指定则显示当前profile)，密码与 Secret 打码",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			profile *config.Profile
			err     error
		)
		if len(args) > 0 {
			profile, err = profileMgr.GetProfile(args[0])
		} else {
			profile, err = activeProfile()
		}
		if err != nil {
			return err
		}
		return formatter.Print(profile.Redacted())
	},
}

// profileUseCmd 切换profile
var profileUseCmd = &cobra.Command{
	Use:     "use <name>",
	Aliases: []string{"switch"},
	Short:   "切换当前profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := profileMgr.SwitchProfile(args[0]); err != nil {
			return err
		}
		formatter.PrintSuccess(fmt.Sprintf("已切换到 profile '%s'", args[0]))
		return nil
	},
}

// profileSetCmd 修改profile字段
var profileSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "修改profile字段",
	Long: `修改 --profile 指定的或当前的 profile。
可用字段: url, username, password, secret, timeout, rate_limit, rate_burst, log_level, log_file`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := activeProfile()
		if err != nil {
			return err
		}
		updated := *profile
		if err := updated.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := profileMgr.SaveProfile(&updated); err != nil {
			return err
		}
		formatter.PrintSuccess(fmt.Sprintf("profile '%s' 已更新", updated.Name))
		return nil
	},
}

// profileCreateCmd 创建新profile
var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "创建新profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if _, err := profileMgr.GetProfile(name); err == nil {
			return fmt.Errorf("profile '%s' 已存在", name)
		}
		profile := &config.Profile{Name: name, NodeURL: profileCreateURL}
		if err := profile.Set("timeout", "10s"); err != nil {
			return err
		}
		if err := profileMgr.SaveProfile(profile); err != nil {
			return fmt.Errorf("保存 profile 失败: %w", err)
		}
		formatter.PrintSuccess(fmt.Sprintf("Profile '%s' 创建成功", name))
		return nil
	},
}

// profileDeleteCmd 删除profile
var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "删除profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := profileMgr.DeleteProfile(args[0]); err != nil {
			return err
		}
		formatter.PrintSuccess(fmt.Sprintf("Profile '%s' 已删除", args[0]))
		return nil
	},
}

func init() {
	profileCreateCmd.Flags().StringVar(&profileCreateURL, "node-url", "http://127.0.0.1:8648", "节点 HTTP 地址")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileUseCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileDeleteCmd)
}
