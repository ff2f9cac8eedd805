package main

import (
	"github.com/spf13/cobra"

	"github.com/weisyn/albatross-rpc/client/core/registry"
)

var methodsArea string

// methodsCmd 列出已登记的 RPC 方法
var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "列出已登记的 RPC 方法",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := make([]map[string]any, 0)
		for _, m := range registry.All() {
			if methodsArea != "" && m.Area != methodsArea {
				continue
			}
			rows = append(rows, map[string]any{
				"area":      m.Area,
				"kind":      m.Kind.String(),
				"signature": m.Signature(),
				"result":    m.Result,
			})
		}
		return formatter.Print(rows)
	},
}

func init() {
	methodsCmd.Flags().StringVar(&methodsArea, "area", "", "只列出指定区域: blockchain|consensus|mempool|network|policy|validator|wallet|zkp")
}
