package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weisyn/albatross-rpc/client"
)

var peersList bool

// peersCmd 对等节点信息
var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "查询对等节点",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *client.Client, _ *zap.Logger) error {
			net := c.Network()
			id, err := net.GetPeerID(ctx)
			if err != nil {
				return err
			}
			if err := id.Err(); err != nil {
				return err
			}
			count, err := net.GetPeerCount(ctx)
			if err != nil {
				return err
			}
			info := map[string]any{"peer_id": id.Data, "peer_count": count.Data}

			if peersList {
				list, err := net.GetPeerList(ctx)
				if err != nil {
					return err
				}
				info["peers"] = list.Data
			}
			return formatter.Print(info)
		})
	},
}

func init() {
	peersCmd.Flags().BoolVar(&peersList, "list", false, "列出所有对等节点")
}
