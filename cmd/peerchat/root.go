package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "peerchat",
		Short: "Peer chat tracker and nodes over a hand-written HTTP/1.1 engine.",
		Long: `peerchat runs either the tracker, which hosts the peer directory and relays
messages, or a node, which registers with the tracker, serves its own web UI
and receives direct messages from other peers.`,
		SilenceUsage: true,
	}

	var configFile string
	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file; explicit flags take precedence")

	root.AddCommand(newTrackerCmd(&configFile), newNodeCmd(&configFile))

	return root
}
