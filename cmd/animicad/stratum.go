package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/animica-network/animica/mining"
	"github.com/animica-network/animica/orchestrator"
	"github.com/animica-network/animica/pkg/config"
	"github.com/animica-network/animica/stratum"
	"github.com/animica-network/animica/submit"
)

// serverJobBroadcaster turns a freshly polled template into a Stratum job
// push, the dual-dialect analog of rpcBroadcaster's upstream notify call.
type serverJobBroadcaster struct {
	server     *stratum.Server
	shareTheta uint64
}

func (b *serverJobBroadcaster) PublishTemplate(t mining.Template) {
	b.server.PublishJob(stratum.Job{Template: t, CleanJobs: true, Difficulty: b.shareTheta})
}

func stratumCmd() *cobra.Command {
	var env string
	var listen string
	var shareTheta uint64

	cmd := &cobra.Command{
		Use:   "stratum",
		Short: "run the dual-dialect Stratum mining server in front of a node's RPC endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(env)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log := logrus.StandardLogger()
			if lvl, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
				log.SetLevel(lvl)
			}

			if listen == "" {
				listen = cfg.Stratum.Listen
			}

			server := stratum.NewServer(stratum.StructuralValidator{})
			if cfg.Stratum.MaxFrameBytes > 0 {
				server.MaxFrameBytes = cfg.Stratum.MaxFrameBytes
			}

			client := submit.NewHTTPClient(cfg.Node.RPCURL)
			provider := &rpcTemplateProvider{client: client}
			broadcaster := &serverJobBroadcaster{server: server, shareTheta: shareTheta}
			feeder := orchestrator.NewTemplateFeeder(provider, broadcaster, 0, log)

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("listen %s: %w", listen, err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			discard := make(chan mining.Template, 4)
			go func() {
				for range discard {
				}
			}()
			go feeder.Run(ctx, discard)

			log.WithField("listen", listen).Info("stratum server listening")
			if err := server.Serve(ctx, ln); err != nil && ctx.Err() == nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&env, "env", "", "config overlay to merge (cmd/config/<env>.yaml)")
	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (overrides config)")
	cmd.Flags().Uint64Var(&shareTheta, "share-theta", 50_000, "θ_share_micro pushed to connected miners")
	return cmd
}
