package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/animica-network/animica/chaintypes"
	"github.com/animica-network/animica/mining"
	"github.com/animica-network/animica/orchestrator"
	"github.com/animica-network/animica/pkg/config"
	"github.com/animica-network/animica/submit"
)

// rpcTemplateWire is the over-the-wire shape of a miner.getWork result:
// the node's current header (hex-CBOR, pre-root-fixup) plus the tx/proof
// bodies BuildTemplate folds into txsRoot/proofsRoot.
type rpcTemplateWire struct {
	JobID  string   `json:"jobId"`
	Header string   `json:"header"`
	Txs    []string `json:"txs"`
	Proofs []string `json:"proofs"`
}

// rpcTemplateProvider polls a node's JSON-RPC endpoint for work, the
// orchestrator's TemplateProvider side of §4.15's feeder/scanner/submit
// pipeline.
type rpcTemplateProvider struct {
	client *submit.HTTPClient
}

func (p *rpcTemplateProvider) CurrentTemplate(ctx context.Context) (mining.Template, error) {
	raw, err := p.client.Call(ctx, "miner.getWork", nil)
	if err != nil {
		return mining.Template{}, fmt.Errorf("miner.getWork: %w", err)
	}

	var wire rpcTemplateWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return mining.Template{}, fmt.Errorf("decode getWork result: %w", err)
	}

	headerBytes, err := hex.DecodeString(wire.Header)
	if err != nil {
		return mining.Template{}, fmt.Errorf("decode header hex: %w", err)
	}
	base, err := chaintypes.HeaderFromCBOR(headerBytes)
	if err != nil {
		return mining.Template{}, fmt.Errorf("decode header cbor: %w", err)
	}

	txs := make([]chaintypes.Tx, len(wire.Txs))
	for i, s := range wire.Txs {
		b, err := hex.DecodeString(s)
		if err != nil {
			return mining.Template{}, fmt.Errorf("decode tx[%d] hex: %w", i, err)
		}
		tx, err := chaintypes.TxFromCBOR(b)
		if err != nil {
			return mining.Template{}, fmt.Errorf("decode tx[%d] cbor: %w", i, err)
		}
		txs[i] = tx
	}

	proofs := make([]chaintypes.ProofEnvelope, len(wire.Proofs))
	for i, s := range wire.Proofs {
		b, err := hex.DecodeString(s)
		if err != nil {
			return mining.Template{}, fmt.Errorf("decode proof[%d] hex: %w", i, err)
		}
		env, err := chaintypes.ProofEnvelopeFromCBOR(b)
		if err != nil {
			return mining.Template{}, fmt.Errorf("decode proof[%d] cbor: %w", i, err)
		}
		proofs[i] = env
	}

	return mining.BuildTemplate(wire.JobID, base, txs, proofs)
}

// rpcBroadcaster pushes a freshly minted template back to the node over
// the same RPC connection, so miner.notify has something to rebroadcast
// to Stratum sessions (stratum.Server.PublishJob consumes this on the
// node side, out of this process's scope).
type rpcBroadcaster struct {
	client *submit.HTTPClient
	log    *logrus.Logger
}

func (b *rpcBroadcaster) PublishTemplate(t mining.Template) {
	if _, err := b.client.Call(context.Background(), "miner.publishWork", map[string]string{"jobId": t.JobID}); err != nil {
		b.log.WithError(err).Warn("publish template")
	}
}

func mineCmd() *cobra.Command {
	var env string
	var device string
	var workers int

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "run the standalone PoIES mining loop against a node's RPC endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(env)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log := logrus.StandardLogger()
			if lvl, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
				log.SetLevel(lvl)
			}

			if device == "" {
				device = cfg.Mining.Device
			}
			if workers <= 0 {
				workers = cfg.Mining.Workers
			}
			if workers <= 0 {
				workers = 1
			}
			dev := mining.DeviceCPU
			if device == "gpu" {
				dev = mining.DeviceGPU
			}

			client := submit.NewHTTPClient(cfg.Node.RPCURL)
			submitter := submit.NewSubmitter(client)

			scanners := make([]*mining.Scanner, workers)
			for i := range scanners {
				scanners[i] = mining.NewScanner(dev, 0, 0, uint64(workers), uint64(i))
			}

			provider := &rpcTemplateProvider{client: client}
			broadcaster := &rpcBroadcaster{client: client, log: log}

			oCfg := orchestrator.DefaultConfig()
			if cfg.Mining.QueueBudget > 0 {
				oCfg.QueueCapacity = cfg.Mining.QueueBudget
			}
			oCfg.SubmitWorkers = workers
			oCfg.Worker = "animicad-miner"

			o := orchestrator.New(oCfg, provider, broadcaster, scanners, submitter, log)

			log.WithFields(logrus.Fields{"rpc": cfg.Node.RPCURL, "workers": workers, "device": device}).Info("starting mining loop")
			if !o.RunUntilSignal(cmd.Context()) {
				return fmt.Errorf("mining loop did not shut down cleanly within %s", oCfg.ShutdownTimeout)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&env, "env", "", "config overlay to merge (cmd/config/<env>.yaml)")
	cmd.Flags().StringVar(&device, "device", "", "mining device: cpu or gpu (overrides config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of scanner goroutines (overrides config)")
	return cmd
}
