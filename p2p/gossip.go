package p2p

import (
	"context"
	"fmt"
	"sync"

	libp2p "github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/sirupsen/logrus"

	"github.com/animica-network/animica/chaintypes"
	"github.com/animica-network/animica/codec"
)

// Gossip topics (§4.13): headers and blocks are cheap to decode-and-sanity
// before fan-out; proofs additionally pass IngestEnvelope's dedupe gate.
const (
	TopicHeaders = "animica/headers/v1"
	TopicBlocks  = "animica/blocks/v1"
	TopicProofs  = "animica/proofs/v1"
)

// DecodedHeader pairs a sanity-checked header with the peer that sent it.
type DecodedHeader struct {
	From   peer.ID
	Header chaintypes.Header
}

// DecodedEnvelope pairs a decoded, deduped proof envelope with its sender.
type DecodedEnvelope struct {
	From     peer.ID
	Envelope chaintypes.ProofEnvelope
}

// DecodedBlock pairs a decoded, sanity-checked block with its sender.
type DecodedBlock struct {
	From  peer.ID
	Block chaintypes.Block
}

// wireBlock is TopicBlocks' on-the-wire shape: a header plus the body blobs
// DecodeBlock expects, bundled so gossip can carry a block as one message.
type wireBlock struct {
	Header   []byte
	Txs      [][]byte
	Proofs   [][]byte
	Receipts [][]byte
}

// Hub wraps a libp2p-pubsub GossipSub instance and applies this package's
// decode/sanity/envelope gates to every inbound message before handing it
// to a subscriber, so nothing downstream of a Hub ever sees raw wire bytes
// (§4.13). Grounded on the reference node's pubsub wiring: one GossipSub
// instance, topics joined lazily and cached.
type Hub struct {
	host   host.Host
	pubsub *pubsub.PubSub

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
	subs   map[string]*pubsub.Subscription

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a libp2p host listening on listenAddr and wraps it in a
// GossipSub router.
func NewHub(listenAddr string) (*Hub, error) {
	ctx, cancel := context.WithCancel(context.Background())

	h, err := libp2p.New(libp2p.ListenAddrStrings(listenAddr))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("p2p: create host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("p2p: create gossipsub: %w", err)
	}

	return &Hub{
		host:   h,
		pubsub: ps,
		topics: make(map[string]*pubsub.Topic),
		subs:   make(map[string]*pubsub.Subscription),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (hub *Hub) joinLocked(topic string) (*pubsub.Topic, error) {
	t, ok := hub.topics[topic]
	if ok {
		return t, nil
	}
	t, err := hub.pubsub.Join(topic)
	if err != nil {
		return nil, fmt.Errorf("p2p: join topic %s: %w", topic, err)
	}
	hub.topics[topic] = t
	return t, nil
}

// PublishRaw publishes already-encoded bytes to topic, joining it if this is
// the first publish.
func (hub *Hub) PublishRaw(topic string, data []byte) error {
	hub.mu.Lock()
	t, err := hub.joinLocked(topic)
	hub.mu.Unlock()
	if err != nil {
		return err
	}
	if err := t.Publish(hub.ctx, data); err != nil {
		return fmt.Errorf("p2p: publish topic %s: %w", topic, err)
	}
	return nil
}

// PublishHeader encodes and gossips a header on TopicHeaders.
func (hub *Hub) PublishHeader(h chaintypes.Header) error {
	enc, err := h.ToCBOR()
	if err != nil {
		return fmt.Errorf("p2p: encode header: %w", err)
	}
	return hub.PublishRaw(TopicHeaders, enc)
}

// SubscribeHeaders joins TopicHeaders and returns every decoded, sanity-
// checked header along with the sending peer. Malformed payloads are
// dropped and logged rather than delivered, mirroring the reference node's
// best-effort decode loop.
func (hub *Hub) SubscribeHeaders() (<-chan DecodedHeader, error) {
	sub, err := hub.subscribeLocked(TopicHeaders)
	if err != nil {
		return nil, err
	}
	out := make(chan DecodedHeader)
	go func() {
		defer close(out)
		for {
			msg, err := sub.Next(hub.ctx)
			if err != nil {
				return
			}
			h, err := DecodeHeader(msg.Data)
			if err != nil {
				logrus.WithField("peer", msg.GetFrom().String()).WithError(err).Debug("p2p: dropping malformed header")
				continue
			}
			if err := SanityHeader(h); err != nil {
				logrus.WithField("peer", msg.GetFrom().String()).WithError(err).Debug("p2p: dropping header failing sanity")
				continue
			}
			out <- DecodedHeader{From: msg.GetFrom(), Header: h}
		}
	}()
	return out, nil
}

// PublishBlock encodes and gossips a block on TopicBlocks.
func (hub *Hub) PublishBlock(b chaintypes.Block) error {
	headerBytes, err := b.Header.ToCBOR()
	if err != nil {
		return fmt.Errorf("p2p: encode block header: %w", err)
	}
	txBytes := make([][]byte, len(b.Txs))
	for i, tx := range b.Txs {
		enc, err := tx.ToCBOR()
		if err != nil {
			return fmt.Errorf("p2p: encode block tx[%d]: %w", i, err)
		}
		txBytes[i] = enc
	}
	proofBytes := make([][]byte, len(b.Proofs))
	for i, p := range b.Proofs {
		enc, err := p.ToCBOR()
		if err != nil {
			return fmt.Errorf("p2p: encode block proof[%d]: %w", i, err)
		}
		proofBytes[i] = enc
	}
	var receiptBytes [][]byte
	if b.Receipts != nil {
		receiptBytes = make([][]byte, len(b.Receipts))
		for i, r := range b.Receipts {
			enc, err := r.ToCBOR()
			if err != nil {
				return fmt.Errorf("p2p: encode block receipt[%d]: %w", i, err)
			}
			receiptBytes[i] = enc
		}
	}

	enc, err := codec.CanonicalCBOR(wireBlock{Header: headerBytes, Txs: txBytes, Proofs: proofBytes, Receipts: receiptBytes})
	if err != nil {
		return fmt.Errorf("p2p: encode wire block: %w", err)
	}
	return hub.PublishRaw(TopicBlocks, enc)
}

// SubscribeBlocks joins TopicBlocks and returns every block that decodes via
// DecodeBlock and passes SanityBlock for expectedChainID. Malformed or
// failing payloads are dropped and logged, mirroring SubscribeHeaders.
func (hub *Hub) SubscribeBlocks(expectedChainID uint64) (<-chan DecodedBlock, error) {
	sub, err := hub.subscribeLocked(TopicBlocks)
	if err != nil {
		return nil, err
	}
	out := make(chan DecodedBlock)
	go func() {
		defer close(out)
		for {
			msg, err := sub.Next(hub.ctx)
			if err != nil {
				return
			}
			var wb wireBlock
			if err := codec.DecodeCBORStrict(msg.Data, &wb); err != nil {
				logrus.WithField("peer", msg.GetFrom().String()).WithError(err).Debug("p2p: dropping malformed block envelope")
				continue
			}
			b, err := DecodeBlock(wb.Header, wb.Txs, wb.Proofs, wb.Receipts)
			if err != nil {
				logrus.WithField("peer", msg.GetFrom().String()).WithError(err).Debug("p2p: dropping malformed block")
				continue
			}
			if err := SanityBlock(b, expectedChainID); err != nil {
				logrus.WithField("peer", msg.GetFrom().String()).WithError(err).Debug("p2p: dropping block failing sanity")
				continue
			}
			out <- DecodedBlock{From: msg.GetFrom(), Block: b}
		}
	}()
	return out, nil
}

// PublishProof encodes and gossips a proof envelope on TopicProofs.
func (hub *Hub) PublishProof(env chaintypes.ProofEnvelope) error {
	enc, err := env.ToCBOR()
	if err != nil {
		return fmt.Errorf("p2p: encode envelope: %w", err)
	}
	return hub.PublishRaw(TopicProofs, enc)
}

// SubscribeProofs joins TopicProofs and returns every envelope that passes
// IngestEnvelope's size/decode/nullifier/dedupe gate, against the given
// NullifierSeen. A caller with no long-lived dedupe window can pass
// NewSeenSet() for a per-subscription one.
func (hub *Hub) SubscribeProofs(seen NullifierSeen) (<-chan DecodedEnvelope, error) {
	sub, err := hub.subscribeLocked(TopicProofs)
	if err != nil {
		return nil, err
	}
	out := make(chan DecodedEnvelope)
	go func() {
		defer close(out)
		for {
			msg, err := sub.Next(hub.ctx)
			if err != nil {
				return
			}
			env, err := IngestEnvelope(msg.Data, seen)
			if err != nil {
				logrus.WithField("peer", msg.GetFrom().String()).WithError(err).Debug("p2p: dropping rejected envelope")
				continue
			}
			out <- DecodedEnvelope{From: msg.GetFrom(), Envelope: env}
		}
	}()
	return out, nil
}

func (hub *Hub) subscribeLocked(topic string) (*pubsub.Subscription, error) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if _, err := hub.joinLocked(topic); err != nil {
		return nil, err
	}
	sub, ok := hub.subs[topic]
	if ok {
		return sub, nil
	}
	sub, err := hub.pubsub.Subscribe(topic)
	if err != nil {
		return nil, fmt.Errorf("p2p: subscribe topic %s: %w", topic, err)
	}
	hub.subs[topic] = sub
	return sub, nil
}

// Close tears down the underlying host and cancels the pubsub context.
func (hub *Hub) Close() error {
	hub.cancel()
	return hub.host.Close()
}

// PeerID returns this hub's own libp2p peer identity.
func (hub *Hub) PeerID() peer.ID { return hub.host.ID() }
