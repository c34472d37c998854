package serve

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tinyland-inc/ntbridge/cmd/ntbridge/internal"
	"github.com/tinyland-inc/ntbridge/pkg/bus"
	"github.com/tinyland-inc/ntbridge/pkg/classify"
	"github.com/tinyland-inc/ntbridge/pkg/event"
	"github.com/tinyland-inc/ntbridge/pkg/forward"
	"github.com/tinyland-inc/ntbridge/pkg/kernel"
	"github.com/tinyland-inc/ntbridge/pkg/logger"
	"github.com/tinyland-inc/ntbridge/pkg/media"
	"github.com/tinyland-inc/ntbridge/pkg/normalize"
	"github.com/tinyland-inc/ntbridge/pkg/proto"
	"github.com/tinyland-inc/ntbridge/pkg/transport"
	"github.com/tinyland-inc/ntbridge/pkg/types"
)

const component = "serve"

// outageLogThreshold is how long the helper link must stay down before
// the outage is logged as an error.
const outageLogThreshold = 30 * time.Second

// Inbound frame types pushed by the helper.
const (
	frameMessagePush = "message_push"
	framePBPush      = "pb_push"
	frameRequestPush = "request_push"
	frameNotifyPush  = "notify_push"
	frameSendRequest = "send_request"
)

func serveCmd(debug bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if debug {
		logger.SetLevel(logger.DEBUG)
	} else {
		logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	}

	store, err := media.NewStore(cfg.TempDir)
	if err != nil {
		return fmt.Errorf("error preparing temp dir: %w", err)
	}

	tc := transport.NewClient(cfg.Helper.WSURL(), cfg.Helper.HTTPURL())
	defer tc.Close()

	tc.OnDisconnect(outageLogThreshold, func(elapsed time.Duration) {
		logger.ErrorCF(component, "Helper link down", map[string]any{
			"elapsed": elapsed.String(),
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tc.WaitConnected(ctx); err != nil {
		return err
	}

	api := kernel.NewClient(tc)
	session, err := api.GetSelfInfo(ctx)
	if err != nil {
		return fmt.Errorf("error fetching self identity: %w", err)
	}
	logger.InfoCF(component, "Connected to kernel helper", map[string]any{
		"uin":  session.UIN,
		"nick": session.Nick,
	})

	eb := bus.NewEventBus()
	defer eb.Close()

	b := &bridge{
		api:        api,
		session:    session,
		bus:        eb,
		store:      store,
		classifier: classify.New(api, session),
		incoming:   normalize.NewIncoming(api),
		outgoing:   normalize.NewOutgoing(api, store),
		encoder:    forward.NewEncoder(api, store, session),
	}
	listenerID := tc.AddListener(func(frame *transport.Frame) {
		b.handleFrame(ctx, frame)
	})
	defer tc.RemoveListener(listenerID)

	go drainEvents(ctx, eb, tc)

	<-ctx.Done()
	logger.InfoC(component, "Shutting down")
	return nil
}

// drainEvents consumes classified events and announces each one: logged
// locally and broadcast over the helper channel for embedding front-ends.
func drainEvents(ctx context.Context, eb *bus.EventBus, tc *transport.Client) {
	for {
		ev, ok := eb.Consume(ctx)
		if !ok {
			return
		}
		data, err := json.Marshal(ev.Data)
		if err != nil {
			logger.WarnCF(component, "Unencodable event payload", map[string]any{
				"type":  string(ev.Type),
				"error": err.Error(),
			})
			continue
		}
		logger.InfoCF(component, "Domain event", map[string]any{
			"type": string(ev.Type),
			"data": string(data),
		})
		var generic map[string]any
		if err := json.Unmarshal(data, &generic); err == nil {
			if err := tc.BroadcastEvent(string(ev.Type), generic); err != nil {
				logger.DebugCF(component, "Event broadcast failed", map[string]any{
					"type":  string(ev.Type),
					"error": err.Error(),
				})
			}
		}
	}
}

// bridge glues the inbound frame stream to the classifier and the
// incoming normalizer. The outgoing normalizer and forward encoder are
// the send-side surface exposed to embedding front-ends.
type bridge struct {
	api        kernel.API
	session    types.Session
	bus        *bus.EventBus
	store      *media.Store
	classifier *classify.Classifier
	incoming   *normalize.Incoming
	outgoing   *normalize.Outgoing
	encoder    *forward.Encoder
}

func (b *bridge) handleFrame(ctx context.Context, frame *transport.Frame) {
	switch frame.Type {
	case frameMessagePush:
		b.handleMessage(ctx, frame)
	case framePBPush:
		b.handlePB(ctx, frame)
	case frameRequestPush:
		b.handleRequest(ctx, frame)
	case frameNotifyPush:
		b.handleNotify(ctx, frame)
	case frameSendRequest:
		b.handleSend(ctx, frame)
	}
}

// handleMessage classifies a kernel message push: notice content wins,
// otherwise the message converts into a receive event.
func (b *bridge) handleMessage(ctx context.Context, frame *transport.Frame) {
	raw, err := json.Marshal(frame.Data["message"])
	if err != nil {
		logger.WarnCF(component, "Bad message push", map[string]any{"error": err.Error()})
		return
	}
	msg := &types.RawMessage{}
	if err := json.Unmarshal(raw, msg); err != nil {
		logger.WarnCF(component, "Bad message push", map[string]any{"error": err.Error()})
		return
	}

	if events := b.classifier.ClassifyMessage(ctx, msg); len(events) > 0 {
		for i := range events {
			b.emit(ctx, &events[i])
		}
		return
	}

	segments := b.incoming.Convert(ctx, msg)
	if len(segments) == 0 {
		return
	}
	scene := event.SceneFriend
	peerID, _ := strconv.ParseInt(msg.PeerUin, 10, 64)
	if msg.ChatType == types.ChatTypeGroup {
		scene = event.SceneGroup
		peerID, _ = strconv.ParseInt(msg.PeerUID, 10, 64)
	}
	seq, _ := strconv.ParseInt(msg.MsgSeq, 10, 64)
	sender, _ := strconv.ParseInt(msg.SenderUin, 10, 64)
	ev := event.New(event.MessageReceive, &event.MessageReceiveData{
		MessageScene: scene,
		PeerID:       peerID,
		MessageSeq:   seq,
		SenderID:     sender,
		Segments:     segments,
	})
	b.emit(ctx, &ev)
}

// handlePB decodes a binary notification push and classifies it.
func (b *bridge) handlePB(ctx context.Context, frame *transport.Frame) {
	raw, _ := frame.Data["pb"].(string)
	if raw == "" {
		return
	}
	pb, err := hex.DecodeString(raw)
	if err != nil {
		logger.WarnCF(component, "Bad binary push", map[string]any{"error": err.Error()})
		return
	}
	push, err := proto.UnmarshalPushMsg(pb)
	if err != nil || push.Message == nil {
		logger.WarnCF(component, "Undecodable binary push", map[string]any{
			"bytes": len(pb),
		})
		return
	}
	if ev := b.classifier.ClassifyPush(ctx, push.Message); ev != nil {
		b.emit(ctx, ev)
	}
}

// handleRequest turns a buddy-request push into a friend request event.
// Group-sourced requests resolve the group name for the via text.
func (b *bridge) handleRequest(ctx context.Context, frame *transport.Frame) {
	raw, err := json.Marshal(frame.Data["request"])
	if err != nil {
		logger.WarnCF(component, "Bad request push", map[string]any{"error": err.Error()})
		return
	}
	var req struct {
		FriendUID string `json:"friendUid"`
		ExtWords  string `json:"extWords"`
		SourceID  int    `json:"sourceId"`
		GroupCode string `json:"groupCode"`
	}
	if err := json.Unmarshal(raw, &req); err != nil || req.FriendUID == "" {
		logger.WarnCF(component, "Bad request push", map[string]any{"data": string(raw)})
		return
	}
	groupName := ""
	if req.SourceID == 3004 && req.GroupCode != "" {
		if info, err := b.api.GetGroupAllInfo(ctx, req.GroupCode); err == nil {
			groupName = info.GroupName
		}
	}
	ev := b.classifier.BuildFriendRequest(ctx, req.FriendUID, req.ExtWords, req.SourceID, groupName)
	b.emit(ctx, ev)
}

// handleNotify turns a group single-screen notification push into a
// join-request or invitation event. Handled records yield nothing.
func (b *bridge) handleNotify(ctx context.Context, frame *transport.Frame) {
	raw, err := json.Marshal(frame.Data["notify"])
	if err != nil {
		logger.WarnCF(component, "Bad notify push", map[string]any{"error": err.Error()})
		return
	}
	n := &types.GroupNotify{}
	if err := json.Unmarshal(raw, n); err != nil {
		logger.WarnCF(component, "Bad notify push", map[string]any{"error": err.Error()})
		return
	}
	doubt, _ := frame.Data["doubt"].(bool)
	if ev := b.classifier.BuildGroupNotify(ctx, n, doubt); ev != nil {
		b.emit(ctx, ev)
	}
}

// handleSend relays a front-end send request through the helper channel:
// segments convert into kernel elements and go out over sendMsg. A
// forward transcript is a complete message on its own and routes through
// the encoder instead. Media staged during conversion is deleted once the
// send returns.
func (b *bridge) handleSend(ctx context.Context, frame *transport.Frame) {
	raw, err := json.Marshal(frame.Data)
	if err != nil {
		logger.WarnCF(component, "Bad send request", map[string]any{"error": err.Error()})
		return
	}
	var req struct {
		Scene    string          `json:"scene"`
		PeerID   int64           `json:"peer_id"`
		Segments []types.Segment `json:"segments"`
	}
	if err := json.Unmarshal(raw, &req); err != nil || req.PeerID == 0 || len(req.Segments) == 0 {
		logger.WarnCF(component, "Bad send request", map[string]any{"data": string(raw)})
		return
	}

	peerID := strconv.FormatInt(req.PeerID, 10)
	var peer types.Peer
	if req.Scene == string(event.SceneGroup) {
		peer = types.GroupPeer(peerID)
	} else {
		uid, err := b.api.GetUIDByUIN(ctx, peerID)
		if err != nil {
			logger.WarnCF(component, "Send target unresolvable", map[string]any{
				"peer":  peerID,
				"error": err.Error(),
			})
			return
		}
		peer = types.BuddyPeer(uid)
	}

	var elements []types.Element
	var temps []string
	if fwd := req.Segments[0].Forward; req.Segments[0].Type == types.SegForward && fwd != nil {
		res, err := b.encoder.Encode(ctx, peer, fwd)
		if err != nil {
			logger.WarnCF(component, "Forward pack failed", map[string]any{"error": err.Error()})
			return
		}
		elements = []types.Element{res.Element}
		temps = res.TempFiles
	} else {
		res, err := b.outgoing.Convert(ctx, peer, req.Segments)
		if res != nil {
			temps = res.TempFiles
		}
		if err != nil {
			logger.WarnCF(component, "Send conversion failed", map[string]any{"error": err.Error()})
			b.store.Cleanup(temps)
			return
		}
		elements = res.Elements
	}
	defer b.store.Cleanup(temps)

	sent, err := b.api.SendMsg(ctx, peer, elements)
	if err != nil {
		logger.WarnCF(component, "Send failed", map[string]any{
			"peer":  peerID,
			"error": err.Error(),
		})
		return
	}
	logger.DebugCF(component, "Message sent", map[string]any{
		"peer": peerID,
		"seq":  sent.MsgSeq,
	})
}

func (b *bridge) emit(ctx context.Context, ev *event.Event) {
	if err := b.bus.Publish(ctx, *ev); err != nil {
		logger.WarnCF(component, "Dropped event", map[string]any{
			"type":  string(ev.Type),
			"error": err.Error(),
		})
	}
}
