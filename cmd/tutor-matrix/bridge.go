// ABOUTME: Matrix bridge core for tutor-matrix
// ABOUTME: One conversation per room; assistant messages are posted back as they appear

package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/format"
	"maunium.net/go/mautrix/id"

	"github.com/2389/tutor-chat/internal/conversation"
	"github.com/2389/tutor-chat/internal/dedupe"
	"github.com/2389/tutor-chat/internal/session"
)

// BusyText answers a room that asks something while a reply is pending.
const BusyText = "Espera un momento, todavía estoy respondiendo tu pregunta anterior."

// messenger is the part of Matrix the bridge writes to.
type messenger interface {
	SendMarkdown(ctx context.Context, roomID id.RoomID, text string) error
	SetTyping(ctx context.Context, roomID id.RoomID, typing bool) error
}

// Bridge connects Matrix rooms to the chat service.
type Bridge struct {
	config *Config
	matrix *mautrix.Client
	out    messenger
	hub    *session.Hub
	seen   *dedupe.Cache
	logger *slog.Logger

	startedAt time.Time

	mu     sync.Mutex
	posted map[id.RoomID]*roomLog

	// ctx is the parent context for message processing goroutines
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// roomLog remembers which assistant messages a room has been sent.
type roomLog struct {
	mu   sync.Mutex
	sent map[string]bool
}

// NewBridge creates a bridge that has not logged in yet.
func NewBridge(cfg *Config, hub *session.Hub, logger *slog.Logger) (*Bridge, error) {
	client, err := mautrix.NewClient(cfg.Matrix.Homeserver, "", "")
	if err != nil {
		return nil, fmt.Errorf("creating matrix client: %w", err)
	}

	b := newBridge(cfg, hub, &matrixMessenger{client: client}, logger)
	b.matrix = client
	return b, nil
}

func newBridge(cfg *Config, hub *session.Hub, out messenger, logger *slog.Logger) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		config:    cfg,
		out:       out,
		hub:       hub,
		seen:      dedupe.New(10*time.Minute, 10000),
		logger:    logger.With("component", "bridge"),
		startedAt: time.Now(),
		posted:    make(map[id.RoomID]*roomLog),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Login authenticates with the configured password and keeps the token.
func (b *Bridge) Login(ctx context.Context) error {
	resp, err := b.matrix.Login(ctx, &mautrix.ReqLogin{
		Type: mautrix.AuthTypePassword,
		Identifier: mautrix.UserIdentifier{
			Type: mautrix.IdentifierTypeUser,
			User: b.config.Matrix.Username,
		},
		Password:                 b.config.Matrix.Password,
		InitialDeviceDisplayName: "tutor-matrix",
		StoreCredentials:         true,
	})
	if err != nil {
		return err
	}
	b.logger.Info("logged in", "user_id", resp.UserID.String(), "device_id", resp.DeviceID.String())
	return nil
}

// UserID is the bot's own Matrix id, known after Login.
func (b *Bridge) UserID() string {
	return b.matrix.UserID.String()
}

// Run syncs until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Info("starting matrix bridge",
		"homeserver", b.config.Matrix.Homeserver,
		"user_id", b.UserID(),
		"service", b.config.Service.URL,
	)
	defer b.Close()

	syncer, ok := b.matrix.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return fmt.Errorf("unexpected syncer type: %T", b.matrix.Syncer)
	}
	syncer.OnEventType(event.EventMessage, b.handleMessageEvent)
	syncer.OnEventType(event.StateMember, b.handleMemberEvent)

	syncCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	syncErr := make(chan error, 1)
	go func() {
		syncErr <- b.matrix.SyncWithContext(syncCtx)
	}()

	b.logger.Info("matrix bridge running")

	select {
	case <-ctx.Done():
		b.logger.Info("shutting down matrix bridge")
		return nil
	case err := <-syncErr:
		return fmt.Errorf("matrix sync failed: %w", err)
	}
}

// Close waits for in-flight replies and releases the dedupe sweeper.
func (b *Bridge) Close() {
	b.cancel()
	b.wg.Wait()
	b.seen.Close()
}

func (b *Bridge) handleMemberEvent(ctx context.Context, evt *event.Event) {
	content, ok := evt.Content.Parsed.(*event.MemberEventContent)
	if !ok || content.Membership != event.MembershipInvite {
		return
	}
	if evt.GetStateKey() != b.UserID() || !b.isRoomAllowed(evt.RoomID.String()) {
		return
	}
	if _, err := b.matrix.JoinRoomByID(ctx, evt.RoomID); err != nil {
		b.logger.Warn("failed to join room", "room", evt.RoomID.String(), "error", err)
		return
	}
	b.logger.Info("joined room", "room", evt.RoomID.String(), "inviter", evt.Sender.String())
}

func (b *Bridge) handleMessageEvent(_ context.Context, evt *event.Event) {
	if evt.Sender.String() == b.UserID() {
		return
	}
	if time.UnixMilli(evt.Timestamp).Before(b.startedAt) {
		return
	}
	if b.seen.Seen(evt.ID.String()) {
		b.logger.Debug("ignoring redelivered event", "event_id", evt.ID.String())
		return
	}

	content, ok := evt.Content.Parsed.(*event.MessageEventContent)
	if !ok || content.MsgType != event.MsgText {
		return
	}
	if !b.isRoomAllowed(evt.RoomID.String()) {
		b.logger.Debug("ignoring message from non-allowed room", "room", evt.RoomID.String())
		return
	}

	b.logger.Info("received message",
		"room", evt.RoomID.String(),
		"sender", evt.Sender.String(),
		"content", truncate(content.Body, 50),
	)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.Dispatch(b.ctx, evt.RoomID, content.Body)
	}()
}

// Dispatch runs one room message against the room's conversation and posts
// whatever assistant messages it produced.
func (b *Bridge) Dispatch(ctx context.Context, roomID id.RoomID, body string) {
	cmd, ok := parseRoomCommand(body, b.config.Bridge.CommandPrefix)
	if !ok {
		return
	}

	manager := b.hub.GetOrCreate(roomID.String())
	// The outcome of a started call must still be posted after shutdown begins.
	opCtx := context.WithoutCancel(ctx)

	accepted := true
	switch cmd.kind {
	case roomAsk:
		accepted = b.withTyping(ctx, roomID, func() bool { return manager.SubmitText(opCtx, cmd.text) })
	case roomTopics:
		accepted = b.withTyping(ctx, roomID, func() bool { return manager.ListCategories(opCtx) })
	case roomTopic:
		categories := manager.State().Categories
		if cmd.index > len(categories) {
			b.send(ctx, roomID, "No hay tema con ese número. Escribe "+b.config.Bridge.CommandPrefix+"temas para ver la lista.")
			return
		}
		cat := categories[cmd.index-1]
		accepted = b.withTyping(ctx, roomID, func() bool { return manager.SelectCategory(opCtx, cat.ID, cat.Name) })
	case roomHowItWorks:
		manager.HowItWorks()
	case roomReset:
		manager.Reset()
	}

	if !accepted {
		b.send(ctx, roomID, BusyText)
		return
	}
	b.flush(ctx, roomID, manager.State())
}

func (b *Bridge) withTyping(ctx context.Context, roomID id.RoomID, op func() bool) bool {
	if b.config.Bridge.TypingIndicator {
		b.setTyping(ctx, roomID, true)
		defer b.setTyping(context.WithoutCancel(ctx), roomID, false)
	}
	return op()
}

// flush posts the assistant messages of st the room has not been sent yet,
// in log order.
func (b *Bridge) flush(ctx context.Context, roomID id.RoomID, st conversation.State) {
	log := b.roomLog(roomID)
	log.mu.Lock()
	defer log.mu.Unlock()

	current := make(map[string]bool, len(st.Messages))
	for _, msg := range st.Messages {
		if msg.Origin != conversation.OriginAssistant {
			continue
		}
		current[msg.ID] = true
		if log.sent[msg.ID] {
			continue
		}
		b.send(ctx, roomID, b.formatMessage(msg))
	}
	log.sent = current
}

func (b *Bridge) roomLog(roomID id.RoomID) *roomLog {
	b.mu.Lock()
	defer b.mu.Unlock()
	log, ok := b.posted[roomID]
	if !ok {
		log = &roomLog{sent: make(map[string]bool)}
		b.posted[roomID] = log
	}
	return log
}

// formatMessage renders a message as Markdown, numbering listed categories.
func (b *Bridge) formatMessage(msg conversation.Message) string {
	if msg.Kind != conversation.KindCategoryList {
		return msg.Body
	}
	var sb strings.Builder
	sb.WriteString(msg.Body)
	sb.WriteString("\n\n")
	for i, cat := range msg.Categories {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(cat.Name)
		sb.WriteString("\n")
	}
	sb.WriteString("\nEscribe `")
	sb.WriteString(b.config.Bridge.CommandPrefix)
	sb.WriteString("tema <n>` para ver sus preguntas frecuentes.")
	return sb.String()
}

// isRoomAllowed checks if the room is in the allowed list.
func (b *Bridge) isRoomAllowed(roomID string) bool {
	if len(b.config.Bridge.AllowedRooms) == 0 {
		return true
	}
	return slices.Contains(b.config.Bridge.AllowedRooms, roomID)
}

// networkTimeout is the timeout for Matrix API calls.
const networkTimeout = 10 * time.Second

func (b *Bridge) setTyping(ctx context.Context, roomID id.RoomID, typing bool) {
	ctx, cancel := context.WithTimeout(ctx, networkTimeout)
	defer cancel()
	if err := b.out.SetTyping(ctx, roomID, typing); err != nil {
		b.logger.Debug("failed to set typing indicator", "room", roomID.String(), "error", err)
	}
}

func (b *Bridge) send(ctx context.Context, roomID id.RoomID, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := b.out.SendMarkdown(ctx, roomID, text); err != nil {
		b.logger.Error("failed to send message", "room", roomID.String(), "error", err)
	}
}

// matrixMessenger writes to a live homeserver.
type matrixMessenger struct {
	client *mautrix.Client
}

// typingTimeout is the duration the typing indicator shows.
const typingTimeout = 30 * time.Second

func (m *matrixMessenger) SendMarkdown(ctx context.Context, roomID id.RoomID, text string) error {
	content := format.RenderMarkdown(text, true, false)
	_, err := m.client.SendMessageEvent(ctx, roomID, event.EventMessage, &content)
	return err
}

func (m *matrixMessenger) SetTyping(ctx context.Context, roomID id.RoomID, typing bool) error {
	var timeout time.Duration
	if typing {
		timeout = typingTimeout
	}
	_, err := m.client.UserTyping(ctx, roomID, typing, timeout)
	return err
}

// truncate shortens a string to the given max rune count, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
