package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/middleware"
	"github.com/noah-isme/iris-go-api/internal/observability"
)

const (
	threadRedisTTL       = 30 * time.Minute
	threadSendBufferSize = 32
)

// ThreadBroadcaster is the slice of ThreadStreamService the deliverable
// service needs to push newly stored messages to live subscribers.
type ThreadBroadcaster interface {
	Broadcast(deliverableID uint, message dto.ReportMessageResponse)
}

// MessagePoster stores an inbound thread message. Implemented by the
// deliverable service; kept as an interface so the stream and the store can
// be constructed independently.
type MessagePoster interface {
	PostMessage(ctx context.Context, id uint, actor Actor, payload dto.PostMessageRequest) (dto.ReportMessageResponse, error)
}

// ThreadConnectionOptions wraps metadata extracted during the HTTP upgrade.
type ThreadConnectionOptions struct {
	Actor         Actor
	DeliverableID uint
	CorrelationID string
	Context       context.Context
}

// ThreadStreamService manages websocket connections onto monthly report
// discussion threads and delivers messages across nodes.
type ThreadStreamService interface {
	ThreadBroadcaster
	ServeConnection(conn *websocket.Conn, opts ThreadConnectionOptions)
	SetPoster(poster MessagePoster)
	Start(ctx context.Context)
}

type threadService struct {
	poster      MessagePoster
	redis       *redis.Client
	redisStream string
	redisCache  string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	hub         *threadHub
	nodeID      string
}

type threadHub struct {
	mu      sync.RWMutex
	threads map[uint]map[*threadClient]struct{}
	log     zerolog.Logger
}

type threadClient struct {
	conn    *websocket.Conn
	send    chan dto.ReportMessageResponse
	options ThreadConnectionOptions
	service *threadService
	closed  chan struct{}
	once    sync.Once
	baseCtx context.Context
}

type threadEvent struct {
	Source        string                    `json:"source"`
	DeliverableID uint                      `json:"deliverable_id"`
	Message       dto.ReportMessageResponse `json:"message"`
	SentAt        time.Time                 `json:"sent_at"`
}

// NewThreadStreamService creates a thread stream instance. The message
// poster is wired afterwards via SetPoster.
func NewThreadStreamService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) ThreadStreamService {
	hub := &threadHub{
		threads: make(map[uint]map[*threadClient]struct{}),
		log:     logger.With().Str("component", "thread_hub").Logger(),
	}

	streamChannel := ""
	cachePrefix := ""
	natsSubject := ""
	if channelBase != "" {
		streamChannel = channelBase + ":threads"
		cachePrefix = channelBase + ":threads:last"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".threads"
	}

	return &threadService{
		redis:       redisClient,
		redisStream: streamChannel,
		redisCache:  cachePrefix,
		nats:        natsConn,
		natsSubject: natsSubject,
		logger:      logger.With().Str("component", "thread_service").Logger(),
		hub:         hub,
		nodeID:      uuid.NewString(),
	}
}

func (s *threadService) SetPoster(poster MessagePoster) {
	s.poster = poster
}

func (s *threadService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *threadService) ServeConnection(conn *websocket.Conn, opts ThreadConnectionOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	client := &threadClient{
		conn:    conn,
		send:    make(chan dto.ReportMessageResponse, threadSendBufferSize),
		options: opts,
		service: s,
		closed:  make(chan struct{}),
		baseCtx: baseCtx,
	}

	s.hub.register(client)
	observability.ThreadConnectionsTotal().Inc()

	if last := s.fetchLastMessage(baseCtx, opts.DeliverableID); last != nil {
		select {
		case client.send <- *last:
		default:
			s.logger.Debug().Uint("deliverable_id", opts.DeliverableID).Msg("dropping cached thread message due to slow consumer")
		}
	}

	go client.writer()
	client.reader()
}

// Broadcast delivers a stored message to local subscribers and fans it out
// to peer nodes.
func (s *threadService) Broadcast(deliverableID uint, message dto.ReportMessageResponse) {
	ctx := context.Background()
	s.cacheLastMessage(ctx, deliverableID, message)
	s.hub.broadcast(deliverableID, message)
	if err := s.publish(ctx, deliverableID, message); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish thread event")
	}
	observability.ThreadMessagesSent().WithLabelValues(message.AuthorRole).Inc()
}

func (s *threadService) cacheLastMessage(ctx context.Context, deliverableID uint, message dto.ReportMessageResponse) {
	if s.redis == nil || s.redisCache == "" {
		return
	}

	payload, err := json.Marshal(message)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal thread message for cache")
		return
	}

	key := fmt.Sprintf("%s:%d", s.redisCache, deliverableID)
	if err := s.redis.Set(ctx, key, payload, threadRedisTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache thread message")
	}
}

func (s *threadService) fetchLastMessage(ctx context.Context, deliverableID uint) *dto.ReportMessageResponse {
	if s.redis == nil || s.redisCache == "" {
		return nil
	}

	key := fmt.Sprintf("%s:%d", s.redisCache, deliverableID)
	result, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}

	var message dto.ReportMessageResponse
	if err := json.Unmarshal([]byte(result), &message); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached thread message")
		return nil
	}

	return &message
}

func (s *threadService) publish(ctx context.Context, deliverableID uint, message dto.ReportMessageResponse) error {
	event := threadEvent{
		Source:        s.nodeID,
		DeliverableID: deliverableID,
		Message:       message,
		SentAt:        time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *threadService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("thread redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *threadService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "iris-threads", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats thread subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain thread nats subscription")
		}
	}()
}

func (s *threadService) handleEvent(data []byte) {
	var event threadEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid thread event")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	observability.ThreadMessagesSent().WithLabelValues(event.Message.AuthorRole).Inc()
	s.hub.broadcast(event.DeliverableID, event.Message)
}

func (h *threadHub) register(client *threadClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := client.options.DeliverableID
	if _, exists := h.threads[id]; !exists {
		h.threads[id] = make(map[*threadClient]struct{})
	}
	h.threads[id][client] = struct{}{}
	h.log.Debug().Uint("deliverable_id", id).Uint("user_id", client.options.Actor.ID).Msg("thread client connected")
}

func (h *threadHub) unregister(client *threadClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := client.options.DeliverableID
	if clients, ok := h.threads[id]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.threads, id)
		}
	}
	h.log.Debug().Uint("deliverable_id", id).Uint("user_id", client.options.Actor.ID).Msg("thread client disconnected")
}

func (h *threadHub) broadcast(deliverableID uint, message dto.ReportMessageResponse) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.threads[deliverableID]
	for client := range clients {
		select {
		case client.send <- message:
		default:
			h.log.Warn().Uint("deliverable_id", deliverableID).Uint("user_id", client.options.Actor.ID).Msg("dropping thread message for slow client")
		}
	}
}

func (c *threadClient) reader() {
	defer c.close()

	connCtx := c.baseCtx
	if connCtx == nil {
		connCtx = context.Background()
	}
	if c.options.CorrelationID == "" {
		c.options.CorrelationID = middleware.CorrelationIDFromContext(connCtx)
	}

	for {
		var payload dto.PostMessageRequest
		if err := c.conn.ReadJSON(&payload); err != nil {
			c.service.logger.Debug().Err(err).Msg("thread read loop ended")
			return
		}

		if c.service.poster == nil {
			c.service.logger.Warn().Msg("thread message dropped: no poster wired")
			continue
		}

		// PostMessage broadcasts on success, which covers this client too.
		if _, err := c.service.poster.PostMessage(connCtx, c.options.DeliverableID, c.options.Actor, payload); err != nil {
			c.service.logger.Warn().Err(err).Uint("deliverable_id", c.options.DeliverableID).Msg("failed to store thread message")
			c.writeError(err)
		}
	}
}

func (c *threadClient) writeError(err error) {
	_ = c.conn.WriteJSON(map[string]string{"error": err.Error(), "deliverable_id": strconv.FormatUint(uint64(c.options.DeliverableID), 10)})
}

func (c *threadClient) writer() {
	defer c.close()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.service.logger.Debug().Err(err).Msg("thread write loop terminated")
				return
			}
		case <-time.After(30 * time.Second):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("thread ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *threadClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.hub.unregister(c)
		_ = c.conn.Close()
	})
}
