package bootstrap

import (
	"context"
	"time"

	"freightchat/internal/config"
	"freightchat/internal/controller"
	"freightchat/internal/handler"
	"freightchat/internal/pkg/logger"
	"freightchat/internal/repository/memory"
	redisRepo "freightchat/internal/repository/redis"
	"freightchat/internal/service"
	"freightchat/internal/websocket"
	"freightchat/pkg/freightapi"
	pktNats "freightchat/pkg/nats"
	"freightchat/pkg/shipping"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	SessionController  controller.ISessionController
	AgentController    controller.IAgentController
	DocumentController controller.IDocumentController
	MetadataController controller.IMetadataController

	// Services (exposed for main.go and the terminal renderer)
	AgentService    service.IAgentService
	RefreshService  service.IRefreshService
	TrackingService service.ITrackingService
	MetadataService service.IMetadataService

	// WebSockets
	SnapshotHandler *handler.SnapshotHandler
	WebSocketHub    *websocket.Hub

	closers []func()
}

// NewContainer wires every dependency. Redis and NATS are optional: without
// Redis the session is cached in memory, without NATS events stay local.
func NewContainer(cfg *config.Config, sysLogger logger.ILogger) *Container {
	// 1. Backend client
	client := freightapi.NewClient(cfg.Backend.APIBaseURL, cfg.Backend.WorkerBaseURL, cfg.Backend.RequestTimeout)

	// 2. Refresh queue
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	refreshService := service.NewRefreshService(pubSub, cfg.Events.RefreshTopic, cfg.Backend.RequestTimeout, sysLogger)

	// 3. Session storage
	storage, rdb := newSessionStore(cfg, sysLogger)

	// 4. Event publisher
	var publisher service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.Events.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("Container", "Failed to connect to NATS, events stay local", map[string]interface{}{"error": err.Error()})
	} else {
		publisher = natsPub
	}

	// 5. WebSocket hub
	wsHub := websocket.NewHub(sysLogger)

	// 6. Services
	agentService := service.NewAgentService(client, storage, refreshService, wsHub, publisher, sysLogger)
	metadataService := service.NewMetadataService(agentService.Controller(), client, memory.NewMetadataCache(cfg.Backend.MetadataCache), sysLogger)
	agentService.Subscribe(metadataService.HandleEvent)
	trackingService := service.NewTrackingService(agentService.Controller())

	c := &Container{
		Logger: sysLogger,

		SessionController:  controller.NewSessionController(agentService),
		AgentController:    controller.NewAgentController(agentService),
		DocumentController: controller.NewDocumentController(agentService, trackingService),
		MetadataController: controller.NewMetadataController(metadataService),

		AgentService:    agentService,
		RefreshService:  refreshService,
		TrackingService: trackingService,
		MetadataService: metadataService,

		SnapshotHandler: handler.NewSnapshotHandler(agentService, wsHub, sysLogger),
		WebSocketHub:    wsHub,
	}
	if natsPub != nil {
		c.closers = append(c.closers, natsPub.Close)
	}
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	return c
}

// Start runs the background workers and restores a cached session.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)
	if err := c.RefreshService.Consume(ctx, c.AgentService.Controller()); err != nil {
		return err
	}
	if c.AgentService.Restore(ctx) {
		c.Logger.Info("Container", "Restored cached session", nil)
	}
	return nil
}

// Close releases external connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func newSessionStore(cfg *config.Config, log logger.ILogger) (shipping.SessionStore, *redis.Client) {
	opt, err := redis.ParseURL(cfg.Session.RedisURL)
	if err != nil {
		log.Warn("Container", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.Session.RedisURL}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Container", "Redis unreachable, caching session in memory", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return memory.NewSessionRepository(cfg.Session.TTL), nil
	}
	return redisRepo.NewSessionRepository(rdb, cfg.Session.TTL), rdb
}
