package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/envnode/internal/constants"
	"github.com/benmeehan/envnode/internal/models"
	"github.com/benmeehan/envnode/internal/utils"
	"github.com/benmeehan/envnode/pkg/link"
	"github.com/benmeehan/envnode/pkg/mqtt"
	"github.com/rs/zerolog"
)

// Default retry delays of the two connection layers.
const (
	DefaultLinkRetryDelay    = 100 * time.Millisecond
	DefaultSessionRetryDelay = 2 * time.Second
)

// SessionHook runs every time a broker session is established.
type SessionHook func(session mqtt.Session) error

// ConnectivityService keeps the network link and the broker session up.
// It is the only writer of NodeState.Connection.
type ConnectivityService struct {
	link              link.Link
	session           mqtt.Session
	state             *models.NodeState
	linkRetryDelay    time.Duration
	sessionRetryDelay time.Duration
	hooks             []SessionHook
	hooksPending      bool // a session attempt started and its hooks have not completed
	logger            zerolog.Logger
}

// NewConnectivityService initializes a new ConnectivityService.
func NewConnectivityService(l link.Link, session mqtt.Session, state *models.NodeState,
	linkRetryDelay, sessionRetryDelay time.Duration, logger zerolog.Logger) *ConnectivityService {
	if linkRetryDelay <= 0 {
		linkRetryDelay = DefaultLinkRetryDelay
	}
	if sessionRetryDelay <= 0 {
		sessionRetryDelay = DefaultSessionRetryDelay
	}
	return &ConnectivityService{
		link:              l,
		session:           session,
		state:             state,
		linkRetryDelay:    linkRetryDelay,
		sessionRetryDelay: sessionRetryDelay,
		logger:            logger,
	}
}

// OnSessionUp registers hook to run after every successful session
// establishment, in registration order.
func (c *ConnectivityService) OnSessionUp(hook SessionHook) {
	c.hooks = append(c.hooks, hook)
}

// EnsureConnected blocks until both the link and the session are up.
// Failures are retried without limit; the only error returned is the
// context's.
func (c *ConnectivityService) EnsureConnected(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !c.link.Connected() {
			c.state.Connection = models.ConnectionState{}
			if err := c.attachLink(ctx); err != nil {
				return err
			}
		}
		c.state.Connection.LinkUp = true

		if c.session.IsConnected() && !c.hooksPending {
			c.state.Connection.SessionUp = true
			return nil
		}
		c.state.Connection.SessionUp = false

		err := c.connectSession(ctx)
		if errors.Is(err, constants.ErrLinkDown) {
			c.state.Connection = models.ConnectionState{}
			c.logger.Warn().Str("link", c.link.Name()).Msg("Link lost while connecting to broker")
			continue
		}
		if err != nil {
			return err
		}
		c.state.Connection.SessionUp = true
		return nil
	}
}

func (c *ConnectivityService) attachLink(ctx context.Context) error {
	c.logger.Info().Str("link", c.link.Name()).Msg("Attaching network link")

	attempts, err := utils.RetryForever(ctx, c.linkRetryDelay,
		func(int) error {
			if err := c.link.Attach(ctx); err != nil {
				return err
			}
			if !c.link.Connected() {
				return constants.ErrLinkDown
			}
			return nil
		},
		func(n int, err error) {
			c.logger.Warn().Err(err).Int("attempt", n).Str("link", c.link.Name()).
				Dur("retry_in", c.linkRetryDelay).Msg("Network link not up")
		},
	)
	if err != nil {
		return err
	}

	c.logger.Info().Int("attempts", attempts).Str("link", c.link.Name()).Msg("Network link up")
	return nil
}

func (c *ConnectivityService) connectSession(ctx context.Context) error {
	broker := c.session.Broker()
	c.logger.Info().Str("broker", broker).Msg("Connecting to MQTT broker")
	c.hooksPending = true

	attempts, err := utils.RetryForever(ctx, c.sessionRetryDelay,
		func(int) error {
			if !c.link.Connected() {
				return fmt.Errorf("%w: %w", utils.ErrStopRetry, constants.ErrLinkDown)
			}
			// A connect that timed out may still complete afterwards.
			if c.session.IsConnected() {
				c.logger.Info().Str("broker", broker).Msg("MQTT session came up after a timed out attempt")
			} else if err := c.session.Connect(ctx); err != nil {
				return err
			}
			for _, hook := range c.hooks {
				if err := hook(c.session); err != nil {
					c.session.Disconnect(0)
					return fmt.Errorf("session setup: %w", err)
				}
			}
			return nil
		},
		func(n int, err error) {
			c.logger.Warn().Err(err).Int("attempt", n).Str("broker", broker).
				Dur("retry_in", c.sessionRetryDelay).Msg("MQTT connection failed")
		},
	)
	if err != nil {
		return err
	}

	c.hooksPending = false
	c.logger.Info().Int("attempts", attempts).Str("broker", broker).Msg("MQTT session established")
	return nil
}
