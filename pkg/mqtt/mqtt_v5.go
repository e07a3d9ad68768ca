package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benmeehan/envnode/internal/constants"
	"github.com/benmeehan/envnode/pkg/file"
	"github.com/eclipse/paho.golang/paho"
	"github.com/rs/zerolog"
)

// v5Client is the subset of *paho.Client used by MqttV5Service.
type v5Client interface {
	Connect(ctx context.Context, cp *paho.Connect) (*paho.Connack, error)
	Subscribe(ctx context.Context, s *paho.Subscribe) (*paho.Suback, error)
	Publish(ctx context.Context, p *paho.Publish) (*paho.PublishResponse, error)
	Disconnect(d *paho.Disconnect) error
}

// MqttV5Service is an MQTT 5 Session backed by paho.golang. Every Connect
// dials a fresh network connection and client; a clean start is requested
// so subscriptions are always re-established by the caller.
type MqttV5Service struct {
	opts       Options
	brokerURL  *url.URL
	tlsConfig  *tls.Config
	fileClient file.FileOperations
	logger     zerolog.Logger
	inbound    *inboundQueue

	dial      func(ctx context.Context) (net.Conn, error)
	newClient func(cfg paho.ClientConfig) v5Client

	mu        sync.Mutex
	client    v5Client
	handlers  map[string]MessageHandler
	connected atomic.Bool
}

// NewMqttV5Service creates an MQTT 5 session for opts. It does not connect.
func NewMqttV5Service(opts Options, fileClient file.FileOperations, logger zerolog.Logger) (*MqttV5Service, error) {
	brokerURL, err := url.Parse(opts.Broker)
	if err != nil {
		return nil, fmt.Errorf("parse mqtt broker URL: %w", err)
	}
	if brokerURL.Host == "" {
		return nil, fmt.Errorf("mqtt broker URL %q has no host", opts.Broker)
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}

	s := &MqttV5Service{
		opts:       opts,
		brokerURL:  brokerURL,
		fileClient: fileClient,
		logger:     logger,
		inbound:    newInboundQueue(opts.InboundBuffer, logger),
		handlers:   make(map[string]MessageHandler),
		newClient: func(cfg paho.ClientConfig) v5Client {
			return paho.NewClient(cfg)
		},
	}

	switch brokerURL.Scheme {
	case "ssl", "tls", "mqtts":
		s.tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		if opts.CACertificate != "" {
			helper := &MqttService{fileClient: fileClient}
			cfg, err := helper.loadTLSConfig(opts.CACertificate)
			if err != nil {
				return nil, err
			}
			s.tlsConfig = cfg
		}
	case "tcp", "mqtt", "":
	default:
		return nil, fmt.Errorf("unsupported mqtt broker scheme %q", brokerURL.Scheme)
	}
	s.dial = s.dialBroker
	return s, nil
}

func (s *MqttV5Service) dialBroker(ctx context.Context) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: s.opts.ConnectTimeout}
	if s.tlsConfig != nil {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: s.tlsConfig}
		return tlsDialer.DialContext(ctx, "tcp", s.brokerURL.Host)
	}
	return dialer.DialContext(ctx, "tcp", s.brokerURL.Host)
}

// Connect dials the broker and sends CONNECT, once.
func (s *MqttV5Service) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.brokerURL.Host, err)
	}

	client := s.newClient(paho.ClientConfig{
		ClientID: s.opts.ClientID,
		Conn:     conn,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				s.onPublish(pr.Packet.Topic, pr.Packet.Payload)
				return true, nil
			},
		},
		OnClientError: func(err error) {
			s.connected.Store(false)
			s.logger.Warn().Err(err).Str("broker", s.opts.Broker).Msg("MQTT connection lost")
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			s.connected.Store(false)
			s.logger.Warn().Uint8("reason_code", d.ReasonCode).Str("broker", s.opts.Broker).Msg("MQTT broker closed the session")
		},
	})

	cp := &paho.Connect{
		ClientID:   s.opts.ClientID,
		KeepAlive:  uint16(s.opts.KeepAlive / time.Second),
		CleanStart: true,
	}
	if s.opts.Username != "" {
		cp.Username = s.opts.Username
		cp.UsernameFlag = true
		cp.Password = []byte(s.opts.Password)
		cp.PasswordFlag = true
	}

	connack, err := client.Connect(ctx, cp)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("mqtt connect: %w", err)
	}
	if connack != nil && connack.ReasonCode >= 0x80 {
		_ = conn.Close()
		return fmt.Errorf("mqtt connect refused: reason code %d", connack.ReasonCode)
	}

	s.mu.Lock()
	s.client = client
	s.handlers = make(map[string]MessageHandler)
	s.mu.Unlock()
	s.connected.Store(true)

	s.logger.Info().Str("broker", s.opts.Broker).Msg("Connected to MQTT broker")
	return nil
}

func (s *MqttV5Service) onPublish(topic string, payload []byte) {
	s.mu.Lock()
	var handler MessageHandler
	for filter, h := range s.handlers {
		if topicMatches(filter, topic) {
			handler = h
			break
		}
	}
	s.mu.Unlock()

	if handler == nil {
		s.logger.Debug().Str("topic", topic).Msg("Message on unsubscribed topic ignored")
		return
	}
	s.inbound.enqueue(handler, topic, payload)
}

// IsConnected reports whether the broker session is up.
func (s *MqttV5Service) IsConnected() bool {
	return s.connected.Load()
}

func (s *MqttV5Service) currentClient() (v5Client, error) {
	if !s.IsConnected() {
		return nil, constants.ErrSessionNotConnected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, constants.ErrSessionNotConnected
	}
	return s.client, nil
}

// Subscribe subscribes to topic. Messages are queued until Poll.
func (s *MqttV5Service) Subscribe(topic string, qos byte, handler MessageHandler) error {
	client, err := s.currentClient()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.handlers[topic] = handler
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ConnectTimeout)
	defer cancel()

	suback, err := client.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: topic, QoS: qos}},
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	if suback != nil {
		for _, code := range suback.Reasons {
			if code >= 0x80 {
				return fmt.Errorf("subscribe to %s refused: reason code %d", topic, code)
			}
		}
	}
	return nil
}

// Publish sends a message to the specified topic.
func (s *MqttV5Service) Publish(topic string, qos byte, retained bool, payload []byte) error {
	client, err := s.currentClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ConnectTimeout)
	defer cancel()

	if _, err := client.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     qos,
		Retain:  retained,
		Payload: payload,
	}); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Poll dispatches queued inbound messages on the calling goroutine.
func (s *MqttV5Service) Poll() int {
	return s.inbound.poll()
}

// Disconnect sends DISCONNECT and drops the client.
func (s *MqttV5Service) Disconnect(_ uint) {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	s.connected.Store(false)
	if client == nil {
		return
	}
	if err := client.Disconnect(&paho.Disconnect{ReasonCode: 0}); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Debug().Err(err).Msg("MQTT disconnect")
	}
}

// Broker returns the broker address.
func (s *MqttV5Service) Broker() string {
	return s.opts.Broker
}
