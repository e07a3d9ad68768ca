package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/envnode/internal/constants"
	"github.com/benmeehan/envnode/pkg/file"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// DefaultConnectTimeout bounds a single connect, subscribe or publish exchange.
const DefaultConnectTimeout = 5 * time.Second

// Options holds what is needed to reach the broker.
type Options struct {
	Broker         string
	ClientID       string
	CACertificate  string
	Username       string
	Password       string
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	InboundBuffer  int
}

// MQTTClient defines the subset of the paho client used by MqttService.
type MQTTClient interface {
	Connect() mqtt.Token
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
	Disconnect(quiesce uint)
}

// MqttService is an MQTT 3.1.1 Session backed by paho.mqtt.golang.
// Automatic reconnection is disabled: reconnecting and resubscribing is
// driven by the connectivity supervisor.
type MqttService struct {
	client         MQTTClient
	fileClient     file.FileOperations
	logger         zerolog.Logger
	broker         string
	connectTimeout time.Duration
	inbound        *inboundQueue
}

// NewMqttService creates a new MqttService instance.
func NewMqttService(fileClient file.FileOperations, logger zerolog.Logger) *MqttService {
	return &MqttService{
		fileClient:     fileClient,
		logger:         logger,
		connectTimeout: DefaultConnectTimeout,
		inbound:        newInboundQueue(DefaultInboundBuffer, logger),
	}
}

// Initialize builds the paho client from opts. It does not connect.
func (s *MqttService) Initialize(opts Options) error {
	if opts.Broker == "" {
		return errors.New("mqtt broker address is empty")
	}

	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.Broker)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetCleanSession(true)
	clientOpts.SetAutoReconnect(false)
	clientOpts.SetConnectRetry(false)
	clientOpts.SetOrderMatters(true)

	if opts.KeepAlive > 0 {
		clientOpts.SetKeepAlive(opts.KeepAlive)
	}
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
		s.connectTimeout = opts.ConnectTimeout
	}
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}

	if opts.CACertificate != "" {
		tlsConfig, err := s.loadTLSConfig(opts.CACertificate)
		if err != nil {
			return err
		}
		clientOpts.SetTLSConfig(tlsConfig)
	}

	clientOpts.SetOnConnectHandler(func(mqtt.Client) {
		s.logger.Info().Str("broker", opts.Broker).Msg("Connected to MQTT broker")
	})
	clientOpts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Warn().Err(err).Str("broker", opts.Broker).Msg("MQTT connection lost")
	})

	if opts.InboundBuffer > 0 {
		s.inbound = newInboundQueue(opts.InboundBuffer, s.logger)
	}
	s.broker = opts.Broker
	s.client = mqtt.NewClient(clientOpts)
	return nil
}

// SetClient replaces the underlying client.
func (s *MqttService) SetClient(client MQTTClient, broker string) {
	s.client = client
	s.broker = broker
}

func (s *MqttService) loadTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := s.fileClient.ReadFileRaw(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to append CA certificate")
	}
	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// Connect makes one attempt to connect to the broker. An attempt that
// times out or is cancelled is aborted.
func (s *MqttService) Connect(ctx context.Context) error {
	if s.client == nil {
		return errors.New("mqtt client is not initialized")
	}

	token := s.client.Connect()
	timer := time.NewTimer(s.connectTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		s.client.Disconnect(0)
		return fmt.Errorf("connect to %s timed out after %s", s.broker, s.connectTimeout)
	case <-ctx.Done():
		s.client.Disconnect(0)
		return ctx.Err()
	}
}

// IsConnected reports whether the broker session is up.
func (s *MqttService) IsConnected() bool {
	return s.client != nil && s.client.IsConnected()
}

// Subscribe subscribes to topic. Messages are queued until Poll.
func (s *MqttService) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if !s.IsConnected() {
		return constants.ErrSessionNotConnected
	}

	token := s.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.inbound.enqueue(handler, msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(s.connectTimeout) {
		return fmt.Errorf("subscribe to %s timed out", topic)
	}
	return token.Error()
}

// Publish sends a message to the specified topic.
func (s *MqttService) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if !s.IsConnected() {
		return constants.ErrSessionNotConnected
	}

	token := s.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(s.connectTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// Poll dispatches queued inbound messages on the calling goroutine.
func (s *MqttService) Poll() int {
	return s.inbound.poll()
}

// Disconnect gracefully disconnects the MQTT client.
func (s *MqttService) Disconnect(quiesce uint) {
	if s.IsConnected() {
		s.client.Disconnect(quiesce)
	}
}

// Broker returns the broker address.
func (s *MqttService) Broker() string {
	return s.broker
}
