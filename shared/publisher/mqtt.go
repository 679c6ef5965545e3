package publisher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"meteo-stack/internal/models"
	"meteo-stack/shared/config"
	"meteo-stack/shared/logger"
)

// mqttClient is the part of mqtt.Client the publisher uses
type mqttClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

const connectRetryInterval = 5 * time.Second

type MQTTPublisher struct {
	client  mqttClient
	topic   string
	qos     byte
	timeout time.Duration
	logger  logger.Logger
}

// NewMQTTPublisher connects to the broker in cfg.URL. Credentials are taken
// from the URL user info, and a CA certificate file enables TLS verification
// against a private CA. An unreachable broker is not an error: the client
// keeps retrying and publishes fail until it is connected.
func NewMQTTPublisher(cfg config.MQTTConfig, topic string, log logger.Logger) (*MQTTPublisher, error) {
	opts, err := clientOptions(cfg, log)
	if err != nil {
		return nil, err
	}

	return newMQTTPublisher(mqtt.NewClient(opts), cfg, topic, log), nil
}

func newMQTTPublisher(client mqttClient, cfg config.MQTTConfig, topic string, log logger.Logger) *MQTTPublisher {
	p := &MQTTPublisher{
		client:  client,
		topic:   topic,
		qos:     cfg.QoS,
		timeout: cfg.ConnectTimeout,
		logger:  log,
	}
	p.connect()
	return p
}

func clientOptions(cfg config.MQTTConfig, log logger.Logger) (*mqtt.ClientOptions, error) {
	brokerURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid MQTT URL: %w", err)
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "meteo-display-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(connectRetryInterval).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetOnConnectHandler(func(mqtt.Client) {
			log.Info("Connected to mqtt")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Errorf("MQTT error: %v", err)
		})

	if user := brokerURL.User; user != nil {
		opts.SetUsername(user.Username())
		if password, ok := user.Password(); ok {
			opts.SetPassword(password)
		}
	}

	if cfg.CACertificatePath != "" {
		tlsConfig, err := loadTLSConfig(cfg.CACertificatePath)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return opts, nil
}

func loadTLSConfig(caPath string) (*tls.Config, error) {
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", caPath)
	}

	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// connect waits up to the connect timeout for the first connection. Failures
// are logged only, the client retries in the background.
func (p *MQTTPublisher) connect() {
	token := p.client.Connect()
	if !token.WaitTimeout(p.timeout) {
		p.logger.Warnf("MQTT broker not reachable after %s, retrying in background", p.timeout)
		return
	}
	if err := token.Error(); err != nil {
		p.logger.Errorf("Failed to connect to MQTT broker: %v", err)
	}
}

func (p *MQTTPublisher) Publish(ctx context.Context, data *models.DisplayData) error {
	payload, err := Encode(data)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, p.qos, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timed out publishing to %s", p.topic)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}

	p.logger.Debugf("Published %d bytes to %s", len(payload), p.topic)
	return nil
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
