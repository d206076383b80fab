// Package mqtt publishes meter snapshots to an MQTT broker, the output
// adapter spec.md §1 names alongside JSON/fields/shell. It is the
// wmbus-domain counterpart of serebryakov7-j1708-stats's
// pkg/mqtt.MQTTClient: connect with auto-reconnect, publish retained
// JSON per reading.
package mqtt

import (
	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/wmbusd/wmbusd/internal/logging"
	"github.com/wmbusd/wmbusd/internal/wmbus/meter"
)

// Config holds the broker connection and topic settings for a
// Publisher.
type Config struct {
	Broker   string
	ClientID string
	// Topic is the base topic; each meter publishes to Topic/<name>.
	Topic string
	QoS   byte
}

// Publisher publishes meter snapshots as retained JSON messages.
type Publisher struct {
	cfg    Config
	client paho.Client
}

// NewPublisher builds a Publisher for cfg. Call Connect before
// Publish.
func NewPublisher(cfg Config) *Publisher {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(func(paho.Client) {
		logging.Info("mqtt connected", zap.String("broker", cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logging.Warn("mqtt connection lost", zap.Error(err))
	})
	return &Publisher{cfg: cfg, client: paho.NewClient(opts)}
}

// Connect dials the broker and blocks until connected or failed.
func (p *Publisher) Connect() error {
	token := p.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: connect to %s: %w", p.cfg.Broker, err)
	}
	return nil
}

// Disconnect closes the connection, waiting up to 250ms for in-flight
// publishes to drain.
func (p *Publisher) Disconnect() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// Publish sends m's current snapshot as a retained JSON message on
// cfg.Topic/<meter name>.
func (p *Publisher) Publish(m *meter.Meter) error {
	snap := m.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("mqtt: marshal snapshot for %s: %w", m.Name, err)
	}
	topic := fmt.Sprintf("%s/%s", p.cfg.Topic, m.Name)
	token := p.client.Publish(topic, p.cfg.QoS, true, data)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish to %s: %w", topic, err)
	}
	return nil
}
