// Package mqtt publishes run progress and results to the depot dashboard
// over MQTT. The engine core is transport-free; this adapter subscribes to
// the engine's progress channel on the caller's behalf and is entirely
// optional.
package mqtt

import (
	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kochimetro/inductd/core/events"
	"github.com/kochimetro/inductd/core/induction"
	"github.com/kochimetro/inductd/infra/logger"
)

// Config defines the connection parameters for the dashboard publisher.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "inductd"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "induction"
	}
}

// pahoClient is the subset of the Paho client the publisher uses, split out
// so tests can substitute a fake.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher pushes progress events and run results to the dashboard topics.
type Publisher struct {
	cli    pahoClient
	prefix string
	qos    byte
	log    logger.Logger
}

// NewPublisher connects to the broker and returns a ready publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	log := logger.New("mqtt-publisher")
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Publisher{cli: c, prefix: cfg.TopicPrefix, qos: cfg.QoS, log: log}, nil
}

// PublishProgress pushes one progress event. The payload mirrors the
// engine's advisory contract: monotonic percent plus a stage label.
func (p *Publisher) PublishProgress(ev events.ProgressEvent) error {
	return p.publish(p.prefix+"/run/progress", ev)
}

// PublishRun pushes a completed run's ranked results and fleet metrics.
// The latest result is retained on the topic so a dashboard connecting
// between planning cycles still renders the current plan.
func (p *Publisher) PublishRun(res *induction.RunResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal run result: %w", err)
	}
	token := p.cli.Publish(p.prefix+"/run/result", p.qos, true, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (p *Publisher) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	token := p.cli.Publish(topic, p.qos, false, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
