package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kochimetro/inductd/core/events"
	"github.com/kochimetro/inductd/core/induction"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type mockClient struct {
	published    []published
	disconnected bool
}

func (m *mockClient) IsConnected() bool       { return true }
func (m *mockClient) Connect() paho.Token     { return &mockToken{} }
func (m *mockClient) Disconnect(quiesce uint) { m.disconnected = true }
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.published = append(m.published, published{topic, retained, payload.([]byte)})
	return &mockToken{}
}

type mockToken struct{}

func (t *mockToken) Wait() bool                       { return true }
func (t *mockToken) WaitTimeout(_ time.Duration) bool { return true }
func (t *mockToken) Error() error                     { return nil }
func (t *mockToken) Done() <-chan struct{}            { return make(chan struct{}) }

func newMockPublisher(t *testing.T) (*Publisher, *mockClient) {
	t.Helper()
	mc := &mockClient{}
	orig := newMQTTClient
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return mc }
	t.Cleanup(func() { newMQTTClient = orig })

	p, err := NewPublisher(Config{Broker: "tcp://localhost:1883"})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	return p, mc
}

func TestPublishProgress(t *testing.T) {
	p, mc := newMockPublisher(t)

	ev := events.ProgressEvent{RunID: "run-1", Percent: 42, Stage: "evaluating trainsets"}
	if err := p.PublishProgress(ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.published) != 1 {
		t.Fatalf("published %d messages, expected 1", len(mc.published))
	}
	msg := mc.published[0]
	if msg.topic != "induction/run/progress" {
		t.Errorf("topic = %s", msg.topic)
	}
	if msg.retained {
		t.Error("progress events must not be retained")
	}
	var got events.ProgressEvent
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got != ev {
		t.Errorf("payload = %+v, expected %+v", got, ev)
	}
}

func TestPublishRunRetainsResult(t *testing.T) {
	p, mc := newMockPublisher(t)

	res := &induction.RunResult{RunID: "run-2"}
	if err := p.PublishRun(res); err != nil {
		t.Fatalf("publish: %v", err)
	}
	msg := mc.published[0]
	if msg.topic != "induction/run/result" {
		t.Errorf("topic = %s", msg.topic)
	}
	if !msg.retained {
		t.Error("run results must be retained for late dashboard connects")
	}
}

func TestClose(t *testing.T) {
	p, mc := newMockPublisher(t)
	p.Close()
	if !mc.disconnected {
		t.Error("close must disconnect the client")
	}
}
