package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	// DefaultBufferSize is how many messages are kept for replay while the
	// broker is unreachable.
	DefaultBufferSize = 256
)

// RealPublisher publishes to an actual MQTT broker. Messages published while
// disconnected are buffered and replayed in order once the connection is back.
type RealPublisher struct {
	client paho.Client
	logger *zap.SugaredLogger

	mu        sync.Mutex // serializes publishes with the replay on connect
	buffer    *ringBuffer
	connected bool // at least one connection has succeeded
}

// NewRealPublisher creates a publisher for the given broker. A broker that is
// unreachable at startup is not an error: the client keeps retrying in the
// background and messages are buffered meanwhile.
func NewRealPublisher(broker, clientID string, logger *zap.SugaredLogger) (*RealPublisher, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	p := &RealPublisher{
		logger: logger,
		buffer: newRingBuffer(DefaultBufferSize, logger),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(WillPayload()), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warnw("mqtt connection lost", "broker", broker, "error", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		logger.Warnw("mqtt broker not reachable yet, buffering", "broker", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// onConnect replays buffered messages. On a reconnect it also announces
// RECONNECTED, since the broker will have published the will.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.connected {
		payload, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err == nil {
			client.Publish(TopicSystem, 1, true, payload)
		}
	}
	p.connected = true

	pending := p.buffer.drainAll()
	for _, msg := range pending {
		client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	}
	p.logger.Infow("mqtt connected", "replayed", len(pending))
}

// Publish sends a thermostat event to the MQTT broker.
func (p *RealPublisher) Publish(event Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(bufferedMsg{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) so lifecycle events survive a flaky link
	return p.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) publish(msg bufferedMsg) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.buffer.push(msg)
		p.mu.Unlock()
		return nil
	}
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	p.mu.Unlock()

	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is currently open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
