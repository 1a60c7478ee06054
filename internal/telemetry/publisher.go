// Package telemetry publishes controller events to an MQTT broker.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ayusman/signalhand/internal/config"
	"github.com/ayusman/signalhand/internal/controller"
	"github.com/ayusman/signalhand/internal/protocol"
	"github.com/ayusman/signalhand/internal/timing"
)

// Message is the JSON payload of one event.
type Message struct {
	ID       string               `json:"id"`
	Kind     string               `json:"kind"`
	At       time.Time            `json:"at"`
	Label    string               `json:"label,omitempty"`
	Channel  string               `json:"channel,omitempty"`
	Value    int                  `json:"value,omitempty"`
	Source   string               `json:"source,omitempty"`
	Commands []string             `json:"commands,omitempty"`
	Line     string               `json:"line,omitempty"`
	Timing   timing.Params        `json:"timing"`
	Device   protocol.DeviceState `json:"device"`
}

// Publisher forwards events to MQTT. Events are dropped while the broker
// is unreachable; paho reconnects in the background.
type Publisher struct {
	config config.MQTTConfig
	client mqtt.Client

	mu        sync.RWMutex
	connected bool
	published int
	dropped   int
}

// NewPublisher creates a publisher. Nothing connects until Start.
func NewPublisher(cfg config.MQTTConfig) *Publisher {
	return &Publisher{config: cfg}
}

// Start connects to the broker. It is a no-op when MQTT is disabled.
func (p *Publisher) Start() error {
	if !p.config.Enabled {
		log.Println("MQTT telemetry disabled")
		return nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.config.Broker)
	opts.SetClientID(p.config.ClientID)

	if p.config.Username != "" {
		opts.SetUsername(p.config.Username)
		opts.SetPassword(p.config.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetWill(p.Topic("status"), "offline", p.config.QoS, true)

	opts.SetOnConnectHandler(p.onConnect)
	opts.SetConnectionLostHandler(p.onConnectionLost)

	p.client = mqtt.NewClient(opts)

	log.Printf("Connecting to MQTT broker %s", p.config.Broker)
	token := p.client.Connect()
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		return fmt.Errorf("failed to connect to mqtt: %w", token.Error())
	}
	return nil
}

// Stop announces offline and disconnects.
func (p *Publisher) Stop() {
	if p.client == nil {
		return
	}
	if p.client.IsConnected() {
		p.publishRaw(p.Topic("status"), []byte("offline"), true)
		p.client.Disconnect(250)
	}
	log.Println("MQTT telemetry stopped")
}

func (p *Publisher) onConnect(client mqtt.Client) {
	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()

	log.Println("MQTT connected")
	p.publishRaw(p.Topic("status"), []byte("online"), true)
}

func (p *Publisher) onConnectionLost(client mqtt.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()

	log.Printf("MQTT connection lost: %v", err)
}

// Connected reports whether the broker connection is up.
func (p *Publisher) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

// Stats returns how many events were published and dropped.
func (p *Publisher) Stats() (published, dropped int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.published, p.dropped
}

// Topic joins the configured prefix and a suffix.
func (p *Publisher) Topic(suffix string) string {
	prefix := strings.TrimSuffix(p.config.TopicPrefix, "/")
	if prefix == "" {
		return suffix
	}
	return prefix + "/" + suffix
}

// TopicFor returns the topic an event is published on: events/<kind>.
func (p *Publisher) TopicFor(ev controller.Event) string {
	return p.Topic("events/" + string(ev.Kind))
}

// Encode renders an event as its JSON payload.
func Encode(ev controller.Event) ([]byte, error) {
	msg := Message{
		ID:       ev.ID,
		Kind:     string(ev.Kind),
		At:       ev.At,
		Channel:  string(ev.Channel),
		Value:    ev.Value,
		Source:   ev.Source,
		Commands: ev.Commands,
		Line:     ev.Line,
		Timing:   ev.Timing,
		Device:   ev.Device,
	}
	if ev.Label != "" {
		msg.Label = ev.Label.String()
	}
	return json.Marshal(msg)
}

// Handle is a controller subscriber.
func (p *Publisher) Handle(ev controller.Event) {
	if !p.config.Enabled || !p.Connected() {
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
		return
	}

	payload, err := Encode(ev)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", ev.Kind, err)
		return
	}
	p.publishRaw(p.TopicFor(ev), payload, p.config.Retain)

	p.mu.Lock()
	p.published++
	p.mu.Unlock()
}

// publishRaw never waits on the token; the dispatcher must not stall on a slow broker.
func (p *Publisher) publishRaw(topic string, payload []byte, retain bool) {
	if p.client == nil {
		return
	}
	token := p.client.Publish(topic, p.config.QoS, retain, payload)
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.Printf("MQTT publish to %s failed: %v", topic, token.Error())
		}
	}()
}
