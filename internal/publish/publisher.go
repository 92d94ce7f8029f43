package publish

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/banshee-data/touchd/internal/monitoring"
	"github.com/banshee-data/touchd/internal/touch/l1reports"
	"github.com/banshee-data/touchd/internal/touch/pipeline"
)

// publishTimeout bounds the wait for a publish token.
const publishTimeout = time.Second

// Config holds the MQTT connection and payload settings. An empty Broker
// disables publishing.
type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Format      Format
}

// Publisher publishes processed frames to MQTT. It implements
// pipeline.Sink and pipeline.StylusSink.
type Publisher struct {
	client mqtt.Client
	config Config
	qos    byte
	retain bool

	mu        sync.Mutex
	published uint64
}

// NewPublisher connects to the configured broker. Without a broker the
// returned publisher drops everything.
func NewPublisher(config Config) (*Publisher, error) {
	if config.Broker == "" {
		monitoring.Logf("MQTT disabled: no broker configured")
		return NewPublisherWithClient(nil, config), nil
	}
	if _, err := ParseFormat(string(config.Format)); err != nil {
		return nil, err
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	clientID := config.ClientID
	if clientID == "" {
		clientID = "touchd"
	}
	opts.SetClientID(clientID)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetOrderMatters(false)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		monitoring.Logf("Connected to MQTT broker %s", config.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		monitoring.Logf("MQTT connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	go func() {
		// With connect retry enabled the token only completes once
		// connected or when the client is disconnected.
		if token.Wait() && token.Error() != nil {
			monitoring.Logf("MQTT connection failed: %v", token.Error())
		}
	}()

	return NewPublisherWithClient(client, config), nil
}

// NewPublisherWithClient wraps an existing client. A nil client disables
// publishing.
func NewPublisherWithClient(client mqtt.Client, config Config) *Publisher {
	if config.TopicPrefix == "" {
		config.TopicPrefix = "touchd"
	}
	if config.Format == "" {
		config.Format = FormatJSON
	}
	return &Publisher{
		client: client,
		config: config,
		qos:    0,     // fire and forget
		retain: false, // contacts are only meaningful while fresh
	}
}

// Enabled reports whether a broker is configured.
func (p *Publisher) Enabled() bool {
	return p.client != nil
}

// ContactsTopic returns the topic frames are published to.
func (p *Publisher) ContactsTopic() string {
	return p.config.TopicPrefix + "/contacts"
}

// StylusTopic returns the topic stylus samples are published to.
func (p *Publisher) StylusTopic() string {
	return p.config.TopicPrefix + "/stylus"
}

// Published returns the number of frames published so far.
func (p *Publisher) Published() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published
}

// Consume publishes a frame.
func (p *Publisher) Consume(out pipeline.Output) error {
	if p.client == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	m := Message{Seq: out.Seq, Time: out.Time, Contacts: out.Contacts}
	var payload []byte
	if p.config.Format == FormatBinary {
		payload = EncodeFrame(m)
	} else {
		var err error
		if payload, err = json.Marshal(NewFrameJSON(m)); err != nil {
			return fmt.Errorf("encode frame: %w", err)
		}
	}

	if err := p.publish(p.ContactsTopic(), payload); err != nil {
		return err
	}
	p.published++
	return nil
}

// StylusJSON is the JSON form of a stylus sample.
type StylusJSON struct {
	Proximity bool    `json:"proximity"`
	Contact   bool    `json:"contact"`
	Button    bool    `json:"button"`
	Rubber    bool    `json:"rubber"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Pressure  float64 `json:"pressure"`
	Altitude  float64 `json:"altitude"`
	Azimuth   float64 `json:"azimuth"`
}

// ConsumeStylus publishes a stylus sample as JSON.
func (p *Publisher) ConsumeStylus(s l1reports.StylusSample) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(StylusJSON{
		Proximity: s.Proximity,
		Contact:   s.Contact,
		Button:    s.Button,
		Rubber:    s.Rubber,
		X:         s.X,
		Y:         s.Y,
		Pressure:  s.Pressure,
		Altitude:  s.Altitude,
		Azimuth:   s.Azimuth,
	})
	if err != nil {
		return fmt.Errorf("encode stylus: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publish(p.StylusTopic(), payload)
}

func (p *Publisher) publish(topic string, payload []byte) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("publish %s: %w", topic, mqtt.ErrNotConnected)
	}
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout after %v", topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.client != nil {
		p.client.Disconnect(250)
	}
}
