package rtcwatch

import (
	"errors"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var ErrPublishTimeout = errors.New("rtcwatch: mqtt publish timed out")

// MQTTClient is the part of mqtt.Client used for publishing.
type MQTTClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher publishes events to <prefix>/alarm and <prefix>/timer with QoS 1. The payload is the event time in
// RFC 3339, or empty when the time is unknown.
type MQTTPublisher struct {
	client  MQTTClient
	prefix  string
	Timeout time.Duration
}

func NewMQTTPublisher(client MQTTClient, prefix string) *MQTTPublisher {
	return &MQTTPublisher{
		client:  client,
		prefix:  prefix,
		Timeout: 5 * time.Second,
	}
}

func (p *MQTTPublisher) Publish(e Event) error {
	payload := ""
	if !e.At.IsZero() {
		payload = e.At.UTC().Format(time.RFC3339)
	}
	token := p.client.Publish(p.prefix+"/"+string(e.Kind), 1, false, payload)
	if !token.WaitTimeout(p.Timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}
