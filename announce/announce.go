// Package announce publishes registry activity to an MQTT broker so that IoT
// gateways can pick up newly registered devices without polling the ledger.
package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/ethereum/go-ethereum/common"

	"github.com/preetidudam/EDI-Project/config"
	"github.com/preetidudam/EDI-Project/interfaces"
	"github.com/preetidudam/EDI-Project/session"
)

const (
	defaultConnectTimeout  = 10 * time.Second
	defaultPublishTimeout  = 5 * time.Second
	defaultDisconnectQuiet = 250 // milliseconds
	maxQoS                 = 2
)

// Publisher is the part of the paho client the announcer needs.
type Publisher interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// Options configures an Announcer.
type Options struct {
	TopicPrefix    string
	QoS            byte
	PublishTimeout time.Duration
}

// Announcer publishes registrations and session state.
type Announcer struct {
	pub     Publisher
	topics  Topics
	qos     byte
	timeout time.Duration
	log     *slog.Logger
}

// RegistrationMessage is the retained payload of a registration topic.
type RegistrationMessage struct {
	DeviceID   interfaces.DeviceID `json:"deviceId"`
	Name       string              `json:"name"`
	Owner      common.Address      `json:"owner"`
	TxHash     common.Hash         `json:"txHash"`
	Resolution session.Resolution  `json:"resolution"`
}

// StatusMessage is the retained payload of the session status topic.
type StatusMessage struct {
	State   string           `json:"state"`
	Session *session.Session `json:"session,omitempty"`
}

// New returns an announcer publishing through pub.
func New(pub Publisher, opts Options, log *slog.Logger) (*Announcer, error) {
	if opts.QoS > maxQoS {
		return nil, ErrInvalidQoS
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	return &Announcer{
		pub:     pub,
		topics:  Topics{Prefix: opts.TopicPrefix},
		qos:     opts.QoS,
		timeout: opts.PublishTimeout,
		log:     log,
	}, nil
}

// Dial connects to the broker in cfg. The session status topic gets an
// "offline" last will so subscribers notice a crashed server.
func Dial(cfg config.MQTTConfig, log *slog.Logger) (*Announcer, error) {
	if cfg.QoS < 0 || cfg.QoS > maxQoS {
		return nil, ErrInvalidQoS
	}
	topics := Topics{Prefix: cfg.TopicPrefix}

	offline, err := json.Marshal(StatusMessage{State: "offline"})
	if err != nil {
		return nil, err
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetBinaryWill(topics.SessionStatus(), offline, byte(cfg.QoS), true)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Warn("MQTT connection lost", "err", err)
	})
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		log.Info("MQTT connected", "broker", cfg.Broker)
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return New(client, Options{
		TopicPrefix:    cfg.TopicPrefix,
		QoS:            byte(cfg.QoS),
		PublishTimeout: time.Duration(cfg.PublishTimeout) * time.Second,
	}, log)
}

func (a *Announcer) publish(topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	if !a.pub.IsConnected() {
		return ErrNotConnected
	}

	token := a.pub.Publish(topic, a.qos, true, payload)
	if !token.WaitTimeout(a.timeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, a.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishRegistration announces a confirmed registration.
func (a *Announcer) PublishRegistration(reg session.Registration) error {
	return a.publish(a.topics.DeviceRegistered(reg.DeviceID), RegistrationMessage{
		DeviceID:   reg.DeviceID,
		Name:       reg.Name,
		Owner:      reg.Account,
		TxHash:     reg.TxHash,
		Resolution: reg.Resolution,
	})
}

// PublishSession announces the current session state.
func (a *Announcer) PublishSession(s session.Session) error {
	state := "disconnected"
	switch {
	case s.Usable():
		state = "connected"
	case s.HasAccount():
		state = "degraded"
	}
	return a.publish(a.topics.SessionStatus(), StatusMessage{State: state, Session: &s})
}

// Run forwards manager events until ctx is done or the manager closes.
// Publish failures are logged; the ledger remains the source of truth.
func (a *Announcer) Run(ctx context.Context, m *session.Manager) {
	events := make(chan session.Event, 32)
	sub := m.Subscribe(events)
	defer sub.Unsubscribe()

	if err := a.PublishSession(m.Session()); err != nil {
		a.log.Warn("Publishing session status failed", "err", err)
	}

	for {
		select {
		case ev := <-events:
			a.handle(ev)
		case <-sub.Err():
			return
		case <-ctx.Done():
			return
		}
	}
}

func (a *Announcer) handle(ev session.Event) {
	switch ev.Kind {
	case session.EventDeviceRegistered:
		if ev.Registration == nil {
			return
		}
		if err := a.PublishRegistration(*ev.Registration); err != nil {
			a.log.Warn("Announcing registration failed", "deviceId", ev.Registration.DeviceID.Hex(), "err", err)
		}
	case session.EventAccountChanged, session.EventSessionCleared, session.EventReconnectFailed:
		if err := a.PublishSession(ev.Session); err != nil {
			a.log.Warn("Publishing session status failed", "err", err)
		}
	}
}

// Close publishes the offline status and disconnects.
func (a *Announcer) Close() {
	if a.pub.IsConnected() {
		if err := a.publish(a.topics.SessionStatus(), StatusMessage{State: "offline"}); err != nil {
			a.log.Warn("Publishing offline status failed", "err", err)
		}
	}
	a.pub.Disconnect(defaultDisconnectQuiet)
}
