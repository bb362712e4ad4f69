package model

import (
	"encoding/json"
	"fmt"
)

// ClientMessage is one of the frames a connected client may send: Hello,
// Register, Unregister, Ack, or Nack. The concrete type is recovered from
// the wire "messageType" discriminator by DecodeClientMessage.
type ClientMessage interface {
	clientMessage()
}

type HelloClientMessage struct {
	UAID       *string `json:"uaid,omitempty"`
	UseWebPush *bool   `json:"use_webpush,omitempty"`
}

type RegisterClientMessage struct {
	ChannelID ChannelID `json:"channelID"`
	Key       *string   `json:"key,omitempty"`
}

type UnregisterClientMessage struct {
	ChannelID ChannelID `json:"channelID"`
	Code      *int32    `json:"code,omitempty"`
}

// AckUpdate is one (channelID, version) tuple the client is acknowledging.
type AckUpdate struct {
	ChannelID ChannelID `json:"channelID"`
	Version   string    `json:"version"`
}

type AckClientMessage struct {
	Updates []AckUpdate `json:"updates"`
}

// NackClientMessage's contents are ignored beyond counting the event; the
// field is kept for forward compatibility with richer nack payloads.
type NackClientMessage struct {
	Code *int32 `json:"code,omitempty"`
}

func (HelloClientMessage) clientMessage()      {}
func (RegisterClientMessage) clientMessage()   {}
func (UnregisterClientMessage) clientMessage() {}
func (AckClientMessage) clientMessage()        {}
func (NackClientMessage) clientMessage()       {}

// wireEnvelope is the shape shared by every client frame: a messageType
// discriminator plus variant-specific fields, flattened.
type wireEnvelope struct {
	MessageType string `json:"messageType"`
}

// DecodeClientMessage parses a single already-framed client message (one
// websocket text frame's payload). The websocket framing layer itself
// (ping/pong, fragmentation) is out of scope; this only handles the
// already-reassembled JSON payload.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("model: decode client message envelope: %w", err)
	}

	switch env.MessageType {
	case "hello":
		var m HelloClientMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("model: decode hello: %w", err)
		}
		return m, nil
	case "register":
		var m RegisterClientMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("model: decode register: %w", err)
		}
		return m, nil
	case "unregister":
		var m UnregisterClientMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("model: decode unregister: %w", err)
		}
		return m, nil
	case "ack":
		var m AckClientMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("model: decode ack: %w", err)
		}
		return m, nil
	case "nack":
		var m NackClientMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("model: decode nack: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("model: unknown messageType %q", env.MessageType)
	}
}

// ServerMessage is one of the frames sent to a connected client: Hello,
// Register, Unregister, or a pushed Notification.
type ServerMessage interface {
	MarshalJSON() ([]byte, error)
}

type HelloServerMessage struct {
	UAID       string `json:"uaid"`
	Status     int    `json:"status"`
	UseWebPush bool   `json:"use_webpush"`
}

func (m HelloServerMessage) MarshalJSON() ([]byte, error) {
	type wire struct {
		MessageType string `json:"messageType"`
		UAID        string `json:"uaid"`
		Status      int    `json:"status"`
		UseWebPush  bool   `json:"use_webpush"`
	}
	return json.Marshal(wire{"hello", m.UAID, m.Status, m.UseWebPush})
}

type RegisterServerMessage struct {
	ChannelID    ChannelID `json:"channelID"`
	Status       int       `json:"status"`
	PushEndpoint string    `json:"pushEndpoint"`
}

func (m RegisterServerMessage) MarshalJSON() ([]byte, error) {
	type wire struct {
		MessageType  string `json:"messageType"`
		ChannelID    string `json:"channelID"`
		Status       int    `json:"status"`
		PushEndpoint string `json:"pushEndpoint"`
	}
	return json.Marshal(wire{"register", m.ChannelID.Hyphenated(), m.Status, m.PushEndpoint})
}

type UnregisterServerMessage struct {
	ChannelID ChannelID `json:"channelID"`
	Status    int       `json:"status"`
}

func (m UnregisterServerMessage) MarshalJSON() ([]byte, error) {
	type wire struct {
		MessageType string `json:"messageType"`
		ChannelID   string `json:"channelID"`
		Status      int    `json:"status"`
	}
	return json.Marshal(wire{"unregister", m.ChannelID.Hyphenated(), m.Status})
}

type NotificationServerMessage struct {
	Notification Notification
}

func (m NotificationServerMessage) MarshalJSON() ([]byte, error) {
	type wire struct {
		MessageType string  `json:"messageType"`
		ChannelID   string  `json:"channelID"`
		Version     string  `json:"version"`
		Topic       *string `json:"topic,omitempty"`
		Data        []byte  `json:"data,omitempty"`
		Headers     map[string]string `json:"headers,omitempty"`
	}
	n := m.Notification
	return json.Marshal(wire{"notification", n.ChannelID.Hyphenated(), n.Version, n.Topic, n.Data, n.Headers})
}
