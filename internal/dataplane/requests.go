package dataplane

import "github.com/webitel/webpush-connection-engine/internal/domain/model"

// request is implemented by every outbound call envelope. Command is the
// snake_case discriminator the data plane switches on.
type request interface {
	Command() string
}

type helloRequest struct {
	Command_    string  `json:"command"`
	ConnectedAt int64   `json:"connected_at"`
	UAID        *string `json:"uaid,omitempty"`
}

func (r helloRequest) Command() string { return r.Command_ }

func newHelloRequest(connectedAtMicros int64, uaid *model.UserID) helloRequest {
	r := helloRequest{Command_: "hello", ConnectedAt: connectedAtMicros}
	if uaid != nil {
		compact := uaid.Compact()
		r.UAID = &compact
	}
	return r
}

type registerRequest struct {
	Command_     string  `json:"command"`
	UAID         string  `json:"uaid"`
	ChannelID    string  `json:"channel_id"`
	MessageMonth string  `json:"message_month"`
	Key          *string `json:"key,omitempty"`
}

func (r registerRequest) Command() string { return r.Command_ }

type unregisterRequest struct {
	Command_     string `json:"command"`
	UAID         string `json:"uaid"`
	ChannelID    string `json:"channel_id"`
	MessageMonth string `json:"message_month"`
	Code         int32  `json:"code"`
}

func (r unregisterRequest) Command() string { return r.Command_ }

type checkStorageRequest struct {
	Command_     string `json:"command"`
	UAID         string `json:"uaid"`
	MessageMonth string `json:"message_month"`
	IncludeTopic bool   `json:"include_topic"`
	Timestamp    *int64 `json:"timestamp,omitempty"`
}

func (r checkStorageRequest) Command() string { return r.Command_ }

type deleteMessageRequest struct {
	Command_     string             `json:"command"`
	MessageMonth string             `json:"message_month"`
	Message      model.Notification `json:"message"`
}

func (r deleteMessageRequest) Command() string { return r.Command_ }

type incStoragePositionRequest struct {
	Command_     string `json:"command"`
	UAID         string `json:"uaid"`
	MessageMonth string `json:"message_month"`
	Timestamp    int64  `json:"timestamp"`
}

func (r incStoragePositionRequest) Command() string { return r.Command_ }

type dropUserRequest struct {
	Command_ string `json:"command"`
	UAID     string `json:"uaid"`
}

func (r dropUserRequest) Command() string { return r.Command_ }

type migrateUserRequest struct {
	Command_     string `json:"command"`
	UAID         string `json:"uaid"`
	MessageMonth string `json:"message_month"`
}

func (r migrateUserRequest) Command() string { return r.Command_ }

type storeMessagesRequest struct {
	Command_     string               `json:"command"`
	MessageMonth string               `json:"message_month"`
	Messages     []model.Notification `json:"messages"`
}

func (r storeMessagesRequest) Command() string { return r.Command_ }
