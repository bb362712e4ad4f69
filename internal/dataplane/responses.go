package dataplane

import "github.com/webitel/webpush-connection-engine/internal/domain/model"

// errorEnvelope is the shape every reply is first probed against: if
// Error is true, the call failed with RemoteError(ErrorMsg) regardless of
// which variant was issued.
type errorEnvelope struct {
	Error    bool   `json:"error"`
	ErrorMsg string `json:"error_msg"`
}

type HelloResponse struct {
	UAID               *string `json:"uaid"`
	MessageMonth       string  `json:"message_month"`
	CheckStorage       bool    `json:"check_storage"`
	ResetUAID          bool    `json:"reset_uaid"`
	RotateMessageTable bool    `json:"rotate_message_table"`
	ConnectedAt        uint64  `json:"connected_at"`
}

// RegisterResponse is either a success (Endpoint set) or a remote error
// (ErrorMsg set); Register/Unregister RemoteErrors are not fatal, they
// are converted to non-200 outbound frames by the caller. Status is
// filled only when the reply itself decodes into this type; a reply
// carrying the {error: true} envelope yields ErrorMsg alone, Status
// stays 0, and the session answers the client with status 500.
type RegisterResponse struct {
	Endpoint string `json:"endpoint"`
	ErrorMsg string `json:"error_msg"`
	Status   int    `json:"status"`
	isError  bool
}

func (r RegisterResponse) IsError() bool { return r.isError }

type UnregisterResponse struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"error_msg"`
	Status   int    `json:"status"`
	isError  bool
}

func (r UnregisterResponse) IsError() bool { return r.isError }

type CheckStorageResponse struct {
	IncludeTopic bool                  `json:"include_topic"`
	Messages     []model.Notification `json:"messages"`
	Timestamp    *int64                `json:"timestamp"`
}

type DeleteMessageResponse struct {
	Success bool `json:"success"`
}

type IncStorageResponse struct {
	Success bool `json:"success"`
}

type DropUserResponse struct {
	Success bool `json:"success"`
}

type MigrateUserResponse struct {
	MessageMonth string `json:"message_month"`
}

type StoreMessagesResponse struct {
	Success bool `json:"success"`
}
