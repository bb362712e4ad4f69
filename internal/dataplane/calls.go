package dataplane

import (
	"context"
	"encoding/json"

	"github.com/webitel/webpush-connection-engine/internal/domain/model"
)

// Hello performs the initial handshake call. uaid is nil on a first
// connection; connectedAtMicros is the session's wall-clock connect time
// in microseconds since the Unix epoch.
func (b *Bridge) Hello(ctx context.Context, connectedAtMicros int64, uaid *model.UserID) (HelloResponse, error) {
	raw, err := b.dispatch(ctx, newHelloRequest(connectedAtMicros, uaid))
	if err != nil {
		return HelloResponse{}, err
	}
	var resp HelloResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return HelloResponse{}, &SerializationError{Command: "hello", Cause: err}
	}
	return resp, nil
}

// Register asks the data plane to mint a push endpoint for channelID. A
// failure here is reported through RegisterResponse.IsError, not a Go
// error: the session still owes the client a (failing) register reply.
func (b *Bridge) Register(ctx context.Context, uaid model.UserID, channelID model.ChannelID, messageMonth string, key *string) (RegisterResponse, error) {
	req := registerRequest{
		Command_:     "register",
		UAID:         uaid.Compact(),
		ChannelID:    channelID.String(),
		MessageMonth: messageMonth,
		Key:          key,
	}
	raw, err := b.dispatch(ctx, req)
	if err != nil {
		var remote *RemoteError
		if asRemoteError(err, &remote) {
			return RegisterResponse{ErrorMsg: remote.Msg, isError: true}, nil
		}
		return RegisterResponse{}, err
	}
	var resp RegisterResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return RegisterResponse{}, &SerializationError{Command: "register", Cause: err}
	}
	if resp.ErrorMsg != "" {
		resp.isError = true
	}
	return resp, nil
}

// Unregister asks the data plane to tear down channelID's registration.
// Like Register, a remote failure surfaces through IsError.
func (b *Bridge) Unregister(ctx context.Context, uaid model.UserID, channelID model.ChannelID, messageMonth string, code *int32) (UnregisterResponse, error) {
	var c int32
	if code != nil {
		c = *code
	}
	req := unregisterRequest{
		Command_:     "unregister",
		UAID:         uaid.Compact(),
		ChannelID:    channelID.String(),
		MessageMonth: messageMonth,
		Code:         c,
	}
	raw, err := b.dispatch(ctx, req)
	if err != nil {
		var remote *RemoteError
		if asRemoteError(err, &remote) {
			return UnregisterResponse{ErrorMsg: remote.Msg, isError: true}, nil
		}
		return UnregisterResponse{}, err
	}
	var resp UnregisterResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return UnregisterResponse{}, &SerializationError{Command: "unregister", Cause: err}
	}
	if resp.ErrorMsg != "" {
		resp.isError = true
	}
	return resp, nil
}

// CheckStorage asks for any stored notifications at or above timestamp
// (nil means "from the beginning").
func (b *Bridge) CheckStorage(ctx context.Context, uaid model.UserID, messageMonth string, includeTopic bool, timestamp *int64) (CheckStorageResponse, error) {
	req := checkStorageRequest{
		Command_:     "check_storage",
		UAID:         uaid.Compact(),
		MessageMonth: messageMonth,
		IncludeTopic: includeTopic,
		Timestamp:    timestamp,
	}
	raw, err := b.dispatch(ctx, req)
	if err != nil {
		return CheckStorageResponse{}, err
	}
	var resp CheckStorageResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return CheckStorageResponse{}, &SerializationError{Command: "check_storage", Cause: err}
	}
	return resp, nil
}

// DeleteMessage removes a single topic-carrying stored notification.
func (b *Bridge) DeleteMessage(ctx context.Context, messageMonth string, n model.Notification) error {
	req := deleteMessageRequest{Command_: "delete_message", MessageMonth: messageMonth, Message: n}
	_, err := b.dispatch(ctx, req)
	return err
}

// IncrementStorage advances the user's storage read position past
// timestamp in one call, used to bulk-acknowledge non-topic stored
// notifications.
func (b *Bridge) IncrementStorage(ctx context.Context, uaid model.UserID, messageMonth string, timestamp int64) error {
	req := incStoragePositionRequest{
		Command_:     "inc_storage_position",
		UAID:         uaid.Compact(),
		MessageMonth: messageMonth,
		Timestamp:    timestamp,
	}
	_, err := b.dispatch(ctx, req)
	return err
}

// DropUser deletes all stored state for uaid, used when the handshake
// asks for a reset.
func (b *Bridge) DropUser(ctx context.Context, uaid model.UserID) error {
	_, err := b.dispatch(ctx, dropUserRequest{Command_: "drop_user", UAID: uaid.Compact()})
	return err
}

// MigrateUser moves uaid onto the current message month table, returning
// the new table name.
func (b *Bridge) MigrateUser(ctx context.Context, uaid model.UserID, messageMonth string) (MigrateUserResponse, error) {
	raw, err := b.dispatch(ctx, migrateUserRequest{Command_: "migrate_user", UAID: uaid.Compact(), MessageMonth: messageMonth})
	if err != nil {
		return MigrateUserResponse{}, err
	}
	var resp MigrateUserResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return MigrateUserResponse{}, &SerializationError{Command: "migrate_user", Cause: err}
	}
	return resp, nil
}

// StoreMessages persists messages for later delivery. Called fire-and-
// forget on shutdown for unacked direct notifications; the caller does
// not wait on its result in that path. Each message is stamped with
// uaid before being sent, since direct notifications arrive off the
// mailbox with no uaid of their own.
func (b *Bridge) StoreMessages(ctx context.Context, uaid model.UserID, messageMonth string, messages []model.Notification) error {
	compact := uaid.Compact()
	for i := range messages {
		messages[i].UAID = &compact
	}
	_, err := b.dispatch(ctx, storeMessagesRequest{Command_: "store_messages", MessageMonth: messageMonth, Messages: messages})
	return err
}

func asRemoteError(err error, target **RemoteError) bool {
	re, ok := err.(*RemoteError)
	if !ok {
		return false
	}
	*target = re
	return true
}
