package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EntityType tags the payload kind carried by a sync message. The set of
// kinds is closed; decoding a message with an unknown tag is a permanent
// failure, not a transient one.
type EntityType string

const EntityVideoMetadata EntityType = "VideoMetadata"

// Operation says what the consumer should do with the payload. Messages
// from older producers omit the field; absence decodes as OperationUpsert
// to keep the wire contract backward compatible.
type Operation string

const (
	OperationUpsert Operation = "upsert"
	OperationDelete Operation = "delete"
)

// ErrUnknownEntityType marks a message whose entity tag is not in the
// known set. Retrying cannot help; the consumer discards such messages.
var ErrUnknownEntityType = errors.New("unknown sync entity type")

// fileTimeEpochDelta is the number of 100ns ticks between the Windows
// file-time epoch (1601-01-01) and the Unix epoch.
const fileTimeEpochDelta = 116444736000000000

// SyncMessage is the wire envelope carried over the queue. It is
// immutable once constructed: produced, transmitted, consumed, discarded.
type SyncMessage struct {
	EntityType  EntityType `json:"entityType"`
	Operation   Operation  `json:"operation,omitempty"`
	PayloadJSON string     `json:"payloadJson"`
	Timestamp   int64      `json:"timestamp"`
}

// NewVideoMetadataSyncMessage wraps a serialized VideoMetadata aggregate
// in a sync envelope stamped with the current file time.
func NewVideoMetadataSyncMessage(video *VideoMetadata, op Operation) (SyncMessage, error) {
	if video == nil {
		return SyncMessage{}, errors.New("video metadata cannot be nil")
	}
	payload, err := json.Marshal(video)
	if err != nil {
		return SyncMessage{}, fmt.Errorf("marshal video metadata payload: %w", err)
	}
	return SyncMessage{
		EntityType:  EntityVideoMetadata,
		Operation:   op,
		PayloadJSON: string(payload),
		Timestamp:   FileTime(time.Now()),
	}, nil
}

// DecodeSyncMessage parses an envelope off the wire. It validates the
// entity tag against the known set and defaults a missing operation to
// upsert.
func DecodeSyncMessage(body []byte) (SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return SyncMessage{}, fmt.Errorf("decode sync message: %w", err)
	}
	switch msg.EntityType {
	case EntityVideoMetadata:
	default:
		return SyncMessage{}, fmt.Errorf("%w: %q", ErrUnknownEntityType, msg.EntityType)
	}
	if msg.Operation == "" {
		msg.Operation = OperationUpsert
	}
	return msg, nil
}

// Encode serializes the envelope for publishing.
func (m SyncMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// VideoMetadata deserializes the payload as the aggregate named by the
// entity tag.
func (m SyncMessage) VideoMetadata() (*VideoMetadata, error) {
	if m.EntityType != EntityVideoMetadata {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, m.EntityType)
	}
	var video VideoMetadata
	if err := json.Unmarshal([]byte(m.PayloadJSON), &video); err != nil {
		return nil, fmt.Errorf("decode video metadata payload: %w", err)
	}
	return &video, nil
}

// Time converts the envelope timestamp back to wall-clock time.
func (m SyncMessage) Time() time.Time {
	return time.Unix(0, (m.Timestamp-fileTimeEpochDelta)*100)
}

// FileTime converts t to Windows file time, 100ns ticks since 1601-01-01.
// The envelope keeps this representation for wire compatibility with
// existing producers.
func FileTime(t time.Time) int64 {
	return t.UnixNano()/100 + fileTimeEpochDelta
}
