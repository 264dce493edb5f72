package models

import (
	"encoding/json"
	"time"
)

// ArchivedPayload is the envelope stored in the object-storage archive:
// one write-once JSON object per delivered payload. Objects are never
// mutated and are read back only by the replay controller.
type ArchivedPayload struct {
	Timestamp  time.Time       `json:"timestamp"`
	RawPayload json.RawMessage `json:"raw_payload"`
}
