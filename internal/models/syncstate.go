package models

// SyncState is a single key/value row in the cursor table. The ingestion
// engine stores exactly one key: LastUpdatedSinceKey.
type SyncState struct {
	Key   string `db:"key" json:"key"`
	Value string `db:"value" json:"value"`
}

func (SyncState) TableName() string {
	return "sync_state"
}

// LastUpdatedSinceKey is the cursor key holding the high-water-mark
// updated_at of the last successfully processed observation.
const LastUpdatedSinceKey = "feed.last_updated_since"
