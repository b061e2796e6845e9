package types

import "time"

// ReputationEntry is a cached reputation score for a single account.
type ReputationEntry struct {
	Account   string    `json:"account"`
	Score     int64     `json:"reputation"`
	FetchedAt time.Time `json:"fetchedAt"`
}
