package models

// StatsSnapshot is the terminal summary printed by the `stats` subcommand.
type StatsSnapshot struct {
	Observations          int64
	Photos                int64
	ClassifiedSucceeded   int64
	ClassifiedFailed      int64
	ClassifiedPermanent   int64
	Backlog               int64
	ObservationsLast24h   int64
	PhotosLast24h         int64
}
