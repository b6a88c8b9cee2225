package models

const (
	// EntryPartitionKey is the catalog partition holding named counters.
	EntryPartitionKey = "entries"

	// NextUserIDEntry is the name of the counter used to allocate user IDs.
	NextUserIDEntry = "NextUserId"
)

// CounterEntry is a single named mutable integer stored in the catalog.
type CounterEntry struct {
	Name  string
	Value int64
}
