package topics

const (
	// Corridas
	RaceEvents = "race_events"

	// DLQ do journal
	RaceEventsDLQ = "race_events_dlq"
)
