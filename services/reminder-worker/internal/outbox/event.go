package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	EventReminderSent   = "reminder.sent.v1"
	EventReminderFailed = "reminder.failed.v1"
)
