package kafka

// Topics для Kafka
const (
	TopicEvents      = "quadrental.events"
	TopicDeadLetters = "quadrental.events.dlq"
)
