package kafka

// Topic definitions for Kafka event streaming
const (
	// TopicRunsCompleted carries one sentiment.RunCompletedEvent per finished run
	TopicRunsCompleted = "sentiment.runs.completed"
)
