package orders

const (
	TopicOrderSubmitted = "order.submitted"
	TopicOrderPaid      = "order.paid"
	TopicOrderShipped   = "order.shipped"
	TopicOrderDelivered = "order.delivered"
	TopicOrderCanceled  = "order.canceled"
)

var topicByEvent = map[string]string{
	EventOrderSubmitted: TopicOrderSubmitted,
	EventOrderPaid:      TopicOrderPaid,
	EventOrderShipped:   TopicOrderShipped,
	EventOrderDelivered: TopicOrderDelivered,
	EventOrderCanceled:  TopicOrderCanceled,
}

func TopicFor(eventType string) (string, bool) {
	t, ok := topicByEvent[eventType]
	return t, ok
}

// LifecycleTopics lists every topic the notifier subscribes to.
func LifecycleTopics() []string {
	return []string{TopicOrderSubmitted, TopicOrderPaid, TopicOrderShipped, TopicOrderDelivered, TopicOrderCanceled}
}

// Partition key = order_id so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
