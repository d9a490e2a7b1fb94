package orders

const (
	TopicOrderCreated        = "order.created"
	TopicOrderCancelled      = "order.cancelled"
	TopicReturnUpdated       = "return.updated"
	TopicNotificationCreated = "notification.created"
)

// Partition key = order id so every event of one order stays in order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
