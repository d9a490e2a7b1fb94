package orders

type OrderStatus string

const (
	StatusPending               OrderStatus = "Pending"
	StatusConfirmed             OrderStatus = "Confirmed"
	StatusPacked                OrderStatus = "Packed"
	StatusDispatched            OrderStatus = "Dispatched"
	StatusOutForDelivery        OrderStatus = "Out for Delivery"
	StatusDelivered             OrderStatus = "Delivered"
	StatusCancelled             OrderStatus = "Cancelled"
	StatusCancellationRequested OrderStatus = "Cancellation Requested"
)

var orderStatuses = map[OrderStatus]bool{
	StatusPending: true, StatusConfirmed: true, StatusPacked: true, StatusDispatched: true,
	StatusOutForDelivery: true, StatusDelivered: true, StatusCancelled: true, StatusCancellationRequested: true,
}

func (s OrderStatus) Valid() bool { return orderStatuses[s] }

// Cancellable reports whether a cancellation may be requested from s.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

type ReturnType string

const (
	ReturnTypeReturn       ReturnType = "Return"
	ReturnTypeReplacement  ReturnType = "Replacement"
	ReturnTypeCancellation ReturnType = "Cancellation"
)

func (t ReturnType) Valid() bool {
	return t == ReturnTypeReturn || t == ReturnTypeReplacement || t == ReturnTypeCancellation
}

type ReturnStatus string

const (
	ReturnPending               ReturnStatus = "Pending"
	ReturnApproved              ReturnStatus = "Approved"
	ReturnPickupScheduled       ReturnStatus = "Pickup Scheduled"
	ReturnReceivedAtWarehouse   ReturnStatus = "Received at Warehouse"
	ReturnRefundInitiated       ReturnStatus = "Refund Initiated"
	ReturnReplacementDispatched ReturnStatus = "Replacement Dispatched"
	ReturnCompleted             ReturnStatus = "Completed"
	ReturnRejected              ReturnStatus = "Rejected"
)

var inProgress = map[ReturnStatus]bool{
	ReturnApproved: true, ReturnPickupScheduled: true, ReturnReceivedAtWarehouse: true,
	ReturnRefundInitiated: true, ReturnReplacementDispatched: true,
}

func (s ReturnStatus) Valid() bool {
	return s == ReturnPending || s == ReturnCompleted || s == ReturnRejected || inProgress[s]
}

func (s ReturnStatus) Terminal() bool { return s == ReturnCompleted || s == ReturnRejected }

// CanTransition: once out of Pending a return never goes back, and terminal
// states accept nothing. Re-applying the current in-progress status is allowed
// so admins can append timeline notes.
func CanTransition(from, to ReturnStatus) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	return to != ReturnPending
}
