package orders

type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCanceled  Status = "canceled"
)

// validNext is the forward-only lifecycle; canceled is reachable from pending and paid only.
var validNext = map[Status]map[Status]bool{
	StatusOngoing:   {StatusPending: true},
	StatusPending:   {StatusPaid: true, StatusCanceled: true},
	StatusPaid:      {StatusShipped: true, StatusCanceled: true},
	StatusShipped:   {StatusDelivered: true},
	StatusDelivered: {},
	StatusCanceled:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Transition returns an *InvalidStateError when the move is not allowed.
func Transition(o *Order, to Status) error {
	if !CanTransition(o.Status, to) {
		return &InvalidStateError{Current: o.Status, Expected: expectedFor(to)}
	}
	o.Status = to
	return nil
}

// expectedFor lists the states an order must be in to move to `to`.
func expectedFor(to Status) []Status {
	var out []Status
	for _, from := range []Status{StatusOngoing, StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCanceled} {
		if validNext[from][to] {
			out = append(out, from)
		}
	}
	return out
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type ShipmentStatus string

const (
	ShipmentPreparing ShipmentStatus = "preparing"
	ShipmentInTransit ShipmentStatus = "in_transit"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentFailed    ShipmentStatus = "failed"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}
