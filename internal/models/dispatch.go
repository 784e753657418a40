package models

// DispatchStatus is the driver-status of a delivery assignment. Transitions
// are strictly ordered and monotonic; see internal/tracking/statemachine.go.
type DispatchStatus string

const (
	DispatchAssigned        DispatchStatus = "assigned"
	DispatchArrivedAtVendor DispatchStatus = "arrived_at_vendor"
	DispatchEnRouteToClient DispatchStatus = "en_route_to_client"
	DispatchArrivedToClient DispatchStatus = "arrived_to_client"
	DispatchCompleted       DispatchStatus = "completed"
)

// statusOrder fixes the lifecycle ordering for monotonicity checks
var statusOrder = map[DispatchStatus]int{
	DispatchAssigned:        0,
	DispatchArrivedAtVendor: 1,
	DispatchEnRouteToClient: 2,
	DispatchArrivedToClient: 3,
	DispatchCompleted:       4,
}

// Rank returns the position of the status in the fixed lifecycle, or -1 for
// an unknown value.
func (s DispatchStatus) Rank() int {
	if r, ok := statusOrder[s]; ok {
		return r
	}
	return -1
}

// IsTerminal reports whether the dispatch can no longer change status
func (s DispatchStatus) IsTerminal() bool {
	return s == DispatchCompleted
}

// Dispatch is one delivery assignment: pickup at the vendor, drop-off at the
// client, tracked through the fixed status lifecycle. Created by the CRUD
// layer when an order is assigned; status fields are owned by the tracking
// core; immutable once completed.
type Dispatch struct {
	ID                string         `json:"id" db:"id"`
	DriverID          string         `json:"driver_id" db:"driver_id"`
	OrderRef          *string        `json:"order_ref,omitempty" db:"order_ref"`
	PickupLatitude    float64        `json:"pickup_latitude" db:"pickup_latitude"`
	PickupLongitude   float64        `json:"pickup_longitude" db:"pickup_longitude"`
	PickupAddress     *string        `json:"pickup_address,omitempty" db:"pickup_address"`
	DeliveryLatitude  float64        `json:"delivery_latitude" db:"delivery_latitude"`
	DeliveryLongitude float64        `json:"delivery_longitude" db:"delivery_longitude"`
	DeliveryAddress   *string        `json:"delivery_address,omitempty" db:"delivery_address"`
	Status            DispatchStatus `json:"status" db:"status"`
	AssignedAt        int64          `json:"assigned_at" db:"assigned_at"`
	ArrivedAtVendorAt *int64         `json:"arrived_at_vendor_at" db:"arrived_at_vendor_at"`
	EnRouteAt         *int64         `json:"en_route_at" db:"en_route_at"`
	ArrivedToClientAt *int64         `json:"arrived_to_client_at" db:"arrived_to_client_at"`
	CompletedAt       *int64         `json:"completed_at" db:"completed_at"`
	CreatedAt         int64          `json:"created_at" db:"created_at"`
	UpdatedAt         int64          `json:"updated_at" db:"updated_at"`
}

// SetTransitionTime stamps the per-status timestamp column for a transition
// into the given status.
func (d *Dispatch) SetTransitionTime(status DispatchStatus, at int64) {
	switch status {
	case DispatchArrivedAtVendor:
		d.ArrivedAtVendorAt = &at
	case DispatchEnRouteToClient:
		d.EnRouteAt = &at
	case DispatchArrivedToClient:
		d.ArrivedToClientAt = &at
	case DispatchCompleted:
		d.CompletedAt = &at
	}
}
