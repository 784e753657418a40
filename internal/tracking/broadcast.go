package tracking

// Update is one realtime message fanned out to observer dashboards. Delivery
// is at-least-once; subscribers de-duplicate by (driver_id, captured_at).
type Update struct {
	Type       string      `json:"type"` // "location" or "status"
	DriverID   string      `json:"driver_id"`
	DispatchID *string     `json:"dispatch_id,omitempty"`
	ShiftID    *string     `json:"shift_id,omitempty"`
	Payload    interface{} `json:"payload"`
	Timestamp  int64       `json:"timestamp"`
}

// Publisher is the fan-out transport the pipeline publishes through. It must
// be fire-and-forget: a slow or absent subscriber never backpressures the
// ingestion path, so implementations queue with bounded buffers and drop
// stale messages rather than block.
type Publisher interface {
	Publish(topic string, u Update)
}

// TopicForDriver scopes updates about one driver
func TopicForDriver(driverID string) string {
	return "driver:" + driverID
}

// TopicForDispatch scopes updates about one dispatch
func TopicForDispatch(dispatchID string) string {
	return "dispatch:" + dispatchID
}

// NopPublisher discards everything; used when no realtime transport is wired
type NopPublisher struct{}

func (NopPublisher) Publish(string, Update) {}
