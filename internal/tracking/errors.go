package tracking

import "errors"

var (
	// ErrOutOfOrderTransition means a trigger does not apply to the
	// dispatch's current status. Recoverable: logged and ignored.
	ErrOutOfOrderTransition = errors.New("tracking: trigger not applicable to current dispatch status")

	// ErrReconciliationAmbiguous means no usable mileage source exists for
	// the shift. The total stays unset and is surfaced for manual review.
	ErrReconciliationAmbiguous = errors.New("tracking: no usable mileage source")

	// ErrMileageFinalized guards against rewriting an already-finalized
	// shift mileage row with different inputs.
	ErrMileageFinalized = errors.New("tracking: shift mileage already finalized")

	// ErrLaneBusy means the driver's mailbox is full; the caller should
	// retry or shed the sample.
	ErrLaneBusy = errors.New("tracking: driver lane mailbox full")

	// ErrNoActiveShift means a ping or action arrived for a driver with no
	// open shift.
	ErrNoActiveShift = errors.New("tracking: driver has no active shift")

	// ErrLaneClosed means the driver's lane is shutting down (shift end in
	// progress).
	ErrLaneClosed = errors.New("tracking: driver lane is closed")
)
