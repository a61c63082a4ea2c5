package reminder

import "errors"

var (
	// ErrLeadTimeTooShort rejects a Configure whose first run would land
	// less than MinScheduleAhead from now.
	ErrLeadTimeTooShort = errors.New("next run is too close")

	ErrUnknownScheduleKind = errors.New("unknown schedule kind")
)
