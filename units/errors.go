package units

import "errors"

// ErrInvalidAmount indicates an amount string could not be parsed.
var ErrInvalidAmount = errors.New("units: invalid amount")
