package app

import (
	"fmt"
	"strconv"
	"strings"
)

// FlexFloat accepts JSON numbers or stringified numbers. Browser form layers
// deliver numeric fields as strings often enough that the boundary coerces
// explicitly instead of trusting the transport.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	*f = FlexFloat(v)
	return nil
}

// FlexInt accepts JSON integers or stringified integers.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.Atoi(s)
	if err != nil {
		// Tolerate "2.0"-style values from spreadsheet-like inputs.
		fv, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || fv != float64(int(fv)) {
			return fmt.Errorf("not an integer: %q", s)
		}
		v = int(fv)
	}
	*f = FlexInt(v)
	return nil
}
