package httpapi

import (
	"fmt"
	"strconv"
)

func parseUserID(raw string) (uint32, error) {
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid user_id %q", raw)
	}
	return uint32(value), nil
}
