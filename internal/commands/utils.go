package commands

import (
	"fmt"
	"strconv"
)

// ParseSnowflake converts a Discord ID to the numeric identity stored as a
// party's creator.
func ParseSnowflake(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", id, err)
	}
	return n, nil
}
