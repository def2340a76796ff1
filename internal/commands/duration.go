package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseSeconds accepts a plain number of seconds ("90") or a Go duration
// ("1m30s"). Durations must be whole seconds.
func parseSeconds(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("duration is required")
	}

	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: use seconds (90) or a duration (1m30s)", s)
	}
	if d%time.Second != 0 {
		return 0, fmt.Errorf("invalid duration %q: must be whole seconds", s)
	}
	return int(d / time.Second), nil
}

// seconds decodes a JSON number of seconds or a duration string.
type seconds int

func (s *seconds) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*s = seconds(n)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("duration must be a number of seconds or a string")
	}
	n, err := parseSeconds(str)
	if err != nil {
		return err
	}
	*s = seconds(n)
	return nil
}
