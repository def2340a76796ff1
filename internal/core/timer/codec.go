package timer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// EncodeTimers serializes a timer collection as a compact JSON array.
// Records that violate the data model are rejected before anything is
// produced.
func EncodeTimers(timers []Timer) (string, error) {
	if err := checkTimers(timers); err != nil {
		return "", err
	}
	if timers == nil {
		timers = []Timer{}
	}

	data, err := json.Marshal(timers)
	if err != nil {
		return "", fmt.Errorf("marshal timers: %w", err)
	}
	return string(data), nil
}

// DecodeTimers parses data written by EncodeTimers. Unknown fields,
// non-integer numbers and records violating the data model are errors.
func DecodeTimers(data string) ([]Timer, error) {
	var timers []Timer
	if err := decodeStrict(data, &timers); err != nil {
		return nil, err
	}
	if err := checkTimers(timers); err != nil {
		return nil, err
	}
	return timers, nil
}

// DecodeHistory parses a serialized history log.
func DecodeHistory(data string) ([]HistoryEntry, error) {
	raws, err := decodeHistoryRaw(data)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(raws))
	for _, raw := range raws {
		var entry HistoryEntry
		if err := decodeStrict(string(raw), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// marshalHistory encodes each entry as one compact record.
func marshalHistory(entries []HistoryEntry) ([]json.RawMessage, error) {
	raws := make([]json.RawMessage, 0, len(entries))
	for _, entry := range entries {
		raw, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("marshal history entry: %w", err)
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

// decodeHistoryRaw splits a history log into its records without
// re-encoding them, after checking each one is a valid HistoryEntry.
func decodeHistoryRaw(data string) ([]json.RawMessage, error) {
	var raws []json.RawMessage
	if err := decodeStrict(data, &raws); err != nil {
		return nil, err
	}

	for i, raw := range raws {
		var entry HistoryEntry
		if err := decodeStrict(string(raw), &entry); err != nil {
			return nil, fmt.Errorf("history[%d]: %w", i, err)
		}
		if entry.ID == "" {
			return nil, fmt.Errorf("history[%d]: id %w", i, errEmpty)
		}
	}
	return raws, nil
}

// joinRaw writes records as a JSON array, keeping each record's bytes as-is.
func joinRaw(raws []json.RawMessage) string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, raw := range raws {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(raw)
	}
	buf.WriteByte(']')
	return buf.String()
}

func decodeStrict(data string, dest any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("decode: unexpected data after value")
	}
	return nil
}

func checkTimers(timers []Timer) error {
	seen := make(map[string]struct{}, len(timers))
	for i, t := range timers {
		if err := checkRecord(t); err != nil {
			return fmt.Errorf("timers[%d]: %w", i, err)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("timers[%d]: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

// checkRecord verifies the data model invariants of a stored timer.
func checkRecord(t Timer) error {
	switch {
	case t.ID == "":
		return fmt.Errorf("id %w", errEmpty)
	case t.Name == "":
		return fmt.Errorf("name %w", errEmpty)
	case t.Duration <= 0:
		return fmt.Errorf("duration %w", errNotPositive)
	case t.Remaining < 0 || t.Remaining > t.Duration:
		return fmt.Errorf("remaining %d outside [0, %d]", t.Remaining, t.Duration)
	case t.Remaining == 0 && t.Running:
		return errors.New("completed timer marked running")
	}
	return nil
}
