// Package iojson reads and writes JSON for commands that offer --json output
// or accept JSON input.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// encodeFailure is written to the error stream in place of a value that
// could not be encoded, so scripted callers still receive valid JSON.
type encodeFailure struct {
	Message string `json:"message"`
	Data    struct {
		JSONError string `json:"json_error"`
	} `json:"data"`
}

// WriteLine writes obj as a single compact JSON line, suitable for
// line-oriented consumers such as jq.
func WriteLine(w io.Writer, obj any) error {
	bits, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal json line: %w", err)
	}
	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// WriteIndent writes obj as indented JSON to w. If obj cannot be encoded, an
// encodeFailure object goes to ew instead and nothing is written to w.
func WriteIndent(w, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		var fail encodeFailure
		fail.Message = fmt.Sprintf("cannot encode %T", obj)
		fail.Data.JSONError = err.Error()
		return WriteLine(ew, fail)
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}
