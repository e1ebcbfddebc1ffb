package esg

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeJSON parses a submission document. Absent pillars and subcategories
// are left empty; fields of the wrong shape yield a MalformedSubmissionError.
func DecodeJSON(data []byte) (Submission, error) {
	var sub Submission
	if len(bytes.TrimSpace(data)) == 0 {
		return sub, &MalformedSubmissionError{Err: errors.New("empty document")}
	}
	if err := json.Unmarshal(data, &sub); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return sub, &MalformedSubmissionError{
				Field: typeErr.Field,
				Err:   fmt.Errorf("expected %s, got %s", typeErr.Type, typeErr.Value),
			}
		}
		return sub, &MalformedSubmissionError{Err: err}
	}
	return sub, nil
}

// DecodeYAML is DecodeJSON for YAML documents.
func DecodeYAML(data []byte) (Submission, error) {
	var sub Submission
	if len(bytes.TrimSpace(data)) == 0 {
		return sub, &MalformedSubmissionError{Err: errors.New("empty document")}
	}
	if err := yaml.Unmarshal(data, &sub); err != nil {
		return sub, &MalformedSubmissionError{Err: err}
	}
	return sub, nil
}
