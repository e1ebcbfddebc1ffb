package schemas

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"esg-backend/internal/esg"
	"esg-backend/internal/scoring"
)

type CreateSupplierRequest struct {
	Username   string   `json:"username"`
	Name       string   `json:"name"`
	CINNo      string   `json:"cinNo"`
	Industry   string   `json:"industry"`
	SuppliesTo []string `json:"suppliesTo"`
	scoring.Profile
}

// UpdateSupplierRequest is the PATCH body; absent fields are left unchanged.
type UpdateSupplierRequest = scoring.SupplierPatch

type LinkSupplierRequest struct {
	Username string `json:"username"`
}

type SubmissionResponse struct {
	Submission scoring.SubmissionRecord `json:"submission"`
	Scores     esg.Report               `json:"scores"`
}

type ScoresResponse struct {
	Username string     `json:"username"`
	Scores   esg.Report `json:"scores"`
}

type RecomputeResponse struct {
	Enqueued int `json:"enqueued"`
}

// ParseSubmission decodes a questionnaire body. It also accepts the
// questionnaire client's "environmental" key and date-only timePeriod values.
// The returned map is the body as received, for archiving.
func ParseSubmission(body []byte) (esg.Submission, map[string]any, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return esg.Submission{}, nil, &esg.MalformedSubmissionError{Err: err}
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return esg.Submission{}, nil, &esg.MalformedSubmissionError{Err: err}
	}

	if _, ok := fields["environment"]; !ok {
		if env, ok := fields["environmental"]; ok {
			fields["environment"] = env
		}
	}
	delete(fields, "environmental")

	if tp, ok := fields["timePeriod"]; ok {
		var s string
		if json.Unmarshal(tp, &s) == nil {
			if d, err := time.Parse(time.DateOnly, s); err == nil {
				b, _ := json.Marshal(d)
				fields["timePeriod"] = b
			}
		}
	}

	normalized, err := json.Marshal(fields)
	if err != nil {
		return esg.Submission{}, nil, fmt.Errorf("normalize submission: %w", err)
	}
	sub, err := esg.DecodeJSON(normalized)
	if err != nil {
		return esg.Submission{}, nil, err
	}
	return sub, raw, nil
}

// ParseSubmissionYAML decodes a YAML questionnaire, accepting the
// "environmental" key the same way ParseSubmission does.
func ParseSubmissionYAML(body []byte) (esg.Submission, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return esg.Submission{}, &esg.MalformedSubmissionError{Err: err}
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return esg.DecodeYAML(body)
	}

	root := doc.Content[0]
	alias, hasEnv := -1, false
	for i := 0; i+1 < len(root.Content); i += 2 {
		switch root.Content[i].Value {
		case "environment":
			hasEnv = true
		case "environmental":
			alias = i
		}
	}
	if alias < 0 {
		return esg.DecodeYAML(body)
	}
	if hasEnv {
		root.Content = append(root.Content[:alias], root.Content[alias+2:]...)
	} else {
		root.Content[alias].Value = "environment"
	}

	normalized, err := yaml.Marshal(&doc)
	if err != nil {
		return esg.Submission{}, fmt.Errorf("normalize submission: %w", err)
	}
	return esg.DecodeYAML(normalized)
}
