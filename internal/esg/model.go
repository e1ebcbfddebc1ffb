package esg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Answer is the textual answer to a questionnaire question. Only the exact
// value "true" counts as affirmative.
type Answer string

const affirmative Answer = "true"

// UnmarshalJSON accepts strings, booleans and numbers. Booleans and numbers
// keep their literal text, so `true` and "true" decode to the same answer.
func (a *Answer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("empty answer")
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Answer(s)
	case 'n':
		*a = ""
	case 't', 'f', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*a = Answer(b)
	default:
		return fmt.Errorf("answer must be a string, boolean or number, got %s", b)
	}
	return nil
}

func (a *Answer) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: answer must be a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*a = ""
		return nil
	}
	*a = Answer(node.Value)
	return nil
}

type QuestionAnswer struct {
	Question string `json:"question" yaml:"question"`
	Answer   Answer `json:"answer" yaml:"answer"`
}

// Affirmative reports whether the answer is the literal "true".
func (qa QuestionAnswer) Affirmative() bool { return qa.Answer == affirmative }

// Subcategory is a named topic within a pillar.
type Subcategory struct {
	Name    string
	Answers []QuestionAnswer
}

type Environment struct {
	EnvironmentalManagement     []QuestionAnswer `json:"environmentalManagement,omitempty" yaml:"environmentalManagement,omitempty"`
	ClimateChange               []QuestionAnswer `json:"climateChange,omitempty" yaml:"climateChange,omitempty"`
	AirPollution                []QuestionAnswer `json:"airPollution,omitempty" yaml:"airPollution,omitempty"`
	HazardousMaterialManagement []QuestionAnswer `json:"hazardousMaterialManagement,omitempty" yaml:"hazardousMaterialManagement,omitempty"`
	NaturalResourceManagement   []QuestionAnswer `json:"naturalResourceManagement,omitempty" yaml:"naturalResourceManagement,omitempty"`
	WasteManagement             []QuestionAnswer `json:"wasteManagement,omitempty" yaml:"wasteManagement,omitempty"`
	RegulatoryCompliance        []QuestionAnswer `json:"regulatoryCompliance,omitempty" yaml:"regulatoryCompliance,omitempty"`
	PollutionPrevention         []QuestionAnswer `json:"pollutionPrevention,omitempty" yaml:"pollutionPrevention,omitempty"`
}

// Subcategories lists the environment subcategories in questionnaire order.
func (e Environment) Subcategories() []Subcategory {
	return []Subcategory{
		{"environmentalManagement", e.EnvironmentalManagement},
		{"climateChange", e.ClimateChange},
		{"airPollution", e.AirPollution},
		{"hazardousMaterialManagement", e.HazardousMaterialManagement},
		{"naturalResourceManagement", e.NaturalResourceManagement},
		{"wasteManagement", e.WasteManagement},
		{"regulatoryCompliance", e.RegulatoryCompliance},
		{"pollutionPrevention", e.PollutionPrevention},
	}
}

type Social struct {
	WorkerHealthSafety          []QuestionAnswer `json:"workerHealthSafety,omitempty" yaml:"workerHealthSafety,omitempty"`
	HumanRightsLabourPractices  []QuestionAnswer `json:"humanRightsLabourPractices,omitempty" yaml:"humanRightsLabourPractices,omitempty"`
	RegulatoryComplianceSocial  []QuestionAnswer `json:"regulatoryComplianceSocial,omitempty" yaml:"regulatoryComplianceSocial,omitempty"`
	ConsumerSafetyProductSafety []QuestionAnswer `json:"consumerSafetyProductSafety,omitempty" yaml:"consumerSafetyProductSafety,omitempty"`
	CommunityInvolvement        []QuestionAnswer `json:"communityInvolvement,omitempty" yaml:"communityInvolvement,omitempty"`
}

func (s Social) Subcategories() []Subcategory {
	return []Subcategory{
		{"workerHealthSafety", s.WorkerHealthSafety},
		{"humanRightsLabourPractices", s.HumanRightsLabourPractices},
		{"regulatoryComplianceSocial", s.RegulatoryComplianceSocial},
		{"consumerSafetyProductSafety", s.ConsumerSafetyProductSafety},
		{"communityInvolvement", s.CommunityInvolvement},
	}
}

// Governance field names keep the capitalisation the questionnaire uses.
type Governance struct {
	BoardStructureIndependenceAccountability []QuestionAnswer `json:"BoardStructureIndependenceAccountability,omitempty" yaml:"BoardStructureIndependenceAccountability,omitempty"`
	EthicsAndCodeofConduct                   []QuestionAnswer `json:"EthicsAndCodeofConduct,omitempty" yaml:"EthicsAndCodeofConduct,omitempty"`
	ESGManagementPracticesAndProcesses       []QuestionAnswer `json:"ESGManagementPracticesAndProcesses,omitempty" yaml:"ESGManagementPracticesAndProcesses,omitempty"`
	SupplyChainManagement                    []QuestionAnswer `json:"supplyChainManagement,omitempty" yaml:"supplyChainManagement,omitempty"`
	DataPrivacySecurityManagement            []QuestionAnswer `json:"dataPrivacySecurityManagement,omitempty" yaml:"dataPrivacySecurityManagement,omitempty"`
}

func (g Governance) Subcategories() []Subcategory {
	return []Subcategory{
		{"BoardStructureIndependenceAccountability", g.BoardStructureIndependenceAccountability},
		{"EthicsAndCodeofConduct", g.EthicsAndCodeofConduct},
		{"ESGManagementPracticesAndProcesses", g.ESGManagementPracticesAndProcesses},
		{"supplyChainManagement", g.SupplyChainManagement},
		{"dataPrivacySecurityManagement", g.DataPrivacySecurityManagement},
	}
}

// Submission is one dated questionnaire response. A missing pillar decodes
// to its zero value, which scores the same as a pillar of empty subcategories.
type Submission struct {
	ID          string      `json:"id,omitempty" yaml:"id,omitempty"`
	TimePeriod  time.Time   `json:"timePeriod" yaml:"timePeriod"`
	Environment Environment `json:"environment" yaml:"environment"`
	Social      Social      `json:"social" yaml:"social"`
	Governance  Governance  `json:"governance" yaml:"governance"`
}
