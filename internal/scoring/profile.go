package scoring

import (
	"fmt"
	"strings"
)

type Location struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// Profile holds the descriptive supplier details a buying company sees
// in its portfolio. Periods are in months.
type Profile struct {
	Address                 string   `json:"address,omitempty"`
	Location                Location `json:"location"`
	TotalRevenue            *float64 `json:"totalRevenue,omitempty"`
	PANCard                 string   `json:"panCard,omitempty"`
	GSTNo                   string   `json:"gstNo,omitempty"`
	SizeOfSupplier          string   `json:"sizeOfSupplier,omitempty"`
	ContactPerson           string   `json:"contactPerson,omitempty"`
	ContactPersonPosition   string   `json:"contactPersonPosition,omitempty"`
	OwnershipType           string   `json:"ownershipType,omitempty"`
	PercentageOfTotalSupply *float64 `json:"percentageOfTotalSupply,omitempty"`
	CriticalityToOperations string   `json:"criticalityToOperations,omitempty"`
	LengthOfRelationship    *int     `json:"lengthOfRelationship,omitempty"`
	RelationshipQuality     string   `json:"relationshipQuality,omitempty"`
	ReportingPeriod         *int     `json:"reportingPeriod,omitempty"`
}

var supplierSizes = map[string]bool{"": true, "Small": true, "Medium": true, "Large": true}

func (p Profile) validate() error {
	switch {
	case !supplierSizes[p.SizeOfSupplier]:
		return fmt.Errorf("%w: sizeOfSupplier must be Small, Medium or Large", ErrInvalid)
	case p.TotalRevenue != nil && *p.TotalRevenue < 0:
		return fmt.Errorf("%w: totalRevenue must not be negative", ErrInvalid)
	case p.PercentageOfTotalSupply != nil && (*p.PercentageOfTotalSupply < 0 || *p.PercentageOfTotalSupply > 100):
		return fmt.Errorf("%w: percentageOfTotalSupply must be between 0 and 100", ErrInvalid)
	case p.LengthOfRelationship != nil && *p.LengthOfRelationship < 0:
		return fmt.Errorf("%w: lengthOfRelationship must not be negative", ErrInvalid)
	case p.ReportingPeriod != nil && *p.ReportingPeriod < 0:
		return fmt.Errorf("%w: reportingPeriod must not be negative", ErrInvalid)
	}
	return nil
}

type LocationPatch struct {
	City    *string `json:"city"`
	State   *string `json:"state"`
	Country *string `json:"country"`
}

// SupplierPatch is a partial supplier update. Nil fields are left as they
// are; SuppliesTo, when present, replaces the whole list of links.
type SupplierPatch struct {
	Name                    *string        `json:"name"`
	CINNo                   *string        `json:"cinNo"`
	Industry                *string        `json:"industry"`
	SuppliesTo              *[]string      `json:"suppliesTo"`
	Address                 *string        `json:"address"`
	Location                *LocationPatch `json:"location"`
	TotalRevenue            *float64       `json:"totalRevenue"`
	PANCard                 *string        `json:"panCard"`
	GSTNo                   *string        `json:"gstNo"`
	SizeOfSupplier          *string        `json:"sizeOfSupplier"`
	ContactPerson           *string        `json:"contactPerson"`
	ContactPersonPosition   *string        `json:"contactPersonPosition"`
	OwnershipType           *string        `json:"ownershipType"`
	PercentageOfTotalSupply *float64       `json:"percentageOfTotalSupply"`
	CriticalityToOperations *string        `json:"criticalityToOperations"`
	LengthOfRelationship    *int           `json:"lengthOfRelationship"`
	RelationshipQuality     *string        `json:"relationshipQuality"`
	ReportingPeriod         *int           `json:"reportingPeriod"`
}

func (p SupplierPatch) empty() bool {
	if p.Location != nil && *p.Location != (LocationPatch{}) {
		return false
	}
	p.Location = nil
	return p == (SupplierPatch{})
}

// apply copies the present fields onto s.
func (p SupplierPatch) apply(s *Supplier) error {
	setString(&s.Name, p.Name)
	setString(&s.CINNo, p.CINNo)
	setString(&s.Industry, p.Industry)
	if p.SuppliesTo != nil {
		cins, err := normalizeCINs(*p.SuppliesTo)
		if err != nil {
			return err
		}
		s.SuppliesTo = cins
	}
	setString(&s.Address, p.Address)
	if p.Location != nil {
		setString(&s.Location.City, p.Location.City)
		setString(&s.Location.State, p.Location.State)
		setString(&s.Location.Country, p.Location.Country)
	}
	if p.TotalRevenue != nil {
		s.TotalRevenue = p.TotalRevenue
	}
	setString(&s.PANCard, p.PANCard)
	setString(&s.GSTNo, p.GSTNo)
	setString(&s.SizeOfSupplier, p.SizeOfSupplier)
	setString(&s.ContactPerson, p.ContactPerson)
	setString(&s.ContactPersonPosition, p.ContactPersonPosition)
	setString(&s.OwnershipType, p.OwnershipType)
	if p.PercentageOfTotalSupply != nil {
		s.PercentageOfTotalSupply = p.PercentageOfTotalSupply
	}
	setString(&s.CriticalityToOperations, p.CriticalityToOperations)
	if p.LengthOfRelationship != nil {
		s.LengthOfRelationship = p.LengthOfRelationship
	}
	setString(&s.RelationshipQuality, p.RelationshipQuality)
	if p.ReportingPeriod != nil {
		s.ReportingPeriod = p.ReportingPeriod
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// normalizeCINs trims and de-duplicates company CINs, keeping their order.
func normalizeCINs(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, fmt.Errorf("%w: suppliesTo entries must not be empty", ErrInvalid)
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}
