package appliance

import (
	"fmt"
	"strings"
)

// Unknown is the appliance type used when detection is unavailable or inconclusive.
const Unknown = "Unknown"

// KnownTypes are the appliance types the detector recognizes by name.
var KnownTypes = []string{
	"Refrigerator",
	"Freezer",
	"Washing Machine",
	"Dishwasher",
	"TV",
	"Microwave",
	"Oven",
	"Stove",
	"Air Conditioner",
	"Dryer",
}

// Appliance describes the unit the customer is troubleshooting.
type Appliance struct {
	Brand         string `json:"brand"`
	Model         string `json:"model"`
	Serial        string `json:"serial"`
	Age           *int   `json:"age"`
	ApplianceType string `json:"appliance_type"`
}

// IsComplete reports whether brand and model are both known.
func (a Appliance) IsComplete() bool {
	return strings.TrimSpace(a.Brand) != "" && strings.TrimSpace(a.Model) != ""
}

// HasType reports whether a type has been assigned.
func (a Appliance) HasType() bool {
	return strings.TrimSpace(a.ApplianceType) != ""
}

func (a Appliance) String() string {
	serial := a.Serial
	if serial == "" {
		serial = "Unknown"
	}
	out := fmt.Sprintf("Brand: %s, Model: %s, Serial: %s", a.Brand, a.Model, serial)
	if a.Age != nil {
		out += fmt.Sprintf(", around %d years old", *a.Age)
	}
	return out
}

// Info is a partial appliance description produced by text or vision extraction.
type Info struct {
	Brand  string `json:"brand"`
	Model  string `json:"model"`
	Serial string `json:"serial"`
	Age    *int   `json:"age"`
}

// IsEmpty reports whether nothing was extracted.
func (i Info) IsEmpty() bool {
	return i.Brand == "" && i.Model == "" && i.Serial == "" && i.Age == nil
}

// Merge overwrites only the fields that info actually carries.
func (a Appliance) Merge(info Info) Appliance {
	if v := strings.TrimSpace(info.Brand); v != "" {
		a.Brand = v
	}
	if v := strings.TrimSpace(info.Model); v != "" {
		a.Model = v
	}
	if v := strings.TrimSpace(info.Serial); v != "" {
		a.Serial = v
	}
	if info.Age != nil {
		age := *info.Age
		a.Age = &age
	}
	return a
}

// Summary renders the appliance as a markdown block for chat messages.
func (a Appliance) Summary() string {
	typ := a.ApplianceType
	if typ == "" {
		typ = "Detecting..."
	}
	serial := a.Serial
	if serial == "" {
		serial = "Unknown"
	}
	return fmt.Sprintf("**Appliance Type:** %s\n**Brand:** %s\n**Model:** %s\n**Serial:** %s", typ, a.Brand, a.Model, serial)
}

// Part is a replaceable component with a price.
type Part struct {
	Name       string  `json:"name"`
	PartNumber string  `json:"part_number"`
	Price      float64 `json:"price"`
}

// ProblemCategory separates user-fixable problems from technician work.
type ProblemCategory string

const (
	CategorySimple  ProblemCategory = "SIMPLE"
	CategoryComplex ProblemCategory = "COMPLEX"
)

// Problem is a knowledge base entry.
type Problem struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	Keywords             []string        `json:"keywords"`
	Category             ProblemCategory `json:"category"`
	TroubleshootingSteps []string        `json:"troubleshooting_steps"`
	Parts                []Part          `json:"parts"`
}

// IsSimple reports whether the problem can be handled by the customer.
func (p Problem) IsSimple() bool {
	return p.Category == CategorySimple
}

// HasParts reports whether the problem lists replacement parts.
func (p Problem) HasParts() bool {
	return len(p.Parts) > 0
}

// Normalize fills the defaults applied when loading problems.
func (p Problem) Normalize() Problem {
	if p.Category == "" {
		p.Category = CategoryComplex
	}
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	if p.TroubleshootingSteps == nil {
		p.TroubleshootingSteps = []string{}
	}
	if p.Parts == nil {
		p.Parts = []Part{}
	}
	return p
}

// DefaultTechnicianFee applies when the knowledge base omits a fee.
const DefaultTechnicianFee = 125.0

// KnowledgeBase is the decoded knowledge_base.json document.
type KnowledgeBase struct {
	Problems          []Problem `json:"problems"`
	DangerousKeywords []string  `json:"dangerous_keywords"`
	TechnicianFee     *float64  `json:"technician_fee"`
}

// Fee returns the configured technician fee or the default.
func (kb KnowledgeBase) Fee() float64 {
	if kb.TechnicianFee == nil {
		return DefaultTechnicianFee
	}
	return *kb.TechnicianFee
}
