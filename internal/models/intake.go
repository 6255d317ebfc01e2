package models

import "strings"

// Intake describes one employee for agenda generation.
type Intake struct {
	Personality     string `json:"personality" yaml:"personality"`
	Role            string `json:"role" yaml:"role"`
	Skills          string `json:"skills" yaml:"skills"`
	Experience      string `json:"experience" yaml:"experience"`
	CareerGoal      string `json:"career_goal" yaml:"career_goal"`
	Motivation      string `json:"motivation" yaml:"motivation"`
	AdditionalNotes string `json:"additional_notes" yaml:"additional_notes"`
}

// Field is one labeled intake value.
type Field struct {
	Name  string
	Label string
	Value string
}

// Fields returns the six required fields in display order.
func (i Intake) Fields() []Field {
	return []Field{
		{Name: "personality", Label: "Personality", Value: i.Personality},
		{Name: "role", Label: "Role and current work", Value: i.Role},
		{Name: "skills", Label: "Skills", Value: i.Skills},
		{Name: "experience", Label: "Experience", Value: i.Experience},
		{Name: "career_goal", Label: "Career goal", Value: i.CareerGoal},
		{Name: "motivation", Label: "Motivation and values", Value: i.Motivation},
	}
}

// Missing lists the form names of required fields that are blank.
func (i Intake) Missing() []string {
	var missing []string
	for _, f := range i.Fields() {
		if strings.TrimSpace(f.Value) == "" {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Normalize trims surrounding whitespace from every field.
func (i Intake) Normalize() Intake {
	return Intake{
		Personality:     strings.TrimSpace(i.Personality),
		Role:            strings.TrimSpace(i.Role),
		Skills:          strings.TrimSpace(i.Skills),
		Experience:      strings.TrimSpace(i.Experience),
		CareerGoal:      strings.TrimSpace(i.CareerGoal),
		Motivation:      strings.TrimSpace(i.Motivation),
		AdditionalNotes: strings.TrimSpace(i.AdditionalNotes),
	}
}
