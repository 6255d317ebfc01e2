package agenda

import (
	"strings"
	"text/template"

	"oneonone/agenda-service/internal/models"
)

const systemPrompt = "You are an experienced HR assistant who specialises in preparing agendas for one-on-one meetings between managers and their team members."

var userPrompt = template.Must(template.New("agenda").Parse(`Based on the team member profile below, draft a detailed agenda for a one-on-one meeting between the manager and the team member.
Follow the structure listed under "Agenda structure" and include concrete example questions and discussion points.

Team member profile:
- Personality: {{.Personality}}
- Role and current work: {{.Role}}
- Skills: {{.Skills}}
- Experience: {{.Experience}}
- Career goal: {{.CareerGoal}}
- Motivation and values: {{.Motivation}}
- Additional notes: {{.AdditionalNotes}}

Agenda structure:
1. Review of previous goals and progress
2. Current work and challenges
3. Skill development and growth opportunities
4. Career path and future goals
5. Support and resources needed
6. Goals until the next meeting

Include example questions for every section.
`))

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildMessages renders the chat messages sent for one intake record.
func BuildMessages(intake models.Intake) ([]Message, error) {
	var b strings.Builder
	if err := userPrompt.Execute(&b, intake); err != nil {
		return nil, err
	}
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	}, nil
}
