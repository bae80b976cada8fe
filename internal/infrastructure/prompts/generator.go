package prompts

import (
	"bytes"
	"fmt"
	"text/template"

	"webtask-agent/internal/application/port/output"
	"webtask-agent/internal/domain/entity"
)

var _ output.PromptPort = (*Generator)(nil)

// Generator renders one Instruction into transcript pieces. The
// parsed template is immutable after construction, so a Generator is
// safe to share across parallel episodes.
type Generator struct {
	instr *Instruction
	tmpl  *template.Template
}

type headerData struct {
	URL          string
	ErrorMessage string
}

func NewGenerator(instr *Instruction) (*Generator, error) {
	tmpl, err := template.New("turn_header").Parse(instr.Template)
	if err != nil {
		return nil, fmt.Errorf("parse turn template: %w", err)
	}
	return &Generator{instr: instr, tmpl: tmpl}, nil
}

// Preamble builds the protected message prefix: the system intro,
// the few-shot examples as named system messages, and the objective.
func (g *Generator) Preamble(objective string) []entity.Message {
	messages := make([]entity.Message, 0, 2*len(g.instr.Examples)+2)
	messages = append(messages, entity.Message{
		Role:    entity.RoleSystem,
		Content: g.instr.Intro,
		Turn:    -1,
	})

	for _, example := range g.instr.Examples {
		messages = append(messages,
			entity.Message{Role: entity.RoleSystem, Name: "example_user", Content: example[0], Turn: -1},
			entity.Message{Role: entity.RoleSystem, Name: "example_assistant", Content: example[1], Turn: -1},
		)
	}

	messages = append(messages, entity.Message{
		Role:    entity.RoleUser,
		Content: "OBJECTIVE: " + objective,
		Turn:    -1,
	})
	return messages
}

// TurnHeader renders the context block shown above an observation.
func (g *Generator) TurnHeader(url, errorMessage string) string {
	if errorMessage == "" {
		errorMessage = "None"
	}
	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, headerData{URL: url, ErrorMessage: errorMessage}); err != nil {
		// The template is validated at construction; an execute
		// failure leaves the raw values readable.
		return fmt.Sprintf("ERROR MESSAGE: %s\nURL: %s", errorMessage, url)
	}
	return buf.String()
}
