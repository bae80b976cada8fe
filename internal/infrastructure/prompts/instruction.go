package prompts

import (
	"encoding/json"
	_ "embed"
	"fmt"
)

//go:embed react.json
var defaultInstructionJSON []byte

// Instruction is the prompt configuration for an episode: the system
// intro, the few-shot example pairs, the per-turn context template
// and the grammar policy the parser needs.
type Instruction struct {
	Intro    string      `json:"intro"`
	Examples [][2]string `json:"examples"`
	Template string      `json:"template"`
	MetaData MetaData    `json:"meta_data"`
}

type MetaData struct {
	AnswerPhrase   string   `json:"answer_phrase"`
	ActionSplitter string   `json:"action_splitter"`
	Keywords       []string `json:"keywords"`
}

// Load parses an instruction record from JSON.
func Load(data []byte) (*Instruction, error) {
	var instr Instruction
	if err := json.Unmarshal(data, &instr); err != nil {
		return nil, fmt.Errorf("parse instruction: %w", err)
	}
	if instr.Intro == "" {
		return nil, fmt.Errorf("instruction has no intro")
	}
	if instr.Template == "" {
		return nil, fmt.Errorf("instruction has no template")
	}
	return &instr, nil
}

// LoadDefault returns the embedded react instruction.
func LoadDefault() (*Instruction, error) {
	return Load(defaultInstructionJSON)
}
