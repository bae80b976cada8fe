package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webtask-agent/internal/domain/entity"
)

func TestLoadDefault(t *testing.T) {
	instr, err := LoadDefault()
	require.NoError(t, err)

	assert.NotEmpty(t, instr.Intro)
	assert.NotEmpty(t, instr.Examples)
	assert.Equal(t, "`", instr.MetaData.ActionSplitter)
	assert.Equal(t, "Action: ", instr.MetaData.AnswerPhrase)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"no intro", `{"template": "URL: {{.URL}}"}`},
		{"no template", `{"intro": "You are an agent."}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestPreamble(t *testing.T) {
	instr, err := LoadDefault()
	require.NoError(t, err)
	gen, err := NewGenerator(instr)
	require.NoError(t, err)

	msgs := gen.Preamble("find the cheapest laptop")

	require.Len(t, msgs, 2+2*len(instr.Examples))
	assert.Equal(t, entity.RoleSystem, msgs[0].Role)
	assert.Equal(t, instr.Intro, msgs[0].Content)

	for i := 0; i < len(instr.Examples); i++ {
		assert.Equal(t, "example_user", msgs[1+2*i].Name)
		assert.Equal(t, "example_assistant", msgs[2+2*i].Name)
	}

	last := msgs[len(msgs)-1]
	assert.Equal(t, entity.RoleUser, last.Role)
	assert.Equal(t, "OBJECTIVE: find the cheapest laptop", last.Content)
	for _, msg := range msgs {
		assert.Equal(t, -1, msg.Turn)
	}
}

func TestTurnHeader(t *testing.T) {
	instr, err := LoadDefault()
	require.NoError(t, err)
	gen, err := NewGenerator(instr)
	require.NoError(t, err)

	header := gen.TurnHeader("http://localhost:7770/cart", "element 5 not found")
	assert.Contains(t, header, "ERROR MESSAGE: element 5 not found")
	assert.Contains(t, header, "URL: http://localhost:7770/cart")

	header = gen.TurnHeader("http://localhost:7770/", "")
	assert.Contains(t, header, "ERROR MESSAGE: None")
}

func TestNewGenerator_BadTemplate(t *testing.T) {
	_, err := NewGenerator(&Instruction{Intro: "x", Template: "{{.Broken"})
	assert.Error(t, err)
}
