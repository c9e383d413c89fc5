package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// NumericRunes accepts the characters of a signed decimal number.
func NumericRunes(r rune) bool {
	return (r >= '0' && r <= '9') || r == '.' || r == '-'
}

// TextInput is a free-text answer field.
type TextInput struct {
	Model textinput.Model

	// Accept filters typed characters. nil accepts everything.
	Accept func(rune) bool
}

// NewTextInput creates a focused input limited to maxLen characters
// (0 for no limit).
func NewTextInput(placeholder string, accept func(rune) bool, maxLen int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = maxLen
	ti.Focus()
	return TextInput{Model: ti, Accept: accept}
}

func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update drops single-character key presses that Accept rejects and
// forwards everything else to the underlying model.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok && t.Accept != nil {
		if runes := []rune(kmsg.Text); len(runes) == 1 && !t.Accept(runes[0]) {
			return t, nil
		}
	}
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

func (t TextInput) View() string {
	return t.Model.View()
}

func (t TextInput) Value() string {
	return t.Model.Value()
}
