package components

import (
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpool/internal/ui/theme"
)

// ChoiceList is a vertical list of options. In single mode Enter or a
// number key picks the option under the cursor; in multi mode Space or a
// number key toggles options and Enter submits the set.
type ChoiceList struct {
	Options   []string
	Multi     bool
	Cursor    int
	Submitted bool

	checked map[int]bool
}

// NewChoiceList creates a choice list over options.
func NewChoiceList(options []string, multi bool) ChoiceList {
	return ChoiceList{
		Options: options,
		Multi:   multi,
		checked: make(map[int]bool),
	}
}

// Init returns nil.
func (c ChoiceList) Init() tea.Cmd {
	return nil
}

// Update handles keyboard navigation and selection.
func (c ChoiceList) Update(msg tea.Msg) (ChoiceList, tea.Cmd) {
	if c.Submitted {
		return c, nil
	}

	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return c, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
		return c, nil
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
		return c, nil
	case "space", " ":
		if c.Multi {
			c.toggle(c.Cursor)
		}
		return c, nil
	case "enter":
		if c.Multi {
			c.Submitted = len(c.checked) > 0
		} else if len(c.Options) > 0 {
			c.checked = map[int]bool{c.Cursor: true}
			c.Submitted = true
		}
		return c, nil
	}

	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(c.Options) && n <= 9 {
		c.Cursor = n - 1
		if c.Multi {
			c.toggle(c.Cursor)
		} else {
			c.checked = map[int]bool{c.Cursor: true}
			c.Submitted = true
		}
	}
	return c, nil
}

func (c *ChoiceList) toggle(i int) {
	if c.checked == nil {
		c.checked = make(map[int]bool)
	}
	if c.checked[i] {
		delete(c.checked, i)
	} else {
		c.checked[i] = true
	}
}

// Chosen returns the picked option indexes in ascending order.
func (c ChoiceList) Chosen() []int {
	var out []int
	for i := range c.Options {
		if c.checked[i] {
			out = append(out, i)
		}
	}
	return out
}

// View renders the list.
func (c ChoiceList) View() string {
	var b strings.Builder
	for i, opt := range c.Options {
		prefix := "  "
		if i == c.Cursor && !c.Submitted {
			prefix = "> "
		}
		mark := ""
		if c.Multi {
			mark = "[ ] "
			if c.checked[i] {
				mark = "[x] "
			}
		}
		line := fmt.Sprintf("%s%d) %s%s", prefix, i+1, mark, opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case c.Submitted && c.checked[i]:
			style = theme.Selected
		case c.Submitted:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == c.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// Hint returns the usage line shown under the list.
func (c ChoiceList) Hint() string {
	if c.Multi {
		return "Space or 1-9 to toggle, Enter to submit"
	}
	return "Select (1-9) or use arrows + Enter"
}
