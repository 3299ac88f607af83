package auth

import "strings"

// CodeInput models the row of single-digit cells the verification code is
// typed into. It is not safe for concurrent use; Flow guards it.
type CodeInput struct {
	cells         []string
	focus         int
	lastSubmitted string
}

func NewCodeInput(length int) *CodeInput {
	return &CodeInput{cells: make([]string, length)}
}

func (c *CodeInput) Len() int { return len(c.cells) }

func (c *CodeInput) Focus() int { return c.focus }

func (c *CodeInput) Cells() []string {
	out := make([]string, len(c.cells))
	copy(out, c.cells)
	return out
}

func (c *CodeInput) Code() string { return strings.Join(c.cells, "") }

func (c *CodeInput) Full() bool {
	for _, d := range c.cells {
		if d == "" {
			return false
		}
	}
	return true
}

// Change applies a text change on cell index. Text longer than one
// character is a paste: it is cut to the code length and spread over the
// cells from the first one, whatever cell had focus. Characters that are
// not digits leave their cell empty.
//
// ready is true when the cells hold a full code that differs from the last
// submitted one; the caller submits it and calls MarkSubmitted.
func (c *CodeInput) Change(index int, text string) (code string, ready bool) {
	runes := []rune(text)
	if len(runes) > 1 {
		c.paste(runes)
	} else {
		if index < 0 || index >= len(c.cells) {
			return "", false
		}
		c.cells[index] = digitOrEmpty(runes)
		if c.cells[index] != "" && index < len(c.cells)-1 {
			c.focus = index + 1
		} else {
			c.focus = index
		}
	}

	if !c.Full() {
		return "", false
	}
	code = c.Code()
	return code, code != c.lastSubmitted
}

func (c *CodeInput) paste(runes []rune) {
	if len(runes) > len(c.cells) {
		runes = runes[:len(c.cells)]
	}
	for i := range c.cells {
		if i < len(runes) {
			c.cells[i] = digitOrEmpty(runes[i : i+1])
		} else {
			c.cells[i] = ""
		}
	}
	c.focus = len(c.cells) - 1
	for i, d := range c.cells {
		if d == "" {
			c.focus = i
			break
		}
	}
}

// Backspace on an empty cell clears the previous cell and moves focus
// there. On a filled cell the text change clears it instead, so this is a
// no-op, as it is on an empty first cell.
func (c *CodeInput) Backspace(index int) {
	if index <= 0 || index >= len(c.cells) || c.cells[index] != "" {
		return
	}
	c.cells[index-1] = ""
	c.focus = index - 1
}

func (c *CodeInput) MarkSubmitted(code string) {
	c.lastSubmitted = code
}

// Reset empties every cell, focuses the first one and forgets the last
// submitted code.
func (c *CodeInput) Reset() {
	for i := range c.cells {
		c.cells[i] = ""
	}
	c.focus = 0
	c.lastSubmitted = ""
}

func digitOrEmpty(r []rune) string {
	if len(r) == 1 && r[0] >= '0' && r[0] <= '9' {
		return string(r)
	}
	return ""
}
