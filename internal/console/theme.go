package console

import "github.com/jedib0t/go-pretty/v6/text"

// Theme holds the colours used for panel borders and notices.
type Theme struct {
	Success text.Colors
	Failure text.Colors
	Notice  text.Colors
	Scope   text.Colors
}

var DefaultTheme = Theme{
	Success: text.Colors{text.FgGreen},
	Failure: text.Colors{text.FgRed},
	Notice:  text.Colors{text.FgYellow},
	Scope:   text.Colors{text.FgBlue},
}

// Status picks the border colour for a failed or succeeded node.
func (t Theme) Status(failed bool) text.Colors {
	if failed {
		return t.Failure
	}
	return t.Success
}
