// Package console lays out nested terminal panels on top of go-pretty.
package console

import "strings"

// Renderable is anything that can lay itself out in a fixed number of cells.
type Renderable interface {
	// Width reports the natural width, never more than max.
	Width(max int) int
	// Lines renders the value with every line exactly width cells wide.
	Lines(width int) []string
}

func blank(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}
