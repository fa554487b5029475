package tui

import (
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Wrapper implements the session's TextWrapper collaborator with reflow.
type Wrapper struct{}

func (Wrapper) Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

var titleCaser = cases.Title(language.AmericanEnglish)

// displayName formats a speaker name for the dialog header.
func displayName(speaker string) string {
	return titleCaser.String(speaker)
}
