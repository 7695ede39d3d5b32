package tui

import (
	"io"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
)

// Theme captures optional message prefixes the editor applies when printing
// section headers.
type Theme struct {
	SectionPrefix string
}

// Option configures an Editor.
type Option func(*Editor)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(e *Editor) {
		if driver != nil {
			e.driver = driver
		}
	}
}

// WithEngine sets the field engine used to add repetitions.
func WithEngine(engine *fields.Engine) Option {
	return func(e *Editor) {
		if engine != nil {
			e.engine = engine
		}
	}
}

// WithOutput directs the default survey driver's messages to out.
func WithOutput(out io.Writer) Option {
	return func(e *Editor) {
		e.out = out
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(e *Editor) {
		e.theme = theme
	}
}
