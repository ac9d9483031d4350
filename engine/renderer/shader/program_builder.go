package shader

import "github.com/Carmen-Shannon/oxy-gl/engine/message"

// ProgramBuilderOption is a functional option applied to a program during construction via NewProgram.
type ProgramBuilderOption func(*program)

// WithReader sets the file reader used to resolve #include directives. Without a reader every
// include is treated as missing.
//
// Parameters:
//   - reader: the include resolver, normally the game package
//
// Returns:
//   - ProgramBuilderOption: a function that applies the reader option to a program
func WithReader(reader FileReader) ProgramBuilderOption {
	return func(p *program) {
		p.reader = reader
	}
}

// WithVersion replaces the version directive prepended to every stage.
//
// Parameters:
//   - directive: the full first line, e.g. "#version 330 core"
//
// Returns:
//   - ProgramBuilderOption: a function that applies the version option to a program
func WithVersion(directive string) ProgramBuilderOption {
	return func(p *program) {
		if directive != "" {
			p.version = directive
		}
	}
}

// WithMessageQueue sets the sink that receives CrashDown messages on compile or link failure.
//
// Parameters:
//   - poster: the message sink
//
// Returns:
//   - ProgramBuilderOption: a function that applies the queue option to a program
func WithMessageQueue(poster message.Poster) ProgramBuilderOption {
	return func(p *program) {
		p.poster = poster
	}
}

// WithLabel names the program in log entries and crash reasons.
//
// Parameters:
//   - label: the program name
//
// Returns:
//   - ProgramBuilderOption: a function that applies the label option to a program
func WithLabel(label string) ProgramBuilderOption {
	return func(p *program) {
		p.label = label
	}
}
