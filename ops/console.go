package ops

import "context"

// ConsoleLine is one buffered console call, tagged by level.
type ConsoleLine struct {
	Level string
	Text  string
}

// ConsoleBuffer accumulates console output for a single render. The
// Host owns one buffer per render and swaps the pointer a Current
// holds before invoking user code; console ops always append to
// whichever buffer is current at call time, per spec.md's "console
// ops append to whichever buffer is current" ownership rule.
type ConsoleBuffer struct {
	lines []ConsoleLine
}

// NewConsoleBuffer returns an empty buffer.
func NewConsoleBuffer() *ConsoleBuffer {
	return &ConsoleBuffer{}
}

// Append adds one line at the given level.
func (b *ConsoleBuffer) Append(level, text string) {
	b.lines = append(b.lines, ConsoleLine{Level: level, Text: text})
}

// Lines returns the lines appended so far, in call order.
func (b *ConsoleBuffer) Lines() []ConsoleLine {
	return b.lines
}

// Current resolves which buffer is "live" at the moment a console op
// fires. The Host sets this whenever it starts or finishes a render;
// renders are strictly serial so a single pointer suffices.
type Current struct {
	buf *ConsoleBuffer
}

// Set installs buf as the live buffer. Passing nil makes console calls
// outside a render a no-op rather than a panic.
func (c *Current) Set(buf *ConsoleBuffer) {
	c.buf = buf
}

// RegisterConsole installs console_log/warn/error into reg. Every call
// appends a pre-formatted line to whichever buffer Current.Set last
// installed; there is no synchronous output and no formatting beyond
// what the bootstrap script performs before calling in.
func RegisterConsole(reg *Registry, current *Current) {
	for _, level := range []string{"log", "warn", "error"} {
		level := level
		reg.Register("console_"+level, func(_ context.Context, args map[string]any) (any, error) {
			text, _ := args["text"].(string)
			if current.buf != nil {
				current.buf.Append(level, text)
			}
			return nil, nil
		})
	}
}
