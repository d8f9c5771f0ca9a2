package dataset

import "context"

// Frame is a raw table, every cell still a string
type Frame struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Source yields a Frame, implementations live in adapters/source
type Source interface {
	Frame(ctx context.Context) (Frame, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) (Frame, error)

// Frame implements Source
func (f SourceFunc) Frame(ctx context.Context) (Frame, error) { return f(ctx) }

// Static serves a fixed frame
func Static(f Frame) Source {
	return SourceFunc(func(context.Context) (Frame, error) { return f, nil })
}
