package core

import "context"

type OptionKey string

const (
	PumpOptionKey    OptionKey = "pump_options"
	ProcessOptionKey OptionKey = "process_options"
)

type BufferOption struct {
	Value int
}

type PumpOptions struct {
	Buffer BufferOption
}

type ProcessOptions struct {
	ProcessRemaining bool
}

// WithPumpOptions sets the output buffer of pumps started with ctx.
func WithPumpOptions(ctx context.Context, buffer int) context.Context {
	return context.WithValue(ctx, PumpOptionKey, PumpOptions{BufferOption{Value: buffer}})
}

// WithProcessOptions controls whether a stopping pump hands the items that
// are already ready to its OnCancelRemaining handler.
func WithProcessOptions(ctx context.Context, processRemaining bool) context.Context {
	return context.WithValue(ctx, ProcessOptionKey, ProcessOptions{ProcessRemaining: processRemaining})
}

func GetPumpBuffer(ctx context.Context, defaultBuffer int) int {
	options, ok := ctx.Value(PumpOptionKey).(PumpOptions)
	if ok && options.Buffer.Value >= 0 {
		return options.Buffer.Value
	}
	return defaultBuffer
}

func IsProcessRemainingEnabled(ctx context.Context, defaultProcessRemaining bool) bool {
	options, ok := ctx.Value(ProcessOptionKey).(ProcessOptions)
	if ok {
		return options.ProcessRemaining
	}
	return defaultProcessRemaining
}
