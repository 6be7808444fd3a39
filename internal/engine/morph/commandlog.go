package morph

import "fmt"

// Op identifies a mutation reported to a CommandLog.
type Op int

const (
	OpAddChannel Op = iota
	OpRemoveChannel
	OpDeleteAll
	OpSwapChannels
	OpMoveChannel
	OpSetTarget
	OpAddProgressive
	OpRemoveProgressive
	OpSetPercent
	OpSetSource
	OpSetActive
	OpSetPercentSource
	OpSetLimits
	OpSetCurvature
	OpSetSelection
	OpReset
)

var opNames = [...]string{
	OpAddChannel:        "add-channel",
	OpRemoveChannel:     "remove-channel",
	OpDeleteAll:         "delete-all",
	OpSwapChannels:      "swap-channels",
	OpMoveChannel:       "move-channel",
	OpSetTarget:         "set-target",
	OpAddProgressive:    "add-progressive",
	OpRemoveProgressive: "remove-progressive",
	OpSetPercent:        "set-percent",
	OpSetSource:         "set-source",
	OpSetActive:         "set-active",
	OpSetPercentSource:  "set-percent-source",
	OpSetLimits:         "set-limits",
	OpSetCurvature:      "set-curvature",
	OpSetSelection:      "set-selection",
	OpReset:             "reset",
}

// String returns a short kebab-case name.
func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Command describes one mutation. Channel and Other are bank indices
// (-1 when not applicable); Slot is an axis slot for target operations.
type Command struct {
	Op      Op
	Channel int
	Other   int
	Slot    int
	Name    string
}

// CommandLog receives mutations from a Bank and its channels, for example to
// feed an undo stack. The engine never reads it back.
type CommandLog interface {
	Record(cmd Command)
}

// CommandLogFunc adapts a function to CommandLog.
type CommandLogFunc func(cmd Command)

// Record implements CommandLog.
func (f CommandLogFunc) Record(cmd Command) { f(cmd) }
