// Package hook defines the run-status hook configuration, the CI run events it
// reacts to and the filter rules deciding whether a hook reports an event.
package hook

import "slices"

// Event is a CI run lifecycle event a hook can subscribe to.
type Event string

const (
	EventRunStart       Event = "RUN_START"
	EventRunFinish      Event = "RUN_FINISH"
	EventInstanceStart  Event = "INSTANCE_START"
	EventInstanceFinish Event = "INSTANCE_FINISH"
	EventRunTimeout     Event = "RUN_TIMEOUT"
)

// AllEvents lists every known event in lifecycle order.
var AllEvents = []Event{
	EventRunStart,
	EventInstanceStart,
	EventInstanceFinish,
	EventRunFinish,
	EventRunTimeout,
}

// Valid reports whether e is a known event.
func (e Event) Valid() bool {
	return slices.Contains(AllEvents, e)
}

// Type identifies the destination a hook posts to.
type Type string

const (
	TypeDiscord Type = "discord"
	TypeSlack   Type = "slack"
	TypeGeneric Type = "generic"
)

// AllTypes lists the supported hook types.
var AllTypes = []Type{TypeDiscord, TypeGeneric, TypeSlack}

// Valid reports whether t is a supported hook type.
func (t Type) Valid() bool {
	return slices.Contains(AllTypes, t)
}
