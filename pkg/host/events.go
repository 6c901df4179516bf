package host

import "context"

// EventSetGlobals is the push event a host fires when it replaces the
// widget's globals, tool output included.
const EventSetGlobals = "openai:set_globals"

// Globals mirrors the host's widget-global bag. Only ToolOutput is consulted
// here; hosts put other keys in the same object.
type Globals struct {
	ToolOutput  interface{} `json:"toolOutput"`
	WidgetState interface{} `json:"widgetState,omitempty"`
	DisplayMode string      `json:"displayMode,omitempty"`
}

// SetGlobalsEvent is the payload delivered with EventSetGlobals.
type SetGlobalsEvent struct {
	Type    string  `json:"type,omitempty"`
	Globals Globals `json:"globals"`
}

// FollowUpMessage is what a widget hands back to the host to continue the
// conversation on the user's behalf.
type FollowUpMessage struct {
	Prompt string `json:"prompt"`
}

// FollowUpSender delivers a follow-up message to the host. Best effort: the
// host may ignore it.
type FollowUpSender interface {
	SendFollowUpMessage(ctx context.Context, msg FollowUpMessage) error
}

// FuncSender adapts a plain function to FollowUpSender.
type FuncSender func(ctx context.Context, msg FollowUpMessage) error

func (f FuncSender) SendFollowUpMessage(ctx context.Context, msg FollowUpMessage) error {
	return f(ctx, msg)
}
