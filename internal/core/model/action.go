package model

// Action is a discrete user command relayed from the companion window back
// to the controller. Actions carry no payload; all context is read from the
// receiver's own engine state.
type Action string

const (
	ActionToggleTimer  Action = "toggleTimer"
	ActionStartBreak   Action = "startBreak"
	ActionEndBreak     Action = "endBreak"
	ActionCompleteTask Action = "completeTask"
	ActionResetTimer   Action = "resetTimer"
	ActionToggleMode   Action = "toggleMode"
	ActionRestoreMain  Action = "restoreMain"
)

// ParseAction maps a wire tag to a known Action. Unknown tags report false
// and must be ignored by the receiver.
func ParseAction(tag string) (Action, bool) {
	switch Action(tag) {
	case ActionToggleTimer, ActionStartBreak, ActionEndBreak,
		ActionCompleteTask, ActionResetTimer, ActionToggleMode,
		ActionRestoreMain:
		return Action(tag), true
	}
	return "", false
}
