package model

// RuntimeSnapshot is the display-ready projection of engine state. It is the
// only structure that crosses the window boundary: the companion widget
// renders purely from snapshots and never touches engine state.
type RuntimeSnapshot struct {
	Mode            Mode    `json:"mode"`
	IsRunning       bool    `json:"isRunning"`
	IsOvertime      bool    `json:"isOvertime"`
	TimeText        string  `json:"timeText"`
	StatusText      string  `json:"statusText"`
	Theme           string  `json:"theme"`
	Progress        float64 `json:"progress"`
	TaskTitle       string  `json:"taskTitle"`
	HasActiveTask   bool    `json:"hasActiveTask"`
	TimeLeft        int     `json:"timeLeft"`
	TimeElapsed     int     `json:"timeElapsed"`
	TimerDuration   int     `json:"timerDuration"`
	OvertimeSeconds int     `json:"overtimeSeconds"`
}

// Snapshot themes consumed by the rendering layer.
const (
	ThemeFocus    = "focus"
	ThemeBreak    = "break"
	ThemeOvertime = "overtime"
)
