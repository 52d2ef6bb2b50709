package signals

import "time"

// AIMode is the coarse activity label of the AI bridge.
type AIMode string

const (
	AIModeGenerating AIMode = "generating"
	AIModeAnalyzing  AIMode = "analyzing"
	AIModeIdle       AIMode = "idle"
	AIModeError      AIMode = "error"
)

// RawSignals is an immutable snapshot of everything the collector knows at
// CapturedAt. Time-derived fields are computed when the snapshot is taken.
type RawSignals struct {
	CapturedAt    time.Time           `json:"captured_at"`
	User          UserSignals         `json:"user"`
	Session       SessionSignals      `json:"session"`
	AI            AISignals           `json:"ai"`
	Collaboration CollaborationSignal `json:"collaboration"`
}

type UserSignals struct {
	NotesAdded               int           `json:"notes_added"`
	NotesDeleted             int           `json:"notes_deleted"`
	NotesMoved               int           `json:"notes_moved"`
	LastEditAt               time.Time     `json:"last_edit_at,omitzero"`
	EditsInLastMinute        int           `json:"edits_in_last_minute"`
	CurrentTool              string        `json:"current_tool"`
	ToolSwitchesInLastMinute int           `json:"tool_switches_in_last_minute"`
	ToolsUsed                []string      `json:"tools_used"`
	IsPlaying                bool          `json:"is_playing"`
	PlaybackCount            int           `json:"playback_count"`
	LoopCount                int           `json:"loop_count"`
	PlaybackDuration         time.Duration `json:"playback_duration"`
	UndoCount                int           `json:"undo_count"`
	RedoCount                int           `json:"redo_count"`
	LastUndoAt               time.Time     `json:"last_undo_at,omitzero"`
	LastInteractionAt        time.Time     `json:"last_interaction_at"`
	IdleTime                 time.Duration `json:"idle_time"`
}

type SessionSignals struct {
	ID                string        `json:"id"`
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration"`
	ProjectComplexity int           `json:"project_complexity"`
	ModeTransitions   int           `json:"mode_transitions"`
	CurrentMode       string        `json:"current_mode"`
}

type AISignals struct {
	IsGenerating      bool          `json:"is_generating"`
	IsAnalyzing       bool          `json:"is_analyzing"`
	LastGenerationAt  time.Time     `json:"last_generation_at,omitzero"`
	GenerationCount   int           `json:"generation_count"`
	Mode              AIMode        `json:"mode"`
	ResponseIntensity int           `json:"response_intensity"`
	LastLatency       time.Duration `json:"last_latency"`
}

// Active reports whether the AI bridge is generating or analyzing.
func (a AISignals) Active() bool {
	return a.IsGenerating || a.IsAnalyzing
}

type CollaborationSignal struct {
	ActiveCollaborators      int       `json:"active_collaborators"`
	SimultaneousEdits        int       `json:"simultaneous_edits"`
	SharedPlayback           bool      `json:"shared_playback"`
	LastCollaboratorActionAt time.Time `json:"last_collaborator_action_at,omitzero"`
}

// MetricsSummary is a flattened debug view of the collector.
type MetricsSummary struct {
	SessionID         string        `json:"session_id"`
	SessionDuration   time.Duration `json:"session_duration"`
	IdleTime          time.Duration `json:"idle_time"`
	TotalEdits        int           `json:"total_edits"`
	EditsPerMinute    int           `json:"edits_per_minute"`
	ToolSwitchesPerM  int           `json:"tool_switches_per_minute"`
	DistinctTools     int           `json:"distinct_tools"`
	Playing           bool          `json:"playing"`
	Loops             int           `json:"loops"`
	UndoRedo          int           `json:"undo_redo"`
	AIMode            AIMode        `json:"ai_mode"`
	Collaborators     int           `json:"collaborators"`
	EditLogSize       int           `json:"edit_log_size"`
	ToolSwitchLogSize int           `json:"tool_switch_log_size"`
}
