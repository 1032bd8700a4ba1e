package queue

import (
	"strings"
	"time"
)

// State represents the lifecycle of a queue item.
type State string

const (
	StatePending   State = "pending"
	StateCurrent   State = "current"
	StateCompleted State = "completed"
	StateErrored   State = "errored"
	StatePostponed State = "postponed"
)

// CancelledReason is the error message recorded when a user cancels the
// in-flight install.
const CancelledReason = "cancelled by user"

var allStates = []State{
	StatePending,
	StateCurrent,
	StateCompleted,
	StateErrored,
	StatePostponed,
}

var stateSet = func() map[State]struct{} {
	set := make(map[State]struct{}, len(allStates))
	for _, state := range allStates {
		set[state] = struct{}{}
	}
	return set
}()

// AllStates returns the ordered list of known states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stateSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the scheduler will never pick the state up again
// without an explicit user action.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateErrored
}

// ContentType identifies what a queue item installs. The set is open: the
// store accepts unknown values, only the known ones carry extra validation.
type ContentType string

const (
	ContentClient       ContentType = "client"
	ContentMod          ContentType = "mod"
	ContentResourcepack ContentType = "resourcepack"
	ContentShader       ContentType = "shader"
	ContentModpack      ContentType = "modpack"
)

// ParseContentType normalizes a content type string and reports whether it is
// one of the well-known values.
func ParseContentType(value string) (ContentType, bool) {
	normalized := ContentType(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case ContentClient, ContentMod, ContentResourcepack, ContentShader, ContentModpack:
		return normalized, true
	}
	return normalized, false
}

// Item represents a queue item persisted in SQLite.
type Item struct {
	ID           int64
	State        State
	InstallOrder int64
	Display      bool
	DisplayName  string
	Icon         string
	ProfileID    string
	ContentType  ContentType
	MetadataJSON string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// IsClient reports whether the item installs a game client.
func (i Item) IsClient() bool {
	return i.ContentType == ContentClient
}

// ProfileState represents the installation status of a profile.
type ProfileState string

const (
	ProfileUninstalled ProfileState = "uninstalled"
	ProfileInstalling  ProfileState = "installing"
	ProfileInstalled   ProfileState = "installed"
)

// ParseProfileState converts a string into a known ProfileState.
func ParseProfileState(value string) (ProfileState, bool) {
	normalized := ProfileState(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case ProfileUninstalled, ProfileInstalling, ProfileInstalled:
		return normalized, true
	}
	return "", false
}

// Profile represents an independently launchable game instance.
type Profile struct {
	ID               string
	Name             string
	GameVersion      string
	Loader           string
	LoaderVersion    string
	JavaArgs         string
	ResolutionWidth  int
	ResolutionHeight int
	State            ProfileState
	CreatedAt        time.Time
	LastPlayed       *time.Time
}

// StatsSummary describes aggregated queue counts per state.
type StatsSummary struct {
	Total     int
	Pending   int
	Current   int
	Completed int
	Errored   int
	Postponed int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}
