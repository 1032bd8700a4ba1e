package ipc

import "lodestone/internal/api"

// QueueItem mirrors the queue DTO for IPC callers.
type QueueItem = api.QueueItem

// Profile mirrors the profile DTO for IPC callers.
type Profile = api.Profile

// ContentRef identifies one piece of content to install.
type ContentRef = api.ContentRef

// StartRequest triggers daemon processing startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon processing.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/scheduler status information.
type StatusResponse struct {
	Running     bool           `json:"running"`
	PID         int            `json:"pid"`
	QueueStats  map[string]int `json:"queue_stats"`
	LastError   string         `json:"last_error"`
	LastItem    *QueueItem     `json:"last_item"`
	LockPath    string         `json:"lock_path"`
	QueueDBPath string         `json:"queue_db_path"`
}

// InstallClientRequest queues a game client install for a profile.
type InstallClientRequest struct {
	ProfileID     string `json:"profile_id"`
	GameVersion   string `json:"game_version"`
	Loader        string `json:"loader"`
	LoaderVersion string `json:"loader_version"`
}

// InstallClientResponse returns the queued item.
type InstallClientResponse struct {
	Item QueueItem `json:"item"`
}

// InstallContentRequest queues content installs for a profile.
type InstallContentRequest struct {
	ProfileID   string       `json:"profile_id"`
	ContentType string       `json:"content_type"`
	Refs        []ContentRef `json:"refs"`
}

// InstallContentResponse returns the queued items in install order.
type InstallContentResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueListRequest filters queue listing by states and optional profile.
type QueueListRequest struct {
	States    []string `json:"states"`
	ProfileID string   `json:"profile_id"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueDescribeRequest fetches a single queue item by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a single queue entry.
type QueueDescribeResponse struct {
	Item QueueItem `json:"item"`
}

// QueueRetryRequest moves an errored item back to pending.
type QueueRetryRequest struct {
	ID int64 `json:"id"`
}

// QueueRetryResponse returns the updated item.
type QueueRetryResponse struct {
	Item QueueItem `json:"item"`
}

// QueuePostponeRequest parks a pending item.
type QueuePostponeRequest struct {
	ID int64 `json:"id"`
}

// QueuePostponeResponse returns the updated item.
type QueuePostponeResponse struct {
	Item QueueItem `json:"item"`
}

// QueueResumeRequest returns a postponed item to the queue tail.
type QueueResumeRequest struct {
	ID int64 `json:"id"`
}

// QueueResumeResponse returns the updated item.
type QueueResumeResponse struct {
	Item QueueItem `json:"item"`
}

// QueueRemoveRequest deletes a non-current item.
type QueueRemoveRequest struct {
	ID int64 `json:"id"`
}

// QueueRemoveResponse reports removal.
type QueueRemoveResponse struct {
	Removed bool `json:"removed"`
}

// QueueCancelRequest asks the in-flight install to stop.
type QueueCancelRequest struct {
	ID int64 `json:"id"`
}

// QueueCancelResponse reports that cancellation was requested.
type QueueCancelResponse struct {
	Requested bool `json:"requested"`
}

// QueueClearRequest bulk-deletes items: all non-current items when State is
// empty, otherwise every item in the named state.
type QueueClearRequest struct {
	State string `json:"state"`
}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string `json:"db_path"`
	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	SchemaVersion    string `json:"schema_version"`
	TableExists      bool   `json:"table_exists"`
	IntegrityCheck   bool   `json:"integrity_check"`
	TotalItems       int    `json:"total_items"`
	Error            string `json:"error"`
}

// ProfileCreateRequest registers a new profile.
type ProfileCreateRequest struct {
	Name             string `json:"name"`
	GameVersion      string `json:"game_version"`
	Loader           string `json:"loader"`
	LoaderVersion    string `json:"loader_version"`
	JavaArgs         string `json:"java_args"`
	ResolutionWidth  int    `json:"resolution_width"`
	ResolutionHeight int    `json:"resolution_height"`
}

// ProfileCreateResponse returns the created profile.
type ProfileCreateResponse struct {
	Profile Profile `json:"profile"`
}

// ProfileListRequest fetches all profiles.
type ProfileListRequest struct{}

// ProfileListResponse contains every profile.
type ProfileListResponse struct {
	Profiles []Profile `json:"profiles"`
}

// ProfileRemoveRequest deletes a profile and its queue history.
type ProfileRemoveRequest struct {
	ID string `json:"id"`
}

// ProfileRemoveResponse reports removal.
type ProfileRemoveResponse struct {
	Removed bool `json:"removed"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
