package api

import (
	"time"

	"lodestone/internal/queue"
)

// QueueItem is the wire representation of a queue item.
type QueueItem struct {
	ID           int64      `json:"id"`
	State        string     `json:"state"`
	InstallOrder int64      `json:"install_order"`
	Display      bool       `json:"display"`
	DisplayName  string     `json:"display_name"`
	Icon         string     `json:"icon,omitempty"`
	ProfileID    string     `json:"profile_id,omitempty"`
	ContentType  string     `json:"content_type"`
	Metadata     string     `json:"metadata,omitempty"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Profile is the wire representation of a profile.
type Profile struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	GameVersion      string     `json:"game_version"`
	Loader           string     `json:"loader"`
	LoaderVersion    string     `json:"loader_version,omitempty"`
	JavaArgs         string     `json:"java_args,omitempty"`
	ResolutionWidth  int        `json:"resolution_width,omitempty"`
	ResolutionHeight int        `json:"resolution_height,omitempty"`
	State            string     `json:"state"`
	CreatedAt        time.Time  `json:"created_at"`
	LastPlayed       *time.Time `json:"last_played,omitempty"`
}

// FromQueueItem converts a store item to its DTO.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}
	return QueueItem{
		ID:           item.ID,
		State:        string(item.State),
		InstallOrder: item.InstallOrder,
		Display:      item.Display,
		DisplayName:  item.DisplayName,
		Icon:         item.Icon,
		ProfileID:    item.ProfileID,
		ContentType:  string(item.ContentType),
		Metadata:     item.MetadataJSON,
		Error:        item.ErrorMessage,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
		CompletedAt:  item.CompletedAt,
	}
}

// FromQueueItems converts a slice of store items.
func FromQueueItems(items []*queue.Item) []QueueItem {
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, FromQueueItem(item))
	}
	return out
}

// FromProfile converts a store profile to its DTO.
func FromProfile(profile *queue.Profile) Profile {
	if profile == nil {
		return Profile{}
	}
	return Profile{
		ID:               profile.ID,
		Name:             profile.Name,
		GameVersion:      profile.GameVersion,
		Loader:           profile.Loader,
		LoaderVersion:    profile.LoaderVersion,
		JavaArgs:         profile.JavaArgs,
		ResolutionWidth:  profile.ResolutionWidth,
		ResolutionHeight: profile.ResolutionHeight,
		State:            string(profile.State),
		CreatedAt:        profile.CreatedAt,
		LastPlayed:       profile.LastPlayed,
	}
}

// FromProfiles converts a slice of store profiles.
func FromProfiles(profiles []*queue.Profile) []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, profile := range profiles {
		if profile == nil {
			continue
		}
		out = append(out, FromProfile(profile))
	}
	return out
}
