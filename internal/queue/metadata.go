package queue

import (
	"encoding/json"
	"strings"
)

// Metadata is the content-type-specific payload attached to a queue item.
// The store validates and serializes it; only the installer interprets it.
type Metadata interface {
	Validate() error
}

// ClientMetadata describes a game client install.
type ClientMetadata struct {
	GameVersion   string `json:"game_version"`
	Loader        string `json:"loader"`
	LoaderVersion string `json:"loader_version,omitempty"`
}

// Validate checks the fields a client install cannot proceed without.
func (m ClientMetadata) Validate() error {
	if strings.TrimSpace(m.GameVersion) == "" {
		return validationErr("client install requires a game version")
	}
	if strings.TrimSpace(m.Loader) == "" {
		return validationErr("client install requires a loader")
	}
	return nil
}

// ContentMetadata describes a mod, resourcepack, shader, or modpack install
// sourced from a remote index.
type ContentMetadata struct {
	Source    string `json:"source"`
	ProjectID string `json:"project_id"`
	VersionID string `json:"version_id,omitempty"`
	SHA512    string `json:"sha512,omitempty"`
}

// Validate checks the fields a content install cannot proceed without.
func (m ContentMetadata) Validate() error {
	if strings.TrimSpace(m.Source) == "" {
		return validationErr("content install requires a source")
	}
	if strings.TrimSpace(m.ProjectID) == "" {
		return validationErr("content install requires a project id")
	}
	return nil
}

// ClientMetadataFromJSON decodes stored client metadata.
func ClientMetadataFromJSON(data string) (ClientMetadata, error) {
	var meta ClientMetadata
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return ClientMetadata{}, validationErr("decode client metadata: %v", err)
	}
	return meta, nil
}

// ContentMetadataFromJSON decodes stored content metadata.
func ContentMetadataFromJSON(data string) (ContentMetadata, error) {
	var meta ContentMetadata
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return ContentMetadata{}, validationErr("decode content metadata: %v", err)
	}
	return meta, nil
}

func marshalMetadata(meta Metadata) (string, error) {
	if meta == nil {
		return "", nil
	}
	if err := meta.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", validationErr("encode metadata: %v", err)
	}
	return string(data), nil
}
