package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"lodestone/internal/events"
	"lodestone/internal/logging"
	"lodestone/internal/queue"
)

// instanceDirs is the on-disk layout materialized for every game instance.
var instanceDirs = []string{"mods", "resourcepacks", "shaderpacks", "saves", "config"}

// Local materializes queue items into per-profile instance directories under
// a root path. Client installs create the instance skeleton and write its
// manifest; content installs record the placed artifact in the manifest.
//
// Download and extraction of the actual game files sit behind separate
// provider integrations; Local owns only the filesystem layout and manifest
// bookkeeping both sides agree on.
type Local struct {
	root   string
	logger *slog.Logger
}

// NewLocal constructs a filesystem installer rooted at instancesDir.
func NewLocal(instancesDir string, logger *slog.Logger) *Local {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Local{root: instancesDir, logger: logger.With(logging.String(logging.FieldComponent, "installer"))}
}

type manifest struct {
	ProfileID   string          `json:"profile_id"`
	GameVersion string          `json:"game_version,omitempty"`
	Loader      string          `json:"loader,omitempty"`
	InstalledAt time.Time       `json:"installed_at"`
	Content     []manifestEntry `json:"content,omitempty"`
}

type manifestEntry struct {
	ContentType string    `json:"content_type"`
	ProjectID   string    `json:"project_id"`
	VersionID   string    `json:"version_id,omitempty"`
	SHA512      string    `json:"sha512,omitempty"`
	InstalledAt time.Time `json:"installed_at"`
}

// Install places the item under the profile's instance directory.
func (l *Local) Install(ctx context.Context, item *queue.Item, progress ProgressFunc) error {
	if item == nil {
		return fmt.Errorf("installer received nil item")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	switch item.ContentType {
	case queue.ContentClient:
		return l.installClient(ctx, item, progress)
	default:
		return l.installContent(ctx, item, progress)
	}
}

func (l *Local) installClient(ctx context.Context, item *queue.Item, progress ProgressFunc) error {
	meta, err := queue.ClientMetadataFromJSON(item.MetadataJSON)
	if err != nil {
		return err
	}
	dir := l.instanceDir(item.ProfileID)
	report(progress, events.Progress{FilesTotal: len(instanceDirs) + 1, Message: "creating instance layout"})

	for i, sub := range instanceDirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("create instance directory: %w", err)
		}
		report(progress, events.Progress{FilesCurrent: i + 1, FilesTotal: len(instanceDirs) + 1})
	}

	m := manifest{
		ProfileID:   item.ProfileID,
		GameVersion: meta.GameVersion,
		Loader:      meta.Loader,
		InstalledAt: time.Now().UTC(),
	}
	if err := l.writeManifest(dir, &m); err != nil {
		return err
	}
	report(progress, events.Progress{FilesCurrent: len(instanceDirs) + 1, FilesTotal: len(instanceDirs) + 1, Message: "instance ready"})
	l.logger.Info("client instance materialized",
		logging.String(logging.FieldProfileID, item.ProfileID),
		logging.String("game_version", meta.GameVersion),
		logging.String("loader", meta.Loader))
	return nil
}

func (l *Local) installContent(ctx context.Context, item *queue.Item, progress ProgressFunc) error {
	meta, err := queue.ContentMetadataFromJSON(item.MetadataJSON)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := l.instanceDir(item.ProfileID)
	if _, statErr := os.Stat(dir); statErr != nil {
		return fmt.Errorf("instance for profile %s not installed: %w", item.ProfileID, statErr)
	}

	report(progress, events.Progress{FilesTotal: 1, Message: "recording content"})
	m, err := l.readManifest(dir)
	if err != nil {
		return err
	}
	m.Content = append(m.Content, manifestEntry{
		ContentType: string(item.ContentType),
		ProjectID:   meta.ProjectID,
		VersionID:   meta.VersionID,
		SHA512:      meta.SHA512,
		InstalledAt: time.Now().UTC(),
	})
	if err := l.writeManifest(dir, m); err != nil {
		return err
	}
	report(progress, events.Progress{FilesCurrent: 1, FilesTotal: 1, Message: "content recorded"})
	return nil
}

func (l *Local) instanceDir(profileID string) string {
	return filepath.Join(l.root, profileID)
}

func (l *Local) manifestPath(dir string) string {
	return filepath.Join(dir, "instance.json")
}

func (l *Local) readManifest(dir string) (*manifest, error) {
	data, err := os.ReadFile(l.manifestPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return &manifest{}, nil
		}
		return nil, fmt.Errorf("read instance manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode instance manifest: %w", err)
	}
	return &m, nil
}

func (l *Local) writeManifest(dir string, m *manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode instance manifest: %w", err)
	}
	tmp := l.manifestPath(dir) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write instance manifest: %w", err)
	}
	if err := os.Rename(tmp, l.manifestPath(dir)); err != nil {
		return fmt.Errorf("replace instance manifest: %w", err)
	}
	return nil
}

func report(progress ProgressFunc, p events.Progress) {
	if progress != nil {
		progress(p)
	}
}
