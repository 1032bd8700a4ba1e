package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const profileColumns = "id, name, game_version, loader, loader_version, java_args, resolution_width, resolution_height, state, created_at, last_played"

// CreateProfile inserts a new profile. A missing id is generated.
func (s *Store) CreateProfile(ctx context.Context, profile Profile) (*Profile, error) {
	if strings.TrimSpace(profile.Name) == "" {
		return nil, validationErr("profile name must not be empty")
	}
	if strings.TrimSpace(profile.GameVersion) == "" {
		return nil, validationErr("profile requires a game version")
	}
	if strings.TrimSpace(profile.Loader) == "" {
		return nil, validationErr("profile requires a loader")
	}
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.State == "" {
		profile.State = ProfileUninstalled
	}
	profile.CreatedAt = time.Now().UTC()

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO profiles (
            id, name, game_version, loader, loader_version, java_args,
            resolution_width, resolution_height, state, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID,
		strings.TrimSpace(profile.Name),
		profile.GameVersion,
		profile.Loader,
		nullableString(profile.LoaderVersion),
		nullableString(profile.JavaArgs),
		profile.ResolutionWidth,
		profile.ResolutionHeight,
		profile.State,
		profile.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return s.GetProfile(ctx, profile.ID)
}

// GetProfile fetches a profile by identifier. A missing profile returns nil
// without error.
func (s *Store) GetProfile(ctx context.Context, id string) (*Profile, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// ListProfiles returns every profile ordered by creation time.
func (s *Store) ListProfiles(ctx context.Context) ([]*Profile, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+profileColumns+` FROM profiles ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

// UpdateProfileState persists a profile state change.
func (s *Store) UpdateProfileState(ctx context.Context, id string, state ProfileState) error {
	res, err := s.execWithRetry(ctx, `UPDATE profiles SET state = ? WHERE id = ?`, state, id)
	if err != nil {
		return fmt.Errorf("update profile state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFoundErr("profile", id)
	}
	return nil
}

// TouchLastPlayed records a launch timestamp on the profile.
func (s *Store) TouchLastPlayed(ctx context.Context, id string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE profiles SET last_played = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("touch last played: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFoundErr("profile", id)
	}
	return nil
}

// DeleteProfile removes a profile and its queue history. Rejected while any
// of the profile's items is installing.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	return s.txWithRetry(ctx, func(tx *sql.Tx) error {
		var itemID int64
		err := tx.QueryRowContext(
			ctx,
			`SELECT id FROM queue_items WHERE profile_id = ? AND state = ? LIMIT 1`,
			id, StateCurrent,
		).Scan(&itemID)
		if err == nil {
			return invalidStateErr(itemID, StateCurrent, "delete profile with")
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check in-flight items: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM queue_items WHERE profile_id = ?`, id); err != nil {
			return fmt.Errorf("delete profile items: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return notFoundErr("profile", id)
		}
		return nil
	})
}

func scanProfile(scanner interface{ Scan(dest ...any) error }) (*Profile, error) {
	var (
		id            string
		name          string
		gameVersion   string
		loader        string
		loaderVersion sql.NullString
		javaArgs      sql.NullString
		resWidth      int
		resHeight     int
		stateStr      string
		createdRaw    string
		lastPlayedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&name,
		&gameVersion,
		&loader,
		&loaderVersion,
		&javaArgs,
		&resWidth,
		&resHeight,
		&stateStr,
		&createdRaw,
		&lastPlayedRaw,
	); err != nil {
		return nil, err
	}

	profile := &Profile{
		ID:               id,
		Name:             name,
		GameVersion:      gameVersion,
		Loader:           loader,
		LoaderVersion:    loaderVersion.String,
		JavaArgs:         javaArgs.String,
		ResolutionWidth:  resWidth,
		ResolutionHeight: resHeight,
		State:            ProfileState(stateStr),
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		profile.CreatedAt = created
	}
	if lastPlayedRaw.Valid {
		if lastPlayed, err := parseTimeString(lastPlayedRaw.String); err == nil {
			profile.LastPlayed = &lastPlayed
		}
	}
	return profile, nil
}
