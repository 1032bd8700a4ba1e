package queue

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = "id, state, install_order, display, display_name, icon, profile_id, content_type, metadata_json, error_message, created_at, updated_at, completed_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id           int64
		stateStr     string
		installOrder int64
		display      int64
		displayName  string
		icon         sql.NullString
		profileID    sql.NullString
		contentType  string
		metadata     sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
		completedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&stateStr,
		&installOrder,
		&display,
		&displayName,
		&icon,
		&profileID,
		&contentType,
		&metadata,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:           id,
		State:        State(stateStr),
		InstallOrder: installOrder,
		Display:      display != 0,
		DisplayName:  displayName,
		Icon:         icon.String,
		ProfileID:    profileID.String,
		ContentType:  ContentType(contentType),
		MetadataJSON: metadata.String,
		ErrorMessage: errorMessage.String,
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			item.CompletedAt = &completed
		}
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
