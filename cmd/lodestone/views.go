package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lodestone/internal/ipc"
)

var labelCaser = cases.Title(language.English)

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStateLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildQueueListRows(items []ipc.QueueItem) [][]string {
	if len(items) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.DisplayName)
		if name == "" {
			name = "Unknown"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			fmt.Sprintf("%d", item.InstallOrder),
			name,
			formatStateLabel(item.ContentType),
			formatStateLabel(item.State),
			shortProfile(item.ProfileID),
			formatDisplayTime(item.CreatedAt),
		})
	}
	return rows
}

func buildProfileRows(profiles []ipc.Profile) [][]string {
	if len(profiles) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(profiles))
	for _, profile := range profiles {
		loader := profile.Loader
		if profile.LoaderVersion != "" {
			loader = fmt.Sprintf("%s %s", loader, profile.LoaderVersion)
		}
		lastPlayed := "-"
		if profile.LastPlayed != nil {
			lastPlayed = profile.LastPlayed.UTC().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			profile.ID,
			profile.Name,
			profile.GameVersion,
			formatStateLabel(loader),
			formatStateLabel(profile.State),
			lastPlayed,
		})
	}
	return rows
}

func formatStateLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return labelCaser.String(strings.ReplaceAll(value, "_", " "))
}

func formatDisplayTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format("2006-01-02 15:04")
}

func shortProfile(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "-"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
