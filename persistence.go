package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"guessart/internal/types"
)

func sessionFilePath(dir, sessionID string) (string, error) {
	if len(sessionID) != 36 {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", fmt.Errorf("invalid session id %q: %w", sessionID, err)
	}
	return filepath.Join(dir, sessionID+".json"), nil
}

// saveSessionToFile persists a session snapshot to disk.
func saveSessionToFile(dir, sessionID string, snap types.SessionSnapshot) error {
	sessionFile, err := sessionFilePath(dir, sessionID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create sessions directory: %w", err)
	}

	snap.LastAccessTime = time.Now()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sessionID, err)
	}

	tmp := sessionFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, sessionFile); err != nil {
		return fmt.Errorf("rename session file: %w", err)
	}
	logDebug("Saved session file: %s", sessionFile)
	return nil
}

// loadSessionFromFile loads a session snapshot from disk. Expired or
// corrupted files are removed and reported as os.ErrNotExist.
func loadSessionFromFile(dir, sessionID string, maxAge time.Duration) (types.SessionSnapshot, error) {
	if dir == "" {
		return types.SessionSnapshot{}, os.ErrNotExist
	}
	sessionFile, err := sessionFilePath(dir, sessionID)
	if err != nil {
		return types.SessionSnapshot{}, os.ErrNotExist
	}

	info, err := os.Stat(sessionFile)
	if err != nil {
		return types.SessionSnapshot{}, err
	}

	if fileAge := time.Since(info.ModTime()); fileAge > maxAge {
		logInfo("Session file is too old (%v, max: %v), removing: %s", fileAge, maxAge, sessionFile)
		_ = os.Remove(sessionFile)
		return types.SessionSnapshot{}, os.ErrNotExist
	}

	data, err := os.ReadFile(sessionFile)
	if err != nil {
		return types.SessionSnapshot{}, err
	}

	var snap types.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logWarn("Session file %s is corrupted, removing: %v", sessionFile, err)
		_ = os.Remove(sessionFile)
		return types.SessionSnapshot{}, os.ErrNotExist
	}

	if len(snap.Title) == 0 {
		logWarn("Session file %s has no title, removing", sessionFile)
		_ = os.Remove(sessionFile)
		return types.SessionSnapshot{}, os.ErrNotExist
	}

	return snap, nil
}

// cleanupOldSessions removes session files older than maxAge.
func cleanupOldSessions(dir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	removedCount := 0
	errorCount := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			errorCount++
			continue
		}
		if info.ModTime().Before(cutoff) {
			sessionFile := filepath.Join(dir, entry.Name())
			if err := os.Remove(sessionFile); err != nil {
				logWarn("Failed to remove old session file %s: %v", sessionFile, err)
				errorCount++
			} else {
				removedCount++
			}
		}
	}

	if removedCount > 0 || errorCount > 0 {
		logInfo("Session cleanup completed: removed %d files, %d errors", removedCount, errorCount)
	}
	return nil
}
