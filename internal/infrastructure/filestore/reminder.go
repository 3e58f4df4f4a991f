package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"notifier/internal/domain/repository"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
)

const backupSuffix = ".backup"

type reminderRepository struct {
	path      string
	log       logger.Logger
	writeFile func(path string, data []byte, perm os.FileMode) error
}

// NewReminderRepository creates a JSON file backed ReminderRepository.
// The previous generation is kept next to path with a ".backup" suffix.
func NewReminderRepository(path string, log logger.Logger) (repository.ReminderRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: reminder file path is required", appErrors.ErrPersistence)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create reminder directory: %v", appErrors.ErrPersistence, err)
	}
	return &reminderRepository{path: path, log: log, writeFile: atomicWrite}, nil
}

// BackupPath returns the sibling file holding the previous generation.
func BackupPath(path string) string {
	return path + backupSuffix
}

// Load reads the primary file, falling back to the backup when the primary is
// corrupt. Nothing readable means an empty collection.
func (r *reminderRepository) Load(ctx context.Context) ([]*entity.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reminders, err := r.readFile(r.path)
	if err == nil {
		return reminders, nil
	}
	if os.IsNotExist(err) {
		r.log.Info(fmt.Sprintf("No reminder file at %s, starting empty", r.path))
		return []*entity.Reminder{}, nil
	}
	r.log.Error(fmt.Sprintf("Reminder file %s unreadable, trying backup", r.path), err)

	reminders, backupErr := r.readFile(BackupPath(r.path))
	if backupErr == nil {
		r.log.Warn(fmt.Sprintf("Loaded %d reminders from backup %s", len(reminders), BackupPath(r.path)))
		return reminders, nil
	}
	r.log.Error("Reminder backup unreadable, starting empty", backupErr)
	return []*entity.Reminder{}, fmt.Errorf("%w: %v", appErrors.ErrPersistence, err)
}

// Save copies the current primary to the backup, then writes the new
// generation. A failed write restores the primary from the backup.
func (r *reminderRepository) Save(ctx context.Context, reminders []*entity.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if reminders == nil {
		reminders = []*entity.Reminder{}
	}
	data, err := json.MarshalIndent(reminders, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode reminders: %v", appErrors.ErrPersistence, err)
	}
	data = append(data, '\n')

	backedUp := false
	if previous, readErr := os.ReadFile(r.path); readErr == nil {
		var records []json.RawMessage
		if err := json.Unmarshal(previous, &records); err != nil {
			// The backup must only ever hold a generation that decodes.
			r.log.Warn(fmt.Sprintf("Reminder file %s does not decode, keeping existing backup", r.path))
			_, statErr := os.Stat(BackupPath(r.path))
			backedUp = statErr == nil
		} else if err := r.writeFile(BackupPath(r.path), previous, 0o600); err != nil {
			r.log.Warn(fmt.Sprintf("Could not refresh reminder backup %s: %v", BackupPath(r.path), err))
		} else {
			backedUp = true
		}
	}

	if err := r.writeFile(r.path, data, 0o600); err != nil {
		if backedUp {
			r.restoreFromBackup()
		}
		return fmt.Errorf("%w: write %s: %v", appErrors.ErrPersistence, r.path, err)
	}
	r.log.Debug(fmt.Sprintf("Persisted %d reminders to %s", len(reminders), r.path))
	return nil
}

func (r *reminderRepository) restoreFromBackup() {
	backup, err := os.ReadFile(BackupPath(r.path))
	if err != nil {
		r.log.Error("Failed to read reminder backup for restore", err)
		return
	}
	if err := atomicWrite(r.path, backup, 0o600); err != nil {
		r.log.Error("Failed to restore reminder file from backup", err)
		return
	}
	r.log.Warn(fmt.Sprintf("Restored %s from backup after failed write", r.path))
}

func (r *reminderRepository) readFile(path string) ([]*entity.Reminder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var stored []*entity.Reminder
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	reminders := make([]*entity.Reminder, 0, len(stored))
	for _, rem := range stored {
		if rem == nil || strings.TrimSpace(rem.ID) == "" || !rem.Status.Valid() {
			r.log.Warn(fmt.Sprintf("Skipping malformed reminder record in %s", path))
			continue
		}
		// Snoozed is never a resting state.
		if rem.Status == constant.StatusSnoozed {
			rem.Status = constant.StatusPending
		}
		reminders = append(reminders, rem)
	}
	return reminders, nil
}

// atomicWrite writes data via a temporary file + rename so a crash never
// leaves a half-written primary.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
