package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
)

func newTestRepo(t *testing.T) (*reminderRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "reminders.json")
	repo, err := NewReminderRepository(path, logger.Nop())
	require.NoError(t, err)
	return repo.(*reminderRepository), path
}

func sampleReminder(id string, status constant.ReminderStatus) *entity.Reminder {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return &entity.Reminder{
		ID:                        id,
		EventID:                   "evt-" + id,
		EventSubject:              "Planning",
		EventStartTime:            start,
		EventEndTime:              start.Add(time.Hour),
		OriginalNotificationTime:  start.Add(-15 * time.Minute),
		ScheduledNotificationTime: start.Add(-15 * time.Minute),
		Status:                    status,
		CreatedAt:                 start.Add(-24 * time.Hour),
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	repo, _ := newTestRepo(t)

	reminders, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, reminders)
}

func TestSaveThenLoad(t *testing.T) {
	repo, path := newTestRepo(t)
	snoozedAt := time.Date(2026, 3, 2, 9, 50, 0, 0, time.UTC)
	r := sampleReminder("r1", constant.StatusDisplayed)
	r.SnoozeCount = 2
	r.LastSnoozedAt = &snoozedAt

	require.NoError(t, repo.Save(context.Background(), []*entity.Reminder{r}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  {", "document should be indented")
	assert.Contains(t, string(raw), `"scheduledNotificationTime"`)
	assert.Contains(t, string(raw), `"status": "Displayed"`)

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "r1", loaded[0].ID)
	assert.Equal(t, 2, loaded[0].SnoozeCount)
	require.NotNil(t, loaded[0].LastSnoozedAt)
	assert.True(t, snoozedAt.Equal(*loaded[0].LastSnoozedAt))
	assert.True(t, r.ScheduledNotificationTime.Equal(loaded[0].ScheduledNotificationTime))
}

func TestSave_KeepsPreviousGenerationAsBackup(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, []*entity.Reminder{sampleReminder("first", constant.StatusPending)}))
	_, err := os.Stat(BackupPath(path))
	assert.True(t, os.IsNotExist(err), "no backup before a previous generation exists")

	require.NoError(t, repo.Save(ctx, []*entity.Reminder{sampleReminder("second", constant.StatusPending)}))

	backup, err := repo.readFile(BackupPath(path))
	require.NoError(t, err)
	require.Len(t, backup, 1)
	assert.Equal(t, "first", backup[0].ID)

	primary, err := repo.readFile(path)
	require.NoError(t, err)
	require.Len(t, primary, 1)
	assert.Equal(t, "second", primary[0].ID)
}

func TestSave_FailedWriteRestoresPrimary(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, []*entity.Reminder{sampleReminder("kept", constant.StatusPending)}))

	repo.writeFile = func(p string, data []byte, perm os.FileMode) error {
		if p == path {
			return errors.New("disk full")
		}
		return atomicWrite(p, data, perm)
	}

	err := repo.Save(ctx, []*entity.Reminder{sampleReminder("lost", constant.StatusPending)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPersistence))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "kept", loaded[0].ID)
}

func TestLoad_CorruptPrimaryFallsBackToBackup(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, []*entity.Reminder{sampleReminder("old", constant.StatusPending)}))
	require.NoError(t, repo.Save(ctx, []*entity.Reminder{sampleReminder("new", constant.StatusPending)}))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	loaded, err := repo.Load(ctx)

	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "old", loaded[0].ID)
}

func TestSave_CorruptPrimaryNeverReplacesBackup(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, []*entity.Reminder{sampleReminder("old", constant.StatusPending)}))
	require.NoError(t, repo.Save(ctx, []*entity.Reminder{sampleReminder("new", constant.StatusPending)}))
	require.NoError(t, os.WriteFile(path, []byte("{corrupt"), 0o600))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	repo.writeFile = func(p string, data []byte, perm os.FileMode) error {
		if p == path {
			return errors.New("disk full")
		}
		return atomicWrite(p, data, perm)
	}
	require.Error(t, repo.Save(ctx, []*entity.Reminder{sampleReminder("lost", constant.StatusPending)}))

	backup, err := repo.readFile(BackupPath(path))
	require.NoError(t, err)
	require.Len(t, backup, 1)
	assert.Equal(t, "old", backup[0].ID)

	reloaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.Equal(t, "old", reloaded[0].ID)
}

func TestSave_CorruptPrimaryIsOverwritten(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, []*entity.Reminder{sampleReminder("old", constant.StatusPending)}))
	require.NoError(t, repo.Save(ctx, []*entity.Reminder{sampleReminder("new", constant.StatusPending)}))
	require.NoError(t, os.WriteFile(path, []byte("{corrupt"), 0o600))

	require.NoError(t, repo.Save(ctx, []*entity.Reminder{sampleReminder("next", constant.StatusPending)}))

	backup, err := repo.readFile(BackupPath(path))
	require.NoError(t, err)
	require.Len(t, backup, 1)
	assert.Equal(t, "old", backup[0].ID)
	primary, err := repo.readFile(path)
	require.NoError(t, err)
	require.Len(t, primary, 1)
	assert.Equal(t, "next", primary[0].ID)
}

func TestLoad_EverythingCorruptIsEmpty(t *testing.T) {
	repo, path := newTestRepo(t)
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))
	require.NoError(t, os.WriteFile(BackupPath(path), []byte("more garbage"), 0o600))

	loaded, err := repo.Load(context.Background())

	assert.Empty(t, loaded)
	assert.True(t, errors.Is(err, appErrors.ErrPersistence))
}

func TestLoad_NormalisesAndSkipsRecords(t *testing.T) {
	repo, path := newTestRepo(t)
	doc := `[
  {"id": "ok", "status": "Snoozed"},
  {"id": "", "status": "Pending"},
  {"id": "weird", "status": "Exploded"}
]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	loaded, err := repo.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "ok", loaded[0].ID)
	assert.Equal(t, constant.StatusPending, loaded[0].Status)
}

func TestNewReminderRepository_RequiresPath(t *testing.T) {
	_, err := NewReminderRepository("  ", logger.Nop())
	assert.True(t, errors.Is(err, appErrors.ErrPersistence))
}
