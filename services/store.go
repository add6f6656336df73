package services

import (
	"context"
	"errors"

	"proteinid/models"
)

// ErrNotFound is returned by stores for a missing record, and for
// records owned by another user.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique account field is taken.
var ErrConflict = errors.New("already exists")

type AccountStore interface {
	CreateAccount(ctx context.Context, u *models.User) error
	AccountByEmail(ctx context.Context, email string) (*models.User, error)
	AccountByID(ctx context.Context, id string) (*models.User, error)
	AccountByResetToken(ctx context.Context, token string) (*models.User, error)
	SaveAccount(ctx context.Context, u *models.User) error
}

type ProfileStore interface {
	Profile(ctx context.Context, userID string) (*models.UserProfile, error)
	// SaveProfile creates the profile or replaces the stored one.
	SaveProfile(ctx context.Context, p *models.UserProfile) error
}

// LogStore reads are equality-filtered on the user and optionally the
// date; an empty date returns every entry of the user.
type LogStore interface {
	LogEntries(ctx context.Context, userID, date string) ([]models.LogEntry, error)
	LogEntry(ctx context.Context, userID, id string) (*models.LogEntry, error)
	CreateLogEntry(ctx context.Context, e *models.LogEntry) error
	UpdateLogEntry(ctx context.Context, e *models.LogEntry) error
	DeleteLogEntry(ctx context.Context, userID, id string) error
}

type WeightStore interface {
	WeightEntries(ctx context.Context, userID, date string) ([]models.WeightEntry, error)
	WeightEntry(ctx context.Context, userID, id string) (*models.WeightEntry, error)
	// UpsertWeightEntry writes the entry for (UserID, Date) atomically:
	// an existing record for that date is overwritten and keeps its ID.
	UpsertWeightEntry(ctx context.Context, e *models.WeightEntry) error
	UpdateWeightEntry(ctx context.Context, e *models.WeightEntry) error
	DeleteWeightEntry(ctx context.Context, userID, id string) error
}

type DeviceStore interface {
	SaveDevice(ctx context.Context, d *models.UserDevice) error
	DeviceByToken(ctx context.Context, userID, tokenHash string) (*models.UserDevice, error)
	EnabledDevices(ctx context.Context, userID string) ([]models.UserDevice, error)
	SetDevicesEnabled(ctx context.Context, userID string, enabled bool) error
}

// Store is everything the service persists.
type Store interface {
	AccountStore
	ProfileStore
	LogStore
	WeightStore
	DeviceStore
}
