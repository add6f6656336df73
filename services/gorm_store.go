package services

import (
	"context"
	"errors"

	"proteinid/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps every collection in a SQL database through gorm.
// Production runs on postgres.
type GormStore struct{ db *gorm.DB }

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

// ---------- accounts ----------

func (s *GormStore) CreateAccount(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) AccountByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) AccountByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) AccountByResetToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("reset_token = ? AND reset_token <> ''", token).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) SaveAccount(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Save(u).Error)
}

// ---------- profiles ----------

func (s *GormStore) Profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	return translate(s.db.WithContext(ctx).Save(p).Error)
}

// ---------- log entries ----------

func (s *GormStore) LogEntries(ctx context.Context, userID, date string) ([]models.LogEntry, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if date != "" {
		q = q.Where("date = ?", date)
	}
	var out []models.LogEntry
	err := q.Order("recorded_at ASC").Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) LogEntry(ctx context.Context, userID, id string) (*models.LogEntry, error) {
	var e models.LogEntry
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *GormStore) CreateLogEntry(ctx context.Context, e *models.LogEntry) error {
	return translate(s.db.WithContext(ctx).Create(e).Error)
}

func (s *GormStore) UpdateLogEntry(ctx context.Context, e *models.LogEntry) error {
	res := s.db.WithContext(ctx).
		Model(&models.LogEntry{}).
		Where("id = ? AND user_id = ?", e.ID, e.UserID).
		Updates(map[string]any{
			"food_name":     e.FoodName,
			"serving_grams": e.ServingGrams,
			"protein_grams": e.ProteinGrams,
			"date":          e.Date,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteLogEntry(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.LogEntry{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------- weight entries ----------

func (s *GormStore) WeightEntries(ctx context.Context, userID, date string) ([]models.WeightEntry, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if date != "" {
		q = q.Where("date = ?", date)
	}
	var out []models.WeightEntry
	err := q.Order("date ASC").Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) WeightEntry(ctx context.Context, userID, id string) (*models.WeightEntry, error) {
	var e models.WeightEntry
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

// UpsertWeightEntry relies on the (user_id, date) unique index, so two
// concurrent submissions for one day end up as a single row.
func (s *GormStore) UpsertWeightEntry(ctx context.Context, e *models.WeightEntry) error {
	db := s.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"weight_kg", "recorded_at"}),
	}).Create(e).Error
	if err != nil {
		return translate(err)
	}
	// e.ID holds the id generated for the insert; on conflict the stored
	// row keeps its own, so read it back into a fresh value.
	var stored models.WeightEntry
	if err := db.Where("user_id = ? AND date = ?", e.UserID, e.Date).First(&stored).Error; err != nil {
		return translate(err)
	}
	*e = stored
	return nil
}

func (s *GormStore) UpdateWeightEntry(ctx context.Context, e *models.WeightEntry) error {
	res := s.db.WithContext(ctx).
		Model(&models.WeightEntry{}).
		Where("id = ? AND user_id = ?", e.ID, e.UserID).
		Updates(map[string]any{"weight_kg": e.WeightKg, "date": e.Date, "recorded_at": e.RecordedAt})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteWeightEntry(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.WeightEntry{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------- devices ----------

func (s *GormStore) SaveDevice(ctx context.Context, d *models.UserDevice) error {
	return translate(s.db.WithContext(ctx).Save(d).Error)
}

func (s *GormStore) DeviceByToken(ctx context.Context, userID, tokenHash string) (*models.UserDevice, error) {
	var d models.UserDevice
	if err := s.db.WithContext(ctx).Where("user_id = ? AND token_hash = ?", userID, tokenHash).First(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (s *GormStore) EnabledDevices(ctx context.Context, userID string) ([]models.UserDevice, error) {
	var out []models.UserDevice
	err := s.db.WithContext(ctx).Where("user_id = ? AND enabled = ?", userID, true).Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) SetDevicesEnabled(ctx context.Context, userID string, enabled bool) error {
	return translate(s.db.WithContext(ctx).
		Model(&models.UserDevice{}).
		Where("user_id = ?", userID).
		Update("enabled", enabled).Error)
}
