package outbox

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Kotlang/fasalneetiGo/models"
	"github.com/Kotlang/fasalneetiGo/service"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrEntryNotFound = errors.New("outbox entry not found")

// Store keeps unsent writes in a local sqlite file.
type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY between the CLI and the reconciler.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.OutboxEntryModel{}); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewEntryId returns an id usable both as outbox key and as the registration's clientRef.
func NewEntryId() string {
	return uuid.NewString()
}

// EnqueueRegistration stores a registration for later replay under entryId. The payload keeps the
// request's clientRef so every replay is recognised by the server as the same registration.
func (s *Store) EnqueueRegistration(ctx context.Context, entryId string, req *service.FarmerRequest) (*models.OutboxEntryModel, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	entry := &models.OutboxEntryModel{
		EntryId: entryId,
		Kind:    models.OutboxKindRegister,
		Payload: string(payload),
		Status:  models.OutboxPending,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Pending returns entries waiting for replay, oldest first.
func (s *Store) Pending(ctx context.Context) ([]models.OutboxEntryModel, error) {
	var out []models.OutboxEntryModel
	err := s.db.WithContext(ctx).
		Where("status = ?", models.OutboxPending).
		Order("created_at ASC, rowid ASC").
		Find(&out).Error
	return out, err
}

// List returns every entry, optionally restricted to one status.
func (s *Store) List(ctx context.Context, status string) ([]models.OutboxEntryModel, error) {
	var out []models.OutboxEntryModel
	query := s.db.WithContext(ctx).Order("created_at ASC, rowid ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return out, query.Find(&out).Error
}

func (s *Store) Get(ctx context.Context, entryId string) (*models.OutboxEntryModel, error) {
	entry := &models.OutboxEntryModel{}
	err := s.db.WithContext(ctx).Where("entry_id = ?", entryId).First(entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEntryNotFound
	}
	return entry, err
}

func (s *Store) MarkSynced(ctx context.Context, entryId, farmerId string) error {
	return s.update(ctx, entryId, map[string]interface{}{
		"status":     models.OutboxSynced,
		"farmer_id":  farmerId,
		"last_error": "",
	})
}

func (s *Store) MarkRejected(ctx context.Context, entryId, reason string) error {
	return s.update(ctx, entryId, map[string]interface{}{
		"status":     models.OutboxRejected,
		"last_error": reason,
	})
}

// RecordFailure keeps the entry pending and counts the attempt.
func (s *Store) RecordFailure(ctx context.Context, entryId, reason string) error {
	return s.update(ctx, entryId, map[string]interface{}{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": reason,
	})
}

func (s *Store) update(ctx context.Context, entryId string, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).
		Model(&models.OutboxEntryModel{}).
		Where("entry_id = ?", entryId).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func decodeRegistration(entry *models.OutboxEntryModel) (*service.FarmerRequest, error) {
	req := &service.FarmerRequest{}
	if err := json.Unmarshal([]byte(entry.Payload), req); err != nil {
		return nil, err
	}
	return req, nil
}
