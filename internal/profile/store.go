package profile

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound      = errors.New("profile: not found")
	ErrAlreadyExists = errors.New("profile: already exists")
)

// Store is the authoritative profile store. Save is last-write-wins.
type Store interface {
	Get(ctx context.Context, uid string) (*Profile, error)
	Create(ctx context.Context, p *Profile) error
	Save(ctx context.Context, p *Profile) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, uid string) (*Profile, error) {
	var p Profile
	err := s.db.WithContext(ctx).First(&p, "user_id = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile: get %s: %w", uid, err)
	}
	return &p, nil
}

// Create inserts p and fails with ErrAlreadyExists if the subject already has
// a profile.
func (s *GormStore) Create(ctx context.Context, p *Profile) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(p)
	if res.Error != nil {
		return fmt.Errorf("profile: create %s: %w", p.UserID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *GormStore) Save(ctx context.Context, p *Profile) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("profile: save %s: %w", p.UserID, err)
	}
	return nil
}
