package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Account is the persisted provider account.
type Account struct {
	UID           string `gorm:"primaryKey"`
	Email         string `gorm:"index"`
	EmailVerified bool
	Phone         string `gorm:"index"`
	// Claims is the JSON-encoded custom claim set.
	Claims    string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Account) TableName() string { return "rahal_auth.accounts" }

// GormAccountStore persists accounts in Postgres.
type GormAccountStore struct {
	db *gorm.DB
}

func NewGormAccountStore(db *gorm.DB) *GormAccountStore {
	return &GormAccountStore{db: db}
}

func (s *GormAccountStore) Get(ctx context.Context, uid string) (*UserRecord, error) {
	var acct Account
	err := s.db.WithContext(ctx).First(&acct, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("identity: load account: %w", err)
	}
	return acct.record()
}

func (s *GormAccountStore) Upsert(ctx context.Context, id Identity) (*UserRecord, error) {
	var rec *UserRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var acct Account
		err := tx.First(&acct, "uid = ?", id.UID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			acct = Account{UID: id.UID}
		case err != nil:
			return err
		}

		r, err := acct.record()
		if err != nil {
			return err
		}
		applyIdentity(r, id)
		acct.Email, acct.EmailVerified, acct.Phone = r.Email, r.EmailVerified, r.Phone
		if err := tx.Save(&acct).Error; err != nil {
			return err
		}
		r.CreatedAt, r.UpdatedAt = acct.CreatedAt, acct.UpdatedAt
		rec = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("identity: upsert account: %w", err)
	}
	return rec, nil
}

func (s *GormAccountStore) SetClaims(ctx context.Context, uid string, claims map[string]any) error {
	encoded, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("identity: encode claims: %w", err)
	}
	res := s.db.WithContext(ctx).Model(&Account{}).Where("uid = ?", uid).Update("claims", string(encoded))
	if res.Error != nil {
		return fmt.Errorf("identity: store claims: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (a Account) record() (*UserRecord, error) {
	rec := &UserRecord{
		UID:           a.UID,
		Email:         a.Email,
		EmailVerified: a.EmailVerified,
		Phone:         a.Phone,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if a.Claims != "" {
		if err := json.Unmarshal([]byte(a.Claims), &rec.CustomClaims); err != nil {
			return nil, fmt.Errorf("identity: decode claims for %s: %w", a.UID, err)
		}
	}
	return rec, nil
}
