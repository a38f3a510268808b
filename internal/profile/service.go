package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/rahal-app/rahal-backend/internal/autherr"
	"github.com/rahal-app/rahal-backend/internal/identity"
)

const (
	MaxNotificationTokens = 10
	MaxDisplayNameLength  = 100
)

// PriorRecord is a partial profile carried over from an earlier client-side
// store. It can never carry a role.
type PriorRecord struct {
	DisplayName          string          `json:"display_name"`
	DisplayNameLocalized string          `json:"display_name_localized"`
	Phone                string          `json:"phone"`
	PreferredLanguage    string          `json:"preferred_language"`
	NotificationTokens   []string        `json:"notification_tokens"`
	CreatedAt            json.RawMessage `json:"created_at"`
}

// ProfileUpdate is a self-edit. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName          *string   `json:"display_name"`
	DisplayNameLocalized *string   `json:"display_name_localized"`
	PreferredLanguage    *string   `json:"preferred_language"`
	NotificationTokens   *[]string `json:"notification_tokens"`
}

type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

func (s *Service) Get(ctx context.Context, uid string) (*Profile, error) {
	return s.store.Get(ctx, uid)
}

// Ensure returns the subject's profile, creating it with DefaultRole when
// absent. created reports whether this call created it. Existing profiles are
// returned untouched.
func (s *Service) Ensure(ctx context.Context, tok *identity.Token, prior *PriorRecord, acceptLanguage string) (*Profile, bool, error) {
	existing, err := s.store.Get(ctx, tok.UID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	p, err := s.newProfile(tok, prior, acceptLanguage)
	if err != nil {
		return nil, false, err
	}
	err = s.store.Create(ctx, p)
	if errors.Is(err, ErrAlreadyExists) {
		// Lost a race with a concurrent first sign-in.
		existing, err := s.store.Get(ctx, tok.UID)
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("profile created", zap.String("uid", p.UserID), zap.String("role", p.Role))
	return p, true, nil
}

func (s *Service) newProfile(tok *identity.Token, prior *PriorRecord, acceptLanguage string) (*Profile, error) {
	now := s.now().UTC()
	p := &Profile{
		UserID:             tok.UID,
		Email:              tok.Email,
		Phone:              tok.Phone,
		Role:               string(DefaultRole),
		Verified:           tok.EmailVerified || tok.Phone != "",
		Active:             true,
		NotificationTokens: pq.StringArray{},
		PreferredLanguage:  NormalizeLanguage("", acceptLanguage),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if prior == nil {
		return p, nil
	}

	name, err := cleanDisplayName(prior.DisplayName)
	if err != nil {
		return nil, err
	}
	localized, err := cleanDisplayName(prior.DisplayNameLocalized)
	if err != nil {
		return nil, err
	}
	tokens, err := cleanTokens(prior.NotificationTokens)
	if err != nil {
		return nil, err
	}
	p.DisplayName = name
	p.DisplayNameLocalized = localized
	p.NotificationTokens = tokens
	p.PreferredLanguage = NormalizeLanguage(prior.PreferredLanguage, acceptLanguage)
	if p.Phone == "" {
		p.Phone = strings.TrimSpace(prior.Phone)
	}
	if ts := DecodeTimestamp(prior.CreatedAt); ts != nil {
		created, err := NormalizeTimestamp(ts)
		if err != nil {
			return nil, fmt.Errorf("%w: created_at: %w", autherr.ErrInvalidRequest, err)
		}
		if created.Before(now) {
			p.CreatedAt = created
		}
	}
	return p, nil
}

// UpdateOwn applies a self-edit to the caller's profile. Role, contact and
// verification fields are not editable here.
func (s *Service) UpdateOwn(ctx context.Context, uid string, upd ProfileUpdate) (*Profile, error) {
	p, err := s.store.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	if upd.DisplayName != nil {
		if p.DisplayName, err = cleanDisplayName(*upd.DisplayName); err != nil {
			return nil, err
		}
	}
	if upd.DisplayNameLocalized != nil {
		if p.DisplayNameLocalized, err = cleanDisplayName(*upd.DisplayNameLocalized); err != nil {
			return nil, err
		}
	}
	if upd.PreferredLanguage != nil {
		lang, ok := SupportedLanguage(*upd.PreferredLanguage)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported language", autherr.ErrInvalidRequest)
		}
		p.PreferredLanguage = lang
	}
	if upd.NotificationTokens != nil {
		if p.NotificationTokens, err = cleanTokens(*upd.NotificationTokens); err != nil {
			return nil, err
		}
	}

	p.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func cleanDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return "", fmt.Errorf("%w: display name too long", autherr.ErrInvalidRequest)
	}
	return name, nil
}

// cleanTokens trims, drops empties and deduplicates while keeping order.
func cleanTokens(tokens []string) (pq.StringArray, error) {
	out := pq.StringArray{}
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) > MaxNotificationTokens {
		return nil, fmt.Errorf("%w: at most %d notification tokens", autherr.ErrInvalidRequest, MaxNotificationTokens)
	}
	return out, nil
}
