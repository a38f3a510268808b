package challenge

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rahal-app/rahal-backend/internal/autherr"
	"github.com/rahal-app/rahal-backend/internal/identity"
	"github.com/rahal-app/rahal-backend/internal/logging"
	"github.com/rahal-app/rahal-backend/internal/metrics"
)

const (
	DefaultTTL         = 5 * time.Minute
	DefaultMaxAttempts = 5
	codeDigits         = 6
)

// ErrInvalidCode is the single answer to every confirmation failure.
var ErrInvalidCode = fmt.Errorf("%w: invalid code, try again", autherr.ErrInvalidCredential)

// subjectNamespace seeds the UUIDv5 subject ids derived from destinations.
var subjectNamespace = uuid.MustParse("3b2a8f4e-61c7-4d0b-9a35-c2e1f07d9b64")

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

type Service struct {
	store       Store
	sender      Sender
	provider    identity.Provider
	logger      *zap.Logger
	metrics     *metrics.Metrics
	ttl         time.Duration
	maxAttempts int
	bcryptCost  int
	now         func() time.Time
}

type Option func(*Service)

func WithTTL(d time.Duration) Option { return func(s *Service) { s.ttl = d } }

func WithMaxAttempts(n int) Option { return func(s *Service) { s.maxAttempts = n } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithBcryptCost lowers the hashing cost. Intended for tests.
func WithBcryptCost(cost int) Option { return func(s *Service) { s.bcryptCost = cost } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(store Store, sender Sender, provider identity.Provider, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		sender:      sender,
		provider:    provider,
		logger:      logger,
		ttl:         DefaultTTL,
		maxAttempts: DefaultMaxAttempts,
		bcryptCost:  bcrypt.DefaultCost,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubjectID is the stable subject identifier for a channel destination.
func SubjectID(channel Channel, destination string) string {
	return uuid.NewSHA1(subjectNamespace, []byte(string(channel)+":"+destination)).String()
}

// NormalizeDestination validates destination for channel and returns its
// canonical form.
func NormalizeDestination(channel Channel, destination string) (string, error) {
	destination = strings.TrimSpace(destination)
	switch channel {
	case ChannelEmail:
		addr, err := mail.ParseAddress(destination)
		if err != nil || addr.Address != destination {
			return "", fmt.Errorf("%w: email address", autherr.ErrInvalidRequest)
		}
		return strings.ToLower(addr.Address), nil
	case ChannelSMS:
		phone := strings.NewReplacer(" ", "", "-", "").Replace(destination)
		if !e164.MatchString(phone) {
			return "", fmt.Errorf("%w: phone number", autherr.ErrInvalidRequest)
		}
		return phone, nil
	default:
		return "", fmt.Errorf("%w: channel", autherr.ErrInvalidRequest)
	}
}

// Start issues a code to destination and returns the challenge id.
func (s *Service) Start(ctx context.Context, channel Channel, destination string) (string, error) {
	dest, err := NormalizeDestination(channel, destination)
	if err != nil {
		s.metrics.ChallengeOutcome("start", "invalid")
		return "", err
	}

	code, err := randomCode()
	if err != nil {
		return "", fmt.Errorf("challenge: generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("challenge: hash code: %w", err)
	}

	id := uuid.NewString()
	p := &Pending{
		Channel:     channel,
		Destination: dest,
		CodeHash:    hash,
		ExpiresAt:   s.now().Add(s.ttl).Unix(),
	}
	if err := s.store.Save(ctx, id, p, s.ttl); err != nil {
		return "", err
	}
	if err := s.sender.Send(ctx, channel, dest, code); err != nil {
		_, _ = s.store.Delete(ctx, id)
		s.metrics.ChallengeOutcome("start", "delivery_failed")
		return "", fmt.Errorf("challenge: deliver to %s: %w", logging.MaskDestination(dest), err)
	}

	s.metrics.ChallengeOutcome("start", "sent")
	return id, nil
}

// Confirm checks code against the challenge and, on success, consumes it and
// returns an identity token for the destination's subject.
func (s *Service) Confirm(ctx context.Context, id, code string) (string, error) {
	if id == "" || code == "" {
		return "", ErrInvalidCode
	}

	p, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) {
		s.metrics.ChallengeOutcome("confirm", "unknown")
		return "", ErrInvalidCode
	}
	if err != nil {
		return "", err
	}

	if bcrypt.CompareHashAndPassword(p.CodeHash, []byte(code)) != nil {
		exceeded, err := s.store.RecordFailure(ctx, id, s.maxAttempts)
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrExpired) {
			s.logger.Error("recording challenge failure", zap.Error(err))
		}
		outcome := "wrong_code"
		if exceeded {
			outcome = "exhausted"
		}
		s.metrics.ChallengeOutcome("confirm", outcome)
		return "", ErrInvalidCode
	}

	consumed, err := s.store.Delete(ctx, id)
	if err != nil {
		return "", err
	}
	if !consumed {
		return "", ErrInvalidCode
	}

	subject := identity.Identity{UID: SubjectID(p.Channel, p.Destination)}
	if p.Channel == ChannelEmail {
		subject.Email, subject.EmailVerified = p.Destination, true
	} else {
		subject.Phone = p.Destination
	}
	tok, err := s.provider.IssueIDToken(ctx, subject)
	if err != nil {
		return "", fmt.Errorf("challenge: issue id token: %w", err)
	}
	s.metrics.ChallengeOutcome("confirm", "ok")
	return tok, nil
}

func randomCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
