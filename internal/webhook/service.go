package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/clock"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrUnknownProvider = errors.New("webhook: unknown provider")
	ErrInvalidPayload  = errors.New("webhook: invalid payload")
	ErrDuplicateEvent  = errors.New("webhook: duplicate event")
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  Repository
	Clock clock.Clock
	Cfg   config.Config
}

// Service verifies provider callbacks and records them once. Business
// handling of the event body belongs to the payment system, not here.
type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      Repository
	clk       clock.Clock
	secrets   map[string]string
	tolerance time.Duration
}

func NewService(p Params) *Service {
	secrets := make(map[string]string, len(p.Cfg.Webhook.Secrets))
	for provider, secret := range p.Cfg.Webhook.Secrets {
		secrets[strings.ToLower(strings.TrimSpace(provider))] = strings.TrimSpace(secret)
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("webhook"),
		genID:     p.GenID,
		repo:      p.Repo,
		clk:       p.Clock,
		secrets:   secrets,
		tolerance: p.Cfg.Webhook.Tolerance,
	}
}

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Ingest verifies the signature and records the event. Redelivery of an
// already-recorded event returns ErrDuplicateEvent with the stored record.
func (s *Service) Ingest(ctx context.Context, provider string, payload []byte, signatureHeader string) (*Event, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	secret, ok := s.secrets[provider]
	if !ok || secret == "" {
		return nil, ErrUnknownProvider
	}

	if err := VerifySignature(payload, signatureHeader, secret, s.tolerance, s.clk.Now()); err != nil {
		return nil, err
	}

	if !json.Valid(payload) {
		return nil, ErrInvalidPayload
	}
	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, ErrInvalidPayload
	}
	if strings.TrimSpace(envelope.ID) == "" {
		return nil, ErrInvalidPayload
	}

	existing, err := s.repo.FindByProviderEvent(ctx, s.db, provider, envelope.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.log.Debug("webhook redelivered",
			zap.String("provider", provider),
			zap.String("event_id", envelope.ID),
		)
		return existing, ErrDuplicateEvent
	}

	event := &Event{
		ID:         s.genID.Generate(),
		Provider:   provider,
		EventID:    envelope.ID,
		EventType:  envelope.Type,
		Payload:    datatypes.JSON(payload),
		ReceivedAt: s.clk.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, event); err != nil {
		return nil, err
	}

	s.log.Info("webhook recorded",
		zap.String("provider", provider),
		zap.String("event_id", envelope.ID),
		zap.String("event_type", envelope.Type),
	)
	return event, nil
}

var Module = fx.Module("webhook",
	fx.Provide(NewRepository),
	fx.Provide(NewService),
)
