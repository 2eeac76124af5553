package custody

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/umoc-outing-club/gear-locker/internal"
	checkoutDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/checkout"
	gearDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/gear"
	userDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/user"
	"github.com/umoc-outing-club/gear-locker/internal/core/events"
	"github.com/umoc-outing-club/gear-locker/internal/metrics"
)

// Repository is the document store as seen by the custody flow. Finders
// return (nil, nil) when nothing matches. The ForUpdate variants lock the
// row until the surrounding transaction ends.
type Repository interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
	FindUserByInstitutionalID(ctx context.Context, institutionalID string) (*userDatamodel.User, error)
	FindUserByInstitutionalIDForUpdate(ctx context.Context, institutionalID string) (*userDatamodel.User, error)
	FindGearByTagForUpdate(ctx context.Context, gearTag string) (*gearDatamodel.Gear, error)
	UpdatePossession(ctx context.Context, userID string, possession []string) error
	SetGearCheckedOut(ctx context.Context, gearID string, checkedOut bool) error
	AppendRecord(ctx context.Context, record *checkoutDatamodel.CheckOut) error
}

type LogReader interface {
	ListRecords(ctx context.Context, q LogQuery) ([]*checkoutDatamodel.CheckOut, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ListingCache is the cached gear listing whose checked-out flags a
// transition changes.
type ListingCache interface {
	InvalidateListing(ctx context.Context)
}

type Options struct {
	RequireLeaderRole bool
	QueryTimeout      time.Duration
}

type Service struct {
	repo      Repository
	log       LogReader
	publisher Publisher
	listing   ListingCache
	metrics   metrics.Recorder
	logger    *slog.Logger
	opts      Options
	now       func() time.Time
}

func NewService(repo Repository, log LogReader, publisher Publisher, recorder metrics.Recorder, logger *slog.Logger, opts Options) *Service {
	if recorder == nil {
		recorder = metrics.Noop
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		log:       log,
		publisher: publisher,
		metrics:   recorder,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// WithListingCache makes every committed transition retire the cached gear
// listing before CheckGear returns.
func (s *Service) WithListingCache(listing ListingCache) *Service {
	s.listing = listing
	return s
}

// CheckGear moves a gear item into or out of a borrower's custody. The
// possession update, the gear flag and the log append commit together.
func (s *Service) CheckGear(ctx context.Context, req CheckGearRequest, dir Direction) (*Record, error) {
	start := s.now()

	if !dir.Valid() {
		err := apperrors.NewValidationFieldError("flag", "unknown custody direction", apperrors.ErrCodeInvalidCheckFlag)
		s.recordFailure(dir, err)
		return nil, err
	}

	req.Normalize()
	if appErr := req.Validate(); appErr != nil {
		s.logger.Warn("check gear: invalid request", "direction", dir.String(), "error", appErr.GetDetailedMessage())
		s.recordFailure(dir, appErr)
		return nil, appErr
	}

	ctx, cancel := apperrors.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	var saved *checkoutDatamodel.CheckOut
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo Repository) error {
		borrower, err := repo.FindUserByInstitutionalIDForUpdate(ctx, req.UserID)
		if err != nil {
			return apperrors.NewInternalError("failed to look up borrower", err)
		}
		if borrower == nil {
			return apperrors.ErrBorrowerNotFound
		}

		leader, err := repo.FindUserByInstitutionalID(ctx, req.LeaderID)
		if err != nil {
			return apperrors.NewInternalError("failed to look up leader", err)
		}
		if leader == nil {
			return apperrors.ErrLeaderNotFound
		}

		gear, err := repo.FindGearByTagForUpdate(ctx, req.GearTag)
		if err != nil {
			return apperrors.NewInternalError("failed to look up gear", err)
		}
		if gear == nil {
			return apperrors.ErrGearNotFound
		}

		if s.opts.RequireLeaderRole && leader.PermLvl < userDatamodel.PermLeader {
			return apperrors.ErrLeaderRoleRequired
		}

		var possession []string
		switch dir {
		case CheckOut:
			if gear.CheckedOut && !containsTag(borrower.Possession, gear.GearTag) {
				return apperrors.ErrGearHeldByOther
			}
			possession = append(append(make([]string, 0, len(borrower.Possession)+1), borrower.Possession...), gear.GearTag)
		case CheckIn:
			var held bool
			possession, held = withoutTag(borrower.Possession, gear.GearTag)
			if !held {
				return apperrors.ErrGearNotInPossession
			}
		}

		if err := repo.UpdatePossession(ctx, borrower.ID, possession); err != nil {
			return apperrors.NewInternalError("failed to update possession list", err)
		}

		if err := repo.SetGearCheckedOut(ctx, gear.ID, dir == CheckOut); err != nil {
			return apperrors.NewInternalError("failed to update gear status", err)
		}

		record := &checkoutDatamodel.CheckOut{
			ID:          uuid.New().String(),
			Date:        req.Date,
			GearTag:     gear.GearTag,
			UserSpireID: req.UserID,
			LeadSpireID: req.LeaderID,
			Direction:   dir.String(),
			CreatedAt:   s.now().UTC(),
		}
		if err := repo.AppendRecord(ctx, record); err != nil {
			return apperrors.NewInternalError("failed to append transaction record", err)
		}
		saved = record
		return nil
	})
	if err != nil {
		s.logger.Error("check gear failed",
			"direction", dir.String(),
			"gear_tag", req.GearTag,
			"borrower_id", req.UserID,
			"leader_id", req.LeaderID,
			"error", err)
		s.recordFailure(dir, err)
		return nil, err
	}

	if s.listing != nil {
		s.listing.InvalidateListing(context.WithoutCancel(ctx))
	}

	s.metrics.RecordCustodyTransition(dir.String())
	s.metrics.RecordCustodyLatency(dir.String(), s.now().Sub(start))

	s.logger.Info("gear custody updated",
		"direction", dir.String(),
		"gear_tag", saved.GearTag,
		"borrower_id", saved.UserSpireID,
		"leader_id", saved.LeadSpireID,
		"record_id", saved.ID)

	s.publish(ctx, dir, saved)

	return FromDataModel(saved), nil
}

func (s *Service) ListRecords(ctx context.Context, q LogQuery) ([]*Record, error) {
	q.Normalize()
	if appErr := q.Validate(); appErr != nil {
		return nil, appErr
	}

	ctx, cancel := apperrors.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	rows, err := s.log.ListRecords(ctx, q)
	if err != nil {
		s.logger.Error("failed to list transaction records", "error", err)
		return nil, apperrors.NewInternalError("failed to list transaction records", err)
	}

	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, FromDataModel(row))
	}
	return records, nil
}

// publish runs after commit, so a cancelled request must not drop the event.
func (s *Service) publish(ctx context.Context, dir Direction, rec *checkoutDatamodel.CheckOut) {
	if s.publisher == nil {
		return
	}

	var event events.Event
	if dir == CheckOut {
		event = events.NewGearCheckedOutEvent(rec.ID, rec.GearTag, rec.UserSpireID, rec.LeadSpireID, rec.Date)
	} else {
		event = events.NewGearCheckedInEvent(rec.ID, rec.GearTag, rec.UserSpireID, rec.LeadSpireID, rec.Date)
	}

	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("failed to publish custody event", "event_type", event.EventType(), "error", err)
	}
}

func (s *Service) recordFailure(dir Direction, err error) {
	reason := "store_error"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Type != apperrors.ErrorTypeInternal {
		reason = string(appErr.Code)
	}
	s.metrics.RecordCustodyFailure(dir.String(), reason)
}
