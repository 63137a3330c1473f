// Package booking records counseling session requests and notifies counselors.
package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"wellnesschat/backend/internal/config"
	"wellnesschat/backend/internal/models"
	"wellnesschat/backend/pkg/logger"

	"github.com/oklog/ulid/v2"
)

var (
	ErrEmptyDatetime      = errors.New("booking datetime is required")
	ErrDatetimeTooLong    = errors.New("booking datetime is too long")
	ErrInvalidParticipant = errors.New("invalid participant id")
)

// Store persists bookings.
type Store interface {
	SaveBooking(booking *models.Booking) error
	ListBookings(participantID string) ([]models.Booking, error)
}

// Notifier tells counselors about a new booking.
type Notifier interface {
	PublishBooking(ctx context.Context, b models.Booking) error
}

type Service struct {
	store    Store
	notifier Notifier
	log      logger.Logger
	now      func() time.Time
}

// NewService creates a booking service. notifier may be nil.
func NewService(store Store, notifier Notifier, log logger.Logger) *Service {
	return &Service{store: store, notifier: notifier, log: log, now: time.Now}
}

// Book stores the request exactly as entered. A failed notification is logged and
// does not fail the booking.
func (s *Service) Book(ctx context.Context, participantID, when string) (models.Booking, error) {
	if strings.TrimSpace(participantID) == "" {
		return models.Booking{}, ErrInvalidParticipant
	}
	when = strings.TrimSpace(when)
	if when == "" {
		return models.Booking{}, ErrEmptyDatetime
	}
	if len(when) > config.MaxBookingLength {
		return models.Booking{}, ErrDatetimeTooLong
	}

	b := models.Booking{
		ID:            ulid.Make().String(),
		ParticipantID: participantID,
		RequestedFor:  when,
		CreatedAt:     s.now(),
	}
	if err := s.store.SaveBooking(&b); err != nil {
		s.log.Errorf("Failed to save booking for %s: %v", participantID, err)
		return models.Booking{}, err
	}
	s.log.Infof("Session booked for %s at %q", participantID, when)

	if s.notifier != nil {
		if err := s.notifier.PublishBooking(ctx, b); err != nil {
			s.log.Warnf("Failed to notify counselors about booking %s: %v", b.ID, err)
		}
	}
	return b, nil
}

// List returns bookings of one participant, or all when participantID is empty.
func (s *Service) List(ctx context.Context, participantID string) ([]models.Booking, error) {
	return s.store.ListBookings(participantID)
}
