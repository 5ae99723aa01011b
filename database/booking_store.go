package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/anjiri1684/appointment_reminder/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("booking not found")
	ErrUnknownFlag = errors.New("unknown booking flag")
	// ErrAlreadyNotified rejects moving a booking that has had a notification
	// sent; a new appointment time needs a new booking.
	ErrAlreadyNotified = errors.New("booking already notified, date and slot are fixed")
)

// BookingStore owns booking rows. Every call takes its connection from the
// pool for the duration of that call only.
type BookingStore struct {
	db *gorm.DB
}

func NewBookingStore(db *gorm.DB) *BookingStore {
	return &BookingStore{db: db}
}

// ListPending returns bookings whose flag is still false, oldest first.
// Bookings dated before notBefore (a DateLayout date) are left out; an empty
// notBefore means no lower bound.
func (s *BookingStore) ListPending(ctx context.Context, flag models.Flag, notBefore string) ([]models.Booking, error) {
	if !flag.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlag, flag)
	}

	qb := s.db.WithContext(ctx).Where(map[string]interface{}{string(flag): false})
	if notBefore != "" {
		qb = qb.Where("date >= ?", notBefore)
	}

	var out []models.Booking
	err := qb.
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list bookings pending %s: %w", flag, err)
	}
	return out, nil
}

// MarkSent flips flag to true. Only a false value is ever updated, so
// repeating the call is harmless.
func (s *BookingStore) MarkSent(ctx context.Context, id uuid.UUID, flag models.Flag) error {
	if !flag.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFlag, flag)
	}

	res := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Where(map[string]interface{}{string(flag): false}).
		Update(string(flag), true)
	if res.Error != nil {
		return fmt.Errorf("mark booking %s %s: %w", id, flag, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("mark booking %s %s: %w", id, flag, err)
	}
	if count == 0 {
		return fmt.Errorf("mark booking %s %s: %w", id, flag, ErrNotFound)
	}
	return nil
}

func (s *BookingStore) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	return &b, nil
}

func (s *BookingStore) Create(ctx context.Context, b *models.Booking) error {
	b.ReminderSent = false
	b.FeedbackSent = false
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (s *BookingStore) List(ctx context.Context, status models.BookingStatus, page, pageSize int) ([]models.Booking, int64, error) {
	if pageSize <= 0 {
		pageSize = 50
	}
	if page < 1 {
		page = 1
	}

	qb := s.db.WithContext(ctx).Model(&models.Booking{})
	if status != "" {
		qb = qb.Where("status = ?", status)
	}

	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}
	var out []models.Booking
	if err := qb.Order("date ASC").Order("slot ASC").Limit(pageSize).Offset((page - 1) * pageSize).Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	return out, total, nil
}

// BookingChanges holds the API-editable fields; nil means unchanged.
// Delivery flags are written only by MarkSent.
type BookingChanges struct {
	Name   *string
	Phone  *string
	Email  *string
	Date   *string
	Slot   *string
	Status *models.BookingStatus
	Notes  *string
}

func (s *BookingStore) Update(ctx context.Context, id uuid.UUID, ch BookingChanges) (*models.Booking, error) {
	var b models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			return err
		}
		moved := (ch.Date != nil && *ch.Date != b.Date) || (ch.Slot != nil && *ch.Slot != b.Slot)
		if moved && (b.ReminderSent || b.FeedbackSent) {
			return ErrAlreadyNotified
		}

		updates := map[string]interface{}{}
		if ch.Name != nil {
			updates["name"] = *ch.Name
		}
		if ch.Phone != nil {
			updates["phone"] = *ch.Phone
		}
		if ch.Email != nil {
			updates["email"] = *ch.Email
		}
		if ch.Date != nil {
			updates["date"] = *ch.Date
		}
		if ch.Slot != nil {
			updates["slot"] = *ch.Slot
		}
		if ch.Status != nil {
			updates["status"] = *ch.Status
		}
		if ch.Notes != nil {
			updates["notes"] = *ch.Notes
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&b).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&b, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, ErrAlreadyNotified) {
			return nil, err
		}
		return nil, fmt.Errorf("update booking %s: %w", id, err)
	}
	return &b, nil
}
