package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"wellnesschat/backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrRoomNotFound is returned when no archived room matches the id.
var ErrRoomNotFound = errors.New("chat room not found")

// StateRepository loads and saves the whole peer chat state as one blob.
type StateRepository interface {
	Load(ctx context.Context) (models.State, error)
	Save(ctx context.Context, state models.State) error
}

// Archive keeps an audit record of rooms and their transcripts.
type Archive interface {
	SaveRoom(room *models.ChatRoom) error
	CloseRoom(roomID string) error
	SaveTranscript(roomID string, msgs []models.Message) error
}

// Storage is everything the application reads and writes in the database.
type Storage interface {
	Archive

	GetRoomByID(roomID string) (*models.ChatRoom, error)
	ListRooms(activeOnly bool) ([]models.ChatRoom, error)
	GetChatHistory(roomID string) ([]models.ChatHistory, error)

	SaveBooking(booking *models.Booking) error
	ListBookings(participantID string) ([]models.Booking, error)

	SaveChatLog(entry *models.ChatLog) error
	ListChatLogs(participantID string) ([]models.ChatLog, error)
}

type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// OpenDB opens the archive database for the given driver ("postgres" or "sqlite").
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return db, nil
}

// Migrate creates or updates all archive tables.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.ChatRoom{},
		&models.ChatHistory{},
		&models.Booking{},
		&models.ChatLog{},
	)
}

// SaveRoom stores the room record
func (s *Service) SaveRoom(room *models.ChatRoom) error {
	return s.DB.Save(room).Error
}

// CloseRoom marks the room inactive and stamps EndedAt.
func (s *Service) CloseRoom(roomID string) error {
	return s.DB.Model(&models.ChatRoom{}).
		Where("room_id = ?", roomID).
		Updates(map[string]interface{}{
			"is_active": false,
			"ended_at":  time.Now(),
		}).Error
}

// SaveTranscript archives the messages of a room. Messages already archived are skipped.
func (s *Service) SaveTranscript(roomID string, msgs []models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	rows := make([]models.ChatHistory, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, models.ChatHistory{
			MessageID: m.ID,
			RoomID:    roomID,
			Seq:       m.Seq,
			SenderID:  m.SenderID,
			Content:   m.Text,
			SentAt:    m.SentAt,
		})
	}
	if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		log.Printf("ERROR: Failed to archive transcript for room %s: %v", roomID, err)
		return err
	}
	return nil
}

// GetChatHistory returns the archived transcript of a room in order.
func (s *Service) GetChatHistory(roomID string) ([]models.ChatHistory, error) {
	var history []models.ChatHistory
	if err := s.DB.Where("room_id = ?", roomID).Order("seq asc").Find(&history).Error; err != nil {
		log.Printf("ERROR: Failed to get chat history for room %s: %v", roomID, err)
		return nil, err
	}
	return history, nil
}

func (s *Service) GetRoomByID(roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom

	err := s.DB.Where("room_id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get room %s: %v", roomID, err)
		return nil, err
	}
	return &room, nil
}

// ListRooms returns archived rooms, newest first.
func (s *Service) ListRooms(activeOnly bool) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	q := s.DB.Order("started_at desc")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *Service) SaveBooking(booking *models.Booking) error {
	return s.DB.Create(booking).Error
}

// ListBookings returns bookings ordered by creation. An empty participantID lists all.
func (s *Service) ListBookings(participantID string) ([]models.Booking, error) {
	var bookings []models.Booking
	q := s.DB.Order("created_at asc")
	if participantID != "" {
		q = q.Where("participant_id = ?", participantID)
	}
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *Service) SaveChatLog(entry *models.ChatLog) error {
	return s.DB.Create(entry).Error
}

// ListChatLogs returns chatbot log lines in order. An empty participantID lists all.
func (s *Service) ListChatLogs(participantID string) ([]models.ChatLog, error) {
	var logs []models.ChatLog
	q := s.DB.Order("id asc")
	if participantID != "" {
		q = q.Where("participant_id = ?", participantID)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
