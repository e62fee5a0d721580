package model

import (
	"time"

	"github.com/google/uuid"
)

type Room struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Name       string       `gorm:"size:255;not null"`
	Password   string       `gorm:"size:255;not null"`
	MaxUsers   int          `gorm:"not null;check:max_users BETWEEN 1 AND 100"`
	OwnerID    uuid.UUID    `gorm:"type:uuid;index;not null"`
	OwnerEmail string       `gorm:"size:255;not null"`
	CreatedAt  time.Time    `gorm:"not null;index"`
	Members    []RoomMember `gorm:"constraint:OnDelete:CASCADE"`
	Messages   []Message    `gorm:"constraint:OnDelete:CASCADE"`
}

type RoomMember struct {
	RoomID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	JoinedAt time.Time `gorm:"not null"`
}

type Message struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	RoomID      uuid.UUID         `gorm:"type:uuid;not null;index:idx_messages_room_created,priority:1"`
	AuthorID    uuid.UUID         `gorm:"type:uuid;not null"`
	AuthorEmail string            `gorm:"size:255;not null"`
	Content     string            `gorm:"type:text;not null"`
	ImageURL    *string           `gorm:"type:text"`
	Type        string            `gorm:"size:16;not null;default:text"`
	CreatedAt   time.Time         `gorm:"not null;index:idx_messages_room_created,priority:2"`
	Reactions   []MessageReaction `gorm:"constraint:OnDelete:CASCADE"`
}

type MessageReaction struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Emoji     string    `gorm:"size:32;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"size:255;not null"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// All lists every model in dependency order for AutoMigrate.
func All() []any {
	return []any{&User{}, &Room{}, &RoomMember{}, &Message{}, &MessageReaction{}}
}
