package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/immxrtalbeast/axenix_chat/internal/repository/model"
	"gorm.io/gorm"
)

// The gorm repositories expect a *gorm.DB opened with TranslateError so
// unique violations surface as gorm.ErrDuplicatedKey.

type PostgresRoomRepository struct {
	db *gorm.DB
}

func NewPostgresRoomRepository(db *gorm.DB) *PostgresRoomRepository {
	return &PostgresRoomRepository{db: db}
}

func (r *PostgresRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if room == nil {
		return errors.New("room is nil")
	}

	if err := r.db.WithContext(ctx).Create(toModelRoom(room)).Error; err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

func (r *PostgresRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var room model.Room
	err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	return toDomainRoom(&room), nil
}

func (r *PostgresRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if room == nil {
		return errors.New("room is nil")
	}

	res := r.db.WithContext(ctx).Model(&model.Room{}).Where("id = ?", room.ID).Updates(map[string]any{
		"name":      room.Name,
		"password":  room.PasswordHash,
		"max_users": room.MaxUsers,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update room: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (r *PostgresRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.Room{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete room: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (r *PostgresRoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rooms []model.Room
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	result := make([]*domain.Room, 0, len(rooms))
	for i := range rooms {
		result = append(result, toDomainRoom(&rooms[i]))
	}
	return result, nil
}

type PostgresMembershipRepository struct {
	db *gorm.DB
}

func NewPostgresMembershipRepository(db *gorm.DB) *PostgresMembershipRepository {
	return &PostgresMembershipRepository{db: db}
}

func (r *PostgresMembershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	row := &model.RoomMember{
		RoomID:   membership.RoomID,
		UserID:   membership.UserID,
		JoinedAt: membership.JoinedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrMembershipExists
		}
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

func (r *PostgresMembershipRepository) Exists(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var n int64
	err := r.db.WithContext(ctx).Model(&model.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresMembershipRepository) Count(ctx context.Context, roomID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&model.RoomMember{}).Where("room_id = ?", roomID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return int(n), nil
}

func (r *PostgresMembershipRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.RoomMember
	if err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("joined_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	result := make([]*domain.Membership, 0, len(rows))
	for _, row := range rows {
		result = append(result, &domain.Membership{
			RoomID:   row.RoomID,
			UserID:   row.UserID,
			JoinedAt: row.JoinedAt.UTC(),
		})
	}
	return result, nil
}

func (r *PostgresMembershipRepository) DeleteByRoom(ctx context.Context, roomID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Delete(&model.RoomMember{}).Error; err != nil {
		return fmt.Errorf("failed to delete members: %w", err)
	}
	return nil
}

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewPostgresMessageRepository(db *gorm.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if message == nil {
		return errors.New("message is nil")
	}

	if err := r.db.WithContext(ctx).Create(toModelMessage(message)).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	result := make([]*domain.Message, 0, len(rows))
	for i := range rows {
		msg, err := toDomainMessage(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, nil
}

// DeleteByRoom removes the room's messages together with their reactions.
func (r *PostgresMessageRepository) DeleteByRoom(ctx context.Context, roomID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := tx.Model(&model.Message{}).Select("id").Where("room_id = ?", roomID)
		if err := tx.Where("message_id IN (?)", ids).Delete(&model.MessageReaction{}).Error; err != nil {
			return fmt.Errorf("failed to delete reactions: %w", err)
		}
		if err := tx.Where("room_id = ?", roomID).Delete(&model.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		return nil
	})
}

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	if err := r.db.WithContext(ctx).Create(toModelUser(user)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *PostgresUserRepository) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	if err := r.db.WithContext(ctx).First(&user, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"name":          user.Name,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"updated_at":    user.UpdatedAt.UTC(),
	})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrUserEmailExists
		}
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func toModelRoom(room *domain.Room) *model.Room {
	return &model.Room{
		ID:         room.ID,
		Name:       room.Name,
		Password:   room.PasswordHash,
		MaxUsers:   room.MaxUsers,
		OwnerID:    room.OwnerID,
		OwnerEmail: room.OwnerLabel,
		CreatedAt:  room.CreatedAt.UTC(),
	}
}

func toDomainRoom(room *model.Room) *domain.Room {
	return &domain.Room{
		ID:           room.ID,
		Name:         room.Name,
		PasswordHash: room.Password,
		MaxUsers:     room.MaxUsers,
		OwnerID:      room.OwnerID,
		OwnerLabel:   room.OwnerEmail,
		CreatedAt:    room.CreatedAt.UTC(),
	}
}

func toModelMessage(msg *domain.Message) *model.Message {
	flat := domain.FlattenPayload(msg.Payload)

	var imageURL *string
	if flat.ImageURL != "" {
		u := flat.ImageURL
		imageURL = &u
	}

	return &model.Message{
		ID:          msg.ID,
		RoomID:      msg.RoomID,
		AuthorID:    msg.AuthorID,
		AuthorEmail: msg.AuthorLabel,
		Content:     flat.Content,
		ImageURL:    imageURL,
		Type:        string(flat.Type),
		CreatedAt:   msg.CreatedAt.UTC(),
	}
}

func toDomainMessage(row *model.Message) (*domain.Message, error) {
	flat := domain.FlatPayload{
		Type:    domain.MessageKind(row.Type),
		Content: row.Content,
	}
	if row.ImageURL != nil {
		flat.ImageURL = *row.ImageURL
	}

	payload, err := domain.ParsePayload(flat)
	if err != nil {
		return nil, fmt.Errorf("%w: message %s: %v", ErrInvalidMessageState, row.ID, err)
	}

	return &domain.Message{
		ID:          row.ID,
		RoomID:      row.RoomID,
		AuthorID:    row.AuthorID,
		AuthorLabel: row.AuthorEmail,
		CreatedAt:   row.CreatedAt.UTC(),
		Payload:     payload,
	}, nil
}

func toModelUser(user *domain.User) *model.User {
	return &model.User{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	}
}

func toDomainUser(user *model.User) *domain.User {
	return &domain.User{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	}
}
