// Package chat implements direct messaging between users and the realtime
// hub that pushes new messages and presence to connected clients.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"courseconnect/internal/apperr"
	"courseconnect/internal/logging"
	"courseconnect/internal/media"
	"courseconnect/internal/user"

	"github.com/google/uuid"
)

// UserDirectory is what the messaging service needs from the user store.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	ListUsersExcept(ctx context.Context, id uuid.UUID) ([]user.Summary, error)
}

// ClassRoster lists a class's members for an enrolled requester.
type ClassRoster interface {
	ListClassmates(ctx context.Context, classID string, requester uuid.UUID) ([]user.Summary, error)
}

// Dispatcher pushes an event to a user's live connection, if any.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID uuid.UUID, ev Event) error
}

type Service struct {
	repo    Repository
	users   UserDirectory
	classes ClassRoster
	images  media.Store
	hub     Dispatcher
	log     logging.Logger
}

func NewService(repo Repository, users UserDirectory, classes ClassRoster, images media.Store, hub Dispatcher, log logging.Logger) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		classes: classes,
		images:  images,
		hub:     hub,
		log:     log.With("component", "chat"),
	}
}

// ListConversationPartners returns every user except the requester.
func (s *Service) ListConversationPartners(ctx context.Context, requester uuid.UUID) ([]user.Summary, error) {
	users, err := s.users.ListUsersExcept(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListClassPartners returns the requester's classmates in classID.
func (s *Service) ListClassPartners(ctx context.Context, classID string, requester uuid.UUID) ([]user.Summary, error) {
	return s.classes.ListClassmates(ctx, classID, requester)
}

// FetchConversation returns the messages between requester and other, oldest first.
func (s *Service) FetchConversation(ctx context.Context, requester uuid.UUID, other string) ([]Message, error) {
	otherID, err := uuid.Parse(other)
	if err != nil {
		return nil, apperr.Validation("Invalid user id")
	}

	messages, err := s.repo.GetConversation(ctx, requester, otherID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return messages, nil
}

// SendMessage stores a message from sender to receiver and pushes it to the
// receiver when connected. An image is uploaded before anything is stored.
func (s *Service) SendMessage(ctx context.Context, sender uuid.UUID, receiver string, req *SendRequest) (*Message, error) {
	receiverID, err := uuid.Parse(receiver)
	if err != nil {
		return nil, apperr.Validation("Invalid user id")
	}

	text := strings.TrimSpace(req.Text)
	if text == "" && req.Image == "" {
		return nil, apperr.Validation("Message text or image is required")
	}

	if _, err := s.users.GetUserByID(ctx, receiverID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("get receiver: %w", err)
	}

	var imageURL string
	if req.Image != "" {
		img, err := media.DecodeImage(req.Image)
		if err != nil {
			return nil, err
		}
		imageURL, err = s.images.Put(ctx, "messages", img.Data, img.ContentType)
		if err != nil {
			return nil, apperr.Dependency("Failed to upload image", err)
		}
	}

	m := &Message{
		ID:         uuid.New(),
		SenderID:   sender,
		ReceiverID: receiverID,
		Text:       text,
		Image:      imageURL,
	}
	if err := s.repo.SaveMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	if err := s.hub.Dispatch(ctx, receiverID, Event{Type: EventNewMessage, Payload: m}); err != nil {
		s.log.Warn(ctx, "message push failed", "message_id", m.ID, "receiver_id", receiverID, "error", err)
	}
	return m, nil
}
