package services

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/premkumar3616/junk-chat/internal/bus"
	"github.com/premkumar3616/junk-chat/internal/models"
	"github.com/premkumar3616/junk-chat/internal/repository"
	"github.com/premkumar3616/junk-chat/pkg/utils"
)

type contactLister interface {
	ListContactIDs(ctx context.Context, ownerID int64) ([]int64, error)
}

// UserService covers the profile side of the user directory: lookups for the
// boundary layer and profile updates that fan out to the user's contacts.
type UserService struct {
	userRepo    *repository.UserRepository
	contactRepo contactLister
	messageRepo *repository.MessageRepository
	bus         publisher
}

func NewUserService(
	userRepo *repository.UserRepository,
	contactRepo contactLister,
	messageRepo *repository.MessageRepository,
	bus publisher,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		contactRepo: contactRepo,
		messageRepo: messageRepo,
		bus:         bus,
	}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("lookup user", err)
	}
	return user, nil
}

func (s *UserService) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	user, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("lookup user", err)
	}
	return user, nil
}

// UpdateProfile applies the given changes, hashes a new password when one is
// provided, and pushes the refreshed profile to every contact's topic so
// open contact lists update live.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, input models.UpdateUserInput) (*models.User, error) {
	if input.Password != nil {
		hashed, err := utils.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		input.Password = &hashed
	}

	updated, err := s.userRepo.Update(ctx, userID, input)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("update user", err)
	}

	contactIDs, err := s.contactRepo.ListContactIDs(ctx, userID)
	if err != nil {
		return nil, storageErr("list contact ids", err)
	}
	for _, contactID := range contactIDs {
		summary, err := s.profileSummaryFor(ctx, contactID, updated)
		if err != nil {
			log.Printf("profile fan-out to contact %d: %v", contactID, err)
			continue
		}
		s.bus.Publish(bus.ContactAddedTopic(contactID), summary)
	}

	return updated, nil
}

// profileSummaryFor builds the contact-list entry viewerID sees for the
// updated user, with the viewer's own last-message and unread state. An empty
// visible conversation is not an error; other storage failures are.
func (s *UserService) profileSummaryFor(ctx context.Context, viewerID int64, user *models.User) (*models.ContactSummary, error) {
	summary := &models.ContactSummary{
		ID:         user.ID,
		Username:   user.Username,
		ProfilePic: user.ProfilePic,
	}

	latest, err := s.messageRepo.LatestVisible(ctx, viewerID, user.ID)
	switch {
	case err == nil:
		summary.LastMessageContent = &latest.Content
		summary.LastMessageTime = &latest.SentAt
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, err
	}

	unread, err := s.messageRepo.CountUnread(ctx, viewerID, user.ID)
	if err != nil {
		return nil, err
	}
	summary.UnreadCount = unread

	return summary, nil
}
