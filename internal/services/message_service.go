package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/premkumar3616/junk-chat/internal/bus"
	"github.com/premkumar3616/junk-chat/internal/models"
	"github.com/premkumar3616/junk-chat/internal/repository"
)

type userDirectory interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	Search(ctx context.Context, query string, excludeID int64) ([]models.User, error)
}

type publisher interface {
	Publish(topic string, payload any)
}

// MessageService orchestrates message delivery and contact synchronization.
// All durable writes for one operation happen in a single transaction; bus
// publishes are best-effort and happen only after commit.
type MessageService struct {
	db          *pgxpool.Pool
	messageRepo *repository.MessageRepository
	contactRepo *repository.ContactRepository
	userRepo    userDirectory
	bus         publisher
}

func NewMessageService(
	db *pgxpool.Pool,
	messageRepo *repository.MessageRepository,
	contactRepo *repository.ContactRepository,
	userRepo userDirectory,
	bus publisher,
) *MessageService {
	return &MessageService{
		db:          db,
		messageRepo: messageRepo,
		contactRepo: contactRepo,
		userRepo:    userRepo,
		bus:         bus,
	}
}

// Send persists a message from sender to recipient, ensures the contact
// graph holds both directed edges, and fans the message plus fresh contact
// summaries out to both parties. The append and the edge upserts commit
// together; a failed append never leaves a partial contact-graph update.
func (s *MessageService) Send(
	ctx context.Context,
	senderID int64,
	recipientID int64,
	content string,
) (*models.Message, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrEmptyContent
	}
	if senderID == recipientID {
		return nil, ErrInvalidParty
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidParty
		}
		return nil, storageErr("lookup sender", err)
	}

	recipient, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecipientNotFound
		}
		return nil, storageErr("lookup recipient", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageErr("begin send", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txContactRepo := repository.NewContactRepository(tx)

	message, err := txMessageRepo.Append(ctx, senderID, recipientID, trimmed, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrInvalidParty) {
			return nil, ErrInvalidParty
		}
		return nil, storageErr("append message", err)
	}

	senderEdgeAdded, recipientEdgeAdded, err := txContactRepo.EnsureSymmetric(ctx, senderID, recipientID)
	if err != nil {
		return nil, storageErr("ensure contact edges", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr("commit send", err)
	}

	// Fan-out, all after the durable writes. Per recipient the raw message
	// goes out before the summary.
	s.bus.Publish(bus.ConversationTopic(senderID, recipientID), message)
	s.bus.Publish(bus.ConversationTopic(recipientID, senderID), message)

	if senderEdgeAdded {
		s.publishSummary(ctx, bus.ContactAddedTopic(senderID), senderID, recipient)
	}
	if recipientEdgeAdded {
		s.publishSummary(ctx, bus.ContactAddedTopic(recipientID), recipientID, sender)
	}

	if senderSummary, err := s.summaryFor(ctx, senderID, recipient); err == nil {
		senderSummary.UnreadCount = 0 // the sender authored the latest message
		s.bus.Publish(bus.ContactListTopic(senderID), senderSummary)
	} else {
		log.Printf("summary fan-out to %s: %v", bus.ContactListTopic(senderID), err)
	}
	s.publishSummary(ctx, bus.ContactListTopic(recipientID), recipientID, sender)

	return message, nil
}

// MarkRead records that userID has read every message contactID has sent
// them. Nothing unread is a silent no-op; otherwise one refreshed summary is
// pushed to userID's contact-list topic.
func (s *MessageService) MarkRead(ctx context.Context, userID, contactID int64) error {
	contact, err := s.userRepo.GetByID(ctx, contactID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrContactNotFound
		}
		return storageErr("lookup contact", err)
	}

	marked, err := s.messageRepo.MarkRead(ctx, userID, contactID)
	if err != nil {
		return storageErr("mark read", err)
	}
	if marked == 0 {
		return nil
	}

	s.publishSummary(ctx, bus.ContactListTopic(userID), userID, contact)
	return nil
}

// AddContact inserts the directed edge owner->contact. Adding an existing
// contact succeeds without effect. A bus notification goes out only for a
// newly created edge.
func (s *MessageService) AddContact(ctx context.Context, ownerID int64, contactIdentifier string) (*models.ContactSummary, error) {
	contact, err := s.userRepo.GetByIdentifier(ctx, contactIdentifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, storageErr("resolve contact", err)
	}
	if contact.ID == ownerID {
		return nil, ErrInvalidParty
	}

	added, err := s.contactRepo.Add(ctx, ownerID, contact.ID)
	if err != nil {
		return nil, storageErr("add contact", err)
	}

	summary, err := s.summaryFor(ctx, ownerID, contact)
	if err != nil {
		return nil, storageErr("summarize contact", err)
	}
	if added {
		s.bus.Publish(bus.ContactAddedTopic(ownerID), summary)
	}
	return summary, nil
}

// RemoveContact deletes the edge owner->contact and hides the shared history
// for the owner, atomically. The other party keeps the contact and the
// history. Fails with ErrNotFound when no such edge exists.
func (s *MessageService) RemoveContact(ctx context.Context, ownerID int64, contactIdentifier string) (*models.ContactRemoval, error) {
	contact, err := s.userRepo.GetByIdentifier(ctx, contactIdentifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, storageErr("resolve contact", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageErr("begin remove contact", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txContactRepo := repository.NewContactRepository(tx)
	txMessageRepo := repository.NewMessageRepository(tx)

	existed, err := txContactRepo.Delete(ctx, ownerID, contact.ID)
	if err != nil {
		return nil, storageErr("delete contact edge", err)
	}
	if !existed {
		return nil, ErrNotFound
	}

	if err := txMessageRepo.Hide(ctx, ownerID, contact.ID); err != nil {
		return nil, storageErr("hide conversation", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr("commit remove contact", err)
	}

	removal := &models.ContactRemoval{ID: contact.ID, Username: contact.Username}
	s.bus.Publish(bus.ContactRemovedTopic(ownerID), removal)
	return removal, nil
}

// ConversationWith returns userID's view of the conversation with contactID:
// stored order, hidden messages filtered out.
func (s *MessageService) ConversationWith(ctx context.Context, userID, contactID int64) ([]models.Message, error) {
	if _, err := s.userRepo.GetByID(ctx, contactID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, storageErr("lookup contact", err)
	}

	messages, err := s.messageRepo.Conversation(ctx, userID, contactID)
	if err != nil {
		return nil, storageErr("load conversation", err)
	}

	return VisibleTo(messages, userID), nil
}

// SearchContacts merges the owner's pinned contacts with users matching the
// query, each decorated with the latest visible message and unread count.
func (s *MessageService) SearchContacts(ctx context.Context, ownerID int64, query string) ([]models.ContactSummary, error) {
	pinned, err := s.contactRepo.ListContacts(ctx, ownerID)
	if err != nil {
		return nil, storageErr("list contacts", err)
	}

	combined := make([]models.User, 0, len(pinned))
	seen := make(map[int64]struct{}, len(pinned))
	for _, user := range pinned {
		combined = append(combined, user)
		seen[user.ID] = struct{}{}
	}

	if strings.TrimSpace(query) != "" {
		matched, err := s.userRepo.Search(ctx, query, ownerID)
		if err != nil {
			return nil, storageErr("search users", err)
		}
		for _, user := range matched {
			if _, dup := seen[user.ID]; dup {
				continue
			}
			combined = append(combined, user)
			seen[user.ID] = struct{}{}
		}
	}

	summaries := make([]models.ContactSummary, 0, len(combined))
	for i := range combined {
		summary, err := s.summaryFor(ctx, ownerID, &combined[i])
		if err != nil {
			return nil, storageErr("summarize contact", err)
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// summaryFor recomputes the contact-list entry ownerID sees for contact.
// Never cached: hide, mark-read and new messages all invalidate it. An empty
// visible conversation leaves the last-message fields nil; any other storage
// failure is returned.
func (s *MessageService) summaryFor(ctx context.Context, ownerID int64, contact *models.User) (*models.ContactSummary, error) {
	summary := &models.ContactSummary{
		ID:         contact.ID,
		Username:   contact.Username,
		ProfilePic: contact.ProfilePic,
	}

	latest, err := s.messageRepo.LatestVisible(ctx, ownerID, contact.ID)
	switch {
	case err == nil:
		summary.LastMessageContent = &latest.Content
		summary.LastMessageTime = &latest.SentAt
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, err
	}

	unread, err := s.messageRepo.CountUnread(ctx, ownerID, contact.ID)
	if err != nil {
		return nil, err
	}
	summary.UnreadCount = unread

	return summary, nil
}

// publishSummary is the post-commit fan-out path: the durable write already
// happened, so a failed summary recomputation is logged and the push skipped.
// Subscribers recover the state on their next read.
func (s *MessageService) publishSummary(ctx context.Context, topic string, ownerID int64, contact *models.User) {
	summary, err := s.summaryFor(ctx, ownerID, contact)
	if err != nil {
		log.Printf("summary fan-out to %s: %v", topic, err)
		return
	}
	s.bus.Publish(topic, summary)
}
