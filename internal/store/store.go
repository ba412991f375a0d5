// Package store owns the canonical in-memory representation of users,
// contacts, conversations and messages, and enforces the dedup and
// uniqueness invariants between them.
package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/priorityhub/inbox-platform/internal/bus"
	"github.com/priorityhub/inbox-platform/internal/model"
	"github.com/priorityhub/inbox-platform/internal/priority"
	"github.com/priorityhub/inbox-platform/pkg/logger"
)

// MaxPageSize caps the limit parameter on every paginated query.
const MaxPageSize = 100

type contactKey struct {
	userID string
	email  string
}

type conversationKey struct {
	userID     string
	channel    model.Channel
	externalID string
}

// Store is an explicitly constructed service instance; tests create
// isolated stores instead of sharing global state. A single mutex makes
// the compound find-or-create and check-then-insert operations atomic.
type Store struct {
	notifier *bus.Bus
	logger   *logger.Logger
	now      func() time.Time

	mu sync.RWMutex

	users         map[string]*model.User
	contacts      map[string]*model.Contact
	conversations map[string]*model.Conversation
	messages      map[string]*model.Message

	// Uniqueness indexes, kept consistent with the primary maps on every
	// insert. There is no deletion path, so no eviction.
	contactByKey           map[contactKey]string
	conversationByKey      map[conversationKey]string
	messageByExternalID    map[string]string
	messagesByConversation map[string][]string
}

// New creates an empty store. The notifier may be nil, in which case no
// events are emitted.
func New(notifier *bus.Bus, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{
		notifier:               notifier,
		logger:                 log,
		now:                    time.Now,
		users:                  make(map[string]*model.User),
		contacts:               make(map[string]*model.Contact),
		conversations:          make(map[string]*model.Conversation),
		messages:               make(map[string]*model.Message),
		contactByKey:           make(map[contactKey]string),
		conversationByKey:      make(map[conversationKey]string),
		messageByExternalID:    make(map[string]string),
		messagesByConversation: make(map[string][]string),
	}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) emit(event model.Event) {
	if s.notifier != nil {
		s.notifier.Publish(event)
	}
}

// CreateUser creates a user. The email is stored as provided; comparison
// elsewhere is case-insensitive. An explicit id may be supplied by seed
// tooling.
func (s *Store) CreateUser(email, name, id string) (*model.User, error) {
	if id == "" {
		id = newID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; exists {
		return nil, model.ValidationError("user %q already exists", id)
	}

	now := s.now()
	user := &model.User{
		ID:        id,
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[id] = user

	s.logger.Infow("user created", "user_id", id)
	return copyUser(user), nil
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, model.NotFoundError(model.CodeUserNotFound, "user %q not found", id)
	}
	return copyUser(user), nil
}

// FindOrCreateContact resolves a contact by (user, normalized email),
// creating it with the default priority on first sight. Idempotent: an
// existing contact's name and channel are never touched, so the same email
// seen on a second channel resolves to the original record.
func (s *Store) FindOrCreateContact(userID, email, name string, channel model.Channel) (*model.Contact, error) {
	key := contactKey{userID: userID, email: normalizeEmail(email)}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.contactByKey[key]; ok {
		return copyContact(s.contacts[id]), nil
	}

	now := s.now()
	contact := &model.Contact{
		ID:        newID(),
		UserID:    userID,
		Email:     normalizeEmail(email),
		Name:      name,
		Channel:   channel,
		Priority:  model.DefaultContactPriority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.contacts[contact.ID] = contact
	s.contactByKey[key] = contact.ID

	s.logger.Infow("contact created", "contact_id", contact.ID, "user_id", userID, "channel", channel)
	return copyContact(contact), nil
}

// GetContact retrieves a contact by id.
func (s *Store) GetContact(id string) (*model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contact, ok := s.contacts[id]
	if !ok {
		return nil, model.NotFoundError(model.CodeInternal, "contact %q not found", id)
	}
	return copyContact(contact), nil
}

// FindOrCreateConversation resolves a conversation by (user, channel,
// external id). First-write-wins: on a hit, title and contact are not
// updated. A newly created conversation fires conversation:new.
func (s *Store) FindOrCreateConversation(userID, contactID, externalID string, channel model.Channel, title string) (*model.Conversation, bool, error) {
	key := conversationKey{userID: userID, channel: channel, externalID: externalID}

	s.mu.Lock()

	if id, ok := s.conversationByKey[key]; ok {
		conv := copyConversation(s.conversations[id])
		s.mu.Unlock()
		return conv, false, nil
	}

	now := s.now()
	conv := &model.Conversation{
		ID:            newID(),
		ExternalID:    externalID,
		UserID:        userID,
		ContactID:     contactID,
		Channel:       channel,
		Title:         title,
		Priority:      model.DefaultConversationPriority,
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.conversations[conv.ID] = conv
	s.conversationByKey[key] = conv.ID
	result := copyConversation(conv)
	s.mu.Unlock()

	s.logger.Infow("conversation created", "conversation_id", conv.ID, "user_id", userID, "channel", channel)
	s.emit(model.Event{
		Type:           model.EventConversationNew,
		ConversationID: conv.ID,
		UserID:         userID,
		Priority:       intPtr(conv.Priority),
	})
	return result, true, nil
}

// GetConversation retrieves a conversation by id.
func (s *Store) GetConversation(id string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, model.NotFoundError(model.CodeConversationNotFound, "conversation %q not found", id)
	}
	return copyConversation(conv), nil
}

// CreateMessage inserts a message. Callers perform the dedup check first
// via FindMessageByExternalID; the store still refuses a duplicate external
// id outright rather than corrupt its index. Fires message:new.
func (s *Store) CreateMessage(conversationID, externalID string, channel model.Channel, content string, metadata map[string]any, createdAt time.Time) (*model.Message, error) {
	s.mu.Lock()

	if _, exists := s.messageByExternalID[externalID]; exists {
		s.mu.Unlock()
		return nil, model.DuplicateMessageError(externalID)
	}
	conv, ok := s.conversations[conversationID]
	if !ok {
		s.mu.Unlock()
		return nil, model.NotFoundError(model.CodeConversationNotFound, "conversation %q not found", conversationID)
	}

	msg := &model.Message{
		ID:             newID(),
		ExternalID:     externalID,
		ConversationID: conversationID,
		Channel:        channel,
		Content:        content,
		Metadata:       metadata,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	s.messages[msg.ID] = msg
	s.messageByExternalID[externalID] = msg.ID
	s.messagesByConversation[conversationID] = append(s.messagesByConversation[conversationID], msg.ID)
	userID := conv.UserID
	result := copyMessage(msg)
	s.mu.Unlock()

	s.emit(model.Event{
		Type:           model.EventMessageNew,
		ConversationID: conversationID,
		UserID:         userID,
		MessageID:      msg.ID,
	})
	return result, nil
}

// GetMessage retrieves a message by id.
func (s *Store) GetMessage(id string) (*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, model.NotFoundError(model.CodeInternal, "message %q not found", id)
	}
	return copyMessage(msg), nil
}

// FindMessageByExternalID is the O(1) dedup lookup.
func (s *Store) FindMessageByExternalID(externalID string) (*model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.messageByExternalID[externalID]
	if !ok {
		return nil, false
	}
	return copyMessage(s.messages[id]), true
}

// UpdateConversationPriority stores the latest priority calculation result
// and advances lastMessageAt. Fires conversation:updated.
func (s *Store) UpdateConversationPriority(conversationID string, priorityScore int, lastMessageAt time.Time) (*model.Conversation, error) {
	s.mu.Lock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		s.mu.Unlock()
		return nil, model.NotFoundError(model.CodeConversationNotFound, "conversation %q not found", conversationID)
	}

	conv.Priority = priorityScore
	conv.LastMessageAt = lastMessageAt
	conv.UpdatedAt = s.now()
	userID := conv.UserID
	result := copyConversation(conv)
	s.mu.Unlock()

	s.emit(model.Event{
		Type:           model.EventConversationUpdated,
		ConversationID: conversationID,
		UserID:         userID,
		Priority:       intPtr(priorityScore),
	})
	return result, nil
}

// GetConversationsForUser lists a user's conversations, optionally
// filtered by channel, sorted by effective priority descending with
// creation-time (newest first) breaking ties. The effective priority is
// the stored value passed through the read-time inactivity check.
func (s *Store) GetConversationsForUser(userID string, page, limit int, channel model.Channel) ([]model.Conversation, int) {
	page, limit = clampPage(page, limit)
	now := s.now()

	s.mu.RLock()
	var items []model.Conversation
	for _, conv := range s.conversations {
		if conv.UserID != userID {
			continue
		}
		if channel != "" && conv.Channel != channel {
			continue
		}
		c := *copyConversation(conv)
		c.Priority = priority.WithInactivityCheck(c.Priority, c.LastMessageAt, now)
		items = append(items, c)
	}
	s.mu.RUnlock()

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority > items[j].Priority
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	total := len(items)
	return paginate(items, page, limit), total
}

// GetMessagesForConversation lists a conversation's messages oldest first.
func (s *Store) GetMessagesForConversation(conversationID string, page, limit int) ([]model.Message, int) {
	page, limit = clampPage(page, limit)

	s.mu.RLock()
	ids := s.messagesByConversation[conversationID]
	items := make([]model.Message, 0, len(ids))
	for _, id := range ids {
		items = append(items, *copyMessage(s.messages[id]))
	}
	s.mu.RUnlock()

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	total := len(items)
	return paginate(items, page, limit), total
}

// GetMessageCountForConversation reports how many messages a conversation
// holds.
func (s *Store) GetMessageCountForConversation(conversationID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messagesByConversation[conversationID])
}

// GetLatestMessageForConversation returns the newest message by createdAt.
func (s *Store) GetLatestMessageForConversation(conversationID string) (*model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *model.Message
	for _, id := range s.messagesByConversation[conversationID] {
		msg := s.messages[id]
		if latest == nil || msg.CreatedAt.After(latest.CreatedAt) {
			latest = msg
		}
	}
	if latest == nil {
		return nil, false
	}
	return copyMessage(latest), true
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func intPtr(v int) *int {
	return &v
}

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}

func copyContact(c *model.Contact) *model.Contact {
	cc := *c
	return &cc
}

func copyConversation(c *model.Conversation) *model.Conversation {
	cc := *c
	return &cc
}

func copyMessage(m *model.Message) *model.Message {
	cc := *m
	return &cc
}
