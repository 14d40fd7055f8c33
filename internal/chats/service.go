package chats

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
	"github.com/assembly-hq/assembly/internal/notifications"
	"github.com/assembly-hq/assembly/internal/relay"
)

// Store is the persistence surface the service needs.
type Store interface {
	ChatByID(ctx context.Context, id uuid.UUID) (*Chat, error)
	ChatsByOrganization(ctx context.Context, orgID uuid.UUID, limit int32, cursor *ChatKey, inverted bool) ([]Chat, error)
	CreateChat(ctx context.Context, in CreateChatInput, creatorID uuid.UUID) (*Chat, error)
	MessageByID(ctx context.Context, id uuid.UUID) (*Message, error)
	MessagesByChat(ctx context.Context, chatID uuid.UUID, limit int32, cursor *MessageKey, inverted bool) ([]Message, error)
	CreateMessage(ctx context.Context, in CreateMessageInput, creatorID uuid.UUID) (*Message, error)
	IsChatMember(ctx context.Context, chatID, memberID uuid.UUID) (bool, error)
	AddChatMember(ctx context.Context, chatID, memberID uuid.UUID) (*ChatMembership, error)
}

// OrganizationChecker reports whether an organization exists.
type OrganizationChecker interface {
	OrganizationExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Notifier fans a broadcast out to the organization's members. Delivery is
// best effort; mutations never fail on it.
type Notifier interface {
	Broadcast(ctx context.Context, b notifications.Broadcast)
}

// Service applies access rules on top of the chat store.
type Service struct {
	store    Store
	orgs     OrganizationChecker
	notifier Notifier
	validate *validator.Validate
}

func NewService(store Store, orgs OrganizationChecker) *Service {
	return &Service{
		store:    store,
		orgs:     orgs,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SetNotifier enables member notifications for new chat messages.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// canUseChat reports whether the caller may read or write the chat:
// organization administrators always can, other organization members only
// when enrolled in the chat.
func (s *Service) canUseChat(ctx context.Context, p *gate.Principal, chat *Chat) (bool, error) {
	if gate.CanAccess(p, chat.OrganizationID, gate.LevelAdmin) {
		return true, nil
	}
	if !gate.CanAccess(p, chat.OrganizationID, gate.LevelMember) {
		return false, nil
	}
	ok, err := s.store.IsChatMember(ctx, chat.ID, p.UserID)
	if err != nil {
		return false, fmt.Errorf("check chat membership: %w", err)
	}
	return ok, nil
}

// Get returns a chat visible to the caller.
func (s *Service) Get(ctx context.Context, p *gate.Principal, id uuid.UUID) (*Chat, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	chat, err := s.store.ChatByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"id"})
	}
	if err != nil {
		return nil, fmt.Errorf("load chat: %w", err)
	}
	ok, err := s.canUseChat(ctx, p, chat)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, gqlerr.Unauthorized()
	}
	return chat, nil
}

// ListByOrganization pages the organization's chats oldest-first.
func (s *Service) ListByOrganization(ctx context.Context, p *gate.Principal, orgID uuid.UUID, args relay.PageArgs) (*relay.Connection[Chat], error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if !gate.CanAccess(p, orgID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	conn, err := relay.Paginate(ctx, args,
		func(ctx context.Context, limit int32, cursor *ChatKey, inverted bool) ([]Chat, error) {
			return s.store.ChatsByOrganization(ctx, orgID, limit, cursor, inverted)
		},
		func(c Chat) ChatKey { return ChatKey{CreatedAt: c.CreatedAt, ID: c.ID} })
	if err != nil {
		return nil, gqlerr.FromPagination(err)
	}
	return conn, nil
}

// Create opens a new chat. Requires organization administrator. The
// creator is enrolled as the chat's first member.
func (s *Service) Create(ctx context.Context, p *gate.Principal, in CreateChatInput) (*Chat, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, gqlerr.InvalidArgument("Invalid chat input.", "input")
	}
	exists, err := s.orgs.OrganizationExists(ctx, in.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("check organization: %w", err)
	}
	if !exists {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "organizationId"})
	}
	if !gate.CanAccess(p, in.OrganizationID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "organizationId"})
	}
	chat, err := s.store.CreateChat(ctx, in, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return chat, nil
}

// AddMember enrolls an organization member into a chat. Requires
// organization administrator; enrolling twice is a no-op.
func (s *Service) AddMember(ctx context.Context, p *gate.Principal, chatID, memberID uuid.UUID) (*ChatMembership, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	chat, err := s.store.ChatByID(ctx, chatID)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "chatId"})
	}
	if err != nil {
		return nil, fmt.Errorf("load chat: %w", err)
	}
	if !gate.CanAccess(p, chat.OrganizationID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "chatId"})
	}
	m, err := s.store.AddChatMember(ctx, chatID, memberID)
	if err != nil {
		return nil, fmt.Errorf("add chat member: %w", err)
	}
	return m, nil
}

// Messages pages a chat's messages oldest-first.
func (s *Service) Messages(ctx context.Context, p *gate.Principal, chatID uuid.UUID, args relay.PageArgs) (*relay.Connection[Message], error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	chat, err := s.store.ChatByID(ctx, chatID)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"chatId"})
	}
	if err != nil {
		return nil, fmt.Errorf("load chat: %w", err)
	}
	ok, err := s.canUseChat(ctx, p, chat)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, gqlerr.Unauthorized()
	}
	conn, err := relay.Paginate(ctx, args,
		func(ctx context.Context, limit int32, cursor *MessageKey, inverted bool) ([]Message, error) {
			return s.store.MessagesByChat(ctx, chatID, limit, cursor, inverted)
		},
		func(m Message) MessageKey { return MessageKey{CreatedAt: m.CreatedAt, ID: m.ID} })
	if err != nil {
		return nil, gqlerr.FromPagination(err)
	}
	return conn, nil
}

// SendMessage posts a message to a chat. Replies must target an existing
// message in the same chat.
func (s *Service) SendMessage(ctx context.Context, p *gate.Principal, in CreateMessageInput) (*Message, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, gqlerr.InvalidArgument("Invalid message input.", "input")
	}
	chat, err := s.store.ChatByID(ctx, in.ChatID)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "chatId"})
	}
	if err != nil {
		return nil, fmt.Errorf("load chat: %w", err)
	}
	ok, err := s.canUseChat(ctx, p, chat)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "chatId"})
	}
	if in.ParentMessageID != nil {
		parent, err := s.store.MessageByID(ctx, *in.ParentMessageID)
		if errors.Is(err, ErrMessageNotFound) {
			return nil, gqlerr.ResourcesNotFound([]string{"input", "parentMessageId"})
		}
		if err != nil {
			return nil, fmt.Errorf("load parent message: %w", err)
		}
		if parent.ChatID != in.ChatID {
			return nil, gqlerr.InvalidArgument("Parent message belongs to a different chat.", "input", "parentMessageId")
		}
	}
	msg, err := s.store.CreateMessage(ctx, in, p.UserID)
	if errors.Is(err, ErrMessageNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "parentMessageId"})
	}
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if s.notifier != nil {
		s.notifier.Broadcast(ctx, notifications.Broadcast{
			OrganizationID: chat.OrganizationID,
			Kind:           notifications.KindChatMessage,
			Payload:        map[string]string{"chat_id": chat.ID.String(), "message_id": msg.ID.String()},
			ExcludeUserID:  p.UserID,
		})
	}
	return msg, nil
}
