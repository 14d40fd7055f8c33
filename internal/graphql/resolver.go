// Package graphql exposes the API schema and its resolvers. Resolvers are
// thin: argument parsing here, access rules and pagination in the domain
// services.
package graphql

import (
	"context"
	"errors"
	"fmt"

	graphqlgo "github.com/graph-gophers/graphql-go"
	"github.com/oklog/ulid/v2"

	"github.com/assembly-hq/assembly/internal/actionitems"
	"github.com/assembly-hq/assembly/internal/advertisements"
	"github.com/assembly-hq/assembly/internal/agenda"
	"github.com/assembly-hq/assembly/internal/auth"
	"github.com/assembly-hq/assembly/internal/chats"
	"github.com/assembly-hq/assembly/internal/events"
	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
	"github.com/assembly-hq/assembly/internal/notifications"
	"github.com/assembly-hq/assembly/internal/organizations"
	"github.com/assembly-hq/assembly/internal/posts"
	"github.com/assembly-hq/assembly/internal/tags"
	"github.com/assembly-hq/assembly/internal/users"
)

// Services bundles the domain services the resolvers delegate to.
type Services struct {
	Auth           *auth.Service
	Users          *users.Service
	Organizations  *organizations.Service
	Events         *events.Service
	ActionItems    *actionitems.Service
	Posts          *posts.Service
	Chats          *chats.Service
	Tags           *tags.Service
	Agenda         *agenda.Service
	Advertisements *advertisements.Service
	Notifications  *notifications.Service
}

// Resolver is the schema root.
type Resolver struct {
	svc Services
}

func NewResolver(svc Services) *Resolver {
	return &Resolver{svc: svc}
}

func principalFrom(ctx context.Context) *gate.Principal {
	return auth.PrincipalFromContext(ctx)
}

// ==== QUERY ====

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	u, err := r.svc.Users.Current(ctx, principalFrom(ctx))
	if err != nil {
		return nil, err
	}
	return &userResolver{u: u}, nil
}

func (r *Resolver) User(ctx context.Context, args struct{ ID graphqlgo.ID }) (*userResolver, error) {
	id, err := parseID(args.ID, "id")
	if err != nil {
		return nil, err
	}
	u, err := r.svc.Users.Get(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &userResolver{u: u}, nil
}

func (r *Resolver) Organization(ctx context.Context, args struct{ ID graphqlgo.ID }) (*organizationResolver, error) {
	id, err := parseID(args.ID, "id")
	if err != nil {
		return nil, err
	}
	org, err := r.svc.Organizations.Get(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &organizationResolver{root: r, org: org}, nil
}

func (r *Resolver) Organizations(ctx context.Context, args connectionArgs) (*connectionResolver[organizations.Organization, *organizationResolver], error) {
	conn, err := r.svc.Organizations.List(ctx, principalFrom(ctx), args.pageArgs())
	if err != nil {
		return nil, err
	}
	return newConnection(conn, func(org organizations.Organization) *organizationResolver {
		return &organizationResolver{root: r, org: &org}
	}), nil
}

func (r *Resolver) Event(ctx context.Context, args struct{ ID graphqlgo.ID }) (*eventResolver, error) {
	id, err := parseID(args.ID, "id")
	if err != nil {
		return nil, err
	}
	ev, err := r.svc.Events.Get(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &eventResolver{root: r, ev: ev}, nil
}

func (r *Resolver) EventInstance(ctx context.Context, args struct{ ID graphqlgo.ID }) (*instanceResolver, error) {
	id, err := parseID(args.ID, "id")
	if err != nil {
		return nil, err
	}
	inst, err := r.svc.Events.Instance(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &instanceResolver{inst: inst}, nil
}

func (r *Resolver) Chat(ctx context.Context, args struct{ ID graphqlgo.ID }) (*chatResolver, error) {
	id, err := parseID(args.ID, "id")
	if err != nil {
		return nil, err
	}
	c, err := r.svc.Chats.Get(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &chatResolver{root: r, c: c}, nil
}

func (r *Resolver) Post(ctx context.Context, args struct{ ID graphqlgo.ID }) (*postResolver, error) {
	id, err := parsePostID(args.ID, "id")
	if err != nil {
		return nil, err
	}
	p, err := r.svc.Posts.Get(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &postResolver{p: p}, nil
}

func (r *Resolver) Tag(ctx context.Context, args struct{ ID graphqlgo.ID }) (*tagResolver, error) {
	id, err := parseID(args.ID, "id")
	if err != nil {
		return nil, err
	}
	t, err := r.svc.Tags.Get(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &tagResolver{t: t}, nil
}

func (r *Resolver) Advertisement(ctx context.Context, args struct{ ID graphqlgo.ID }) (*advertisementResolver, error) {
	id, err := parseID(args.ID, "id")
	if err != nil {
		return nil, err
	}
	a, err := r.svc.Advertisements.Get(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &advertisementResolver{a: a}, nil
}

func (r *Resolver) AgendaFolder(ctx context.Context, args struct{ ID graphqlgo.ID }) (*agendaFolderResolver, error) {
	id, err := parseID(args.ID, "id")
	if err != nil {
		return nil, err
	}
	f, err := r.svc.Agenda.Folder(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &agendaFolderResolver{root: r, f: f}, nil
}

func (r *Resolver) Notifications(ctx context.Context, args connectionArgs) (*connectionResolver[notifications.Delivery, *notificationResolver], error) {
	conn, err := r.svc.Notifications.Feed(ctx, principalFrom(ctx), args.pageArgs())
	if err != nil {
		return nil, err
	}
	return newConnection(conn, func(d notifications.Delivery) *notificationResolver {
		return &notificationResolver{d: d}
	}), nil
}

func (r *Resolver) UnreadNotificationCount(ctx context.Context) (int32, error) {
	n, err := r.svc.Notifications.UnreadCount(ctx, principalFrom(ctx))
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

// ==== MUTATION: AUTH / USERS ====

type signInInput struct {
	EmailAddress string
	Password     string
}

func (r *Resolver) SignIn(ctx context.Context, args struct{ Input signInInput }) (*authPayloadResolver, error) {
	token, userID, err := r.svc.Auth.SignIn(ctx, args.Input.EmailAddress, args.Input.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return nil, gqlerr.InvalidArgument("Invalid email address or password.", "input")
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	u, err := r.svc.Users.Resolve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load signed-in account: %w", err)
	}
	if u == nil {
		// Account deleted between the credential check and this load.
		return nil, gqlerr.Unauthenticated()
	}
	return &authPayloadResolver{token: token, user: u}, nil
}

type createUserInput struct {
	Name         string
	EmailAddress string
	Password     string
	Role         *string
}

func (r *Resolver) CreateUser(ctx context.Context, args struct{ Input createUserInput }) (*userResolver, error) {
	in := users.CreateUserInput{
		Name:         args.Input.Name,
		EmailAddress: args.Input.EmailAddress,
		Password:     args.Input.Password,
	}
	if args.Input.Role != nil {
		role, err := gate.ParseRole(*args.Input.Role)
		if err != nil {
			return nil, gqlerr.InvalidArgument("Unknown role.", "input", "role")
		}
		in.Role = role
	}
	u, err := r.svc.Users.Create(ctx, principalFrom(ctx), in)
	if err != nil {
		return nil, err
	}
	return &userResolver{u: u}, nil
}

type updateUserInput struct {
	ID           graphqlgo.ID
	Name         *string
	EmailAddress *string
	Password     *string
	Role         *string
}

func (r *Resolver) UpdateUser(ctx context.Context, args struct{ Input updateUserInput }) (*userResolver, error) {
	id, err := parseID(args.Input.ID, "input", "id")
	if err != nil {
		return nil, err
	}
	in := users.UpdateUserInput{
		ID:           id,
		Name:         args.Input.Name,
		EmailAddress: args.Input.EmailAddress,
		Password:     args.Input.Password,
	}
	if args.Input.Role != nil {
		role, err := gate.ParseRole(*args.Input.Role)
		if err != nil {
			return nil, gqlerr.InvalidArgument("Unknown role.", "input", "role")
		}
		in.Role = &role
	}
	u, err := r.svc.Users.Update(ctx, principalFrom(ctx), in)
	if err != nil {
		return nil, err
	}
	return &userResolver{u: u}, nil
}

func (r *Resolver) DeleteUser(ctx context.Context, args struct {
	Input struct{ ID graphqlgo.ID }
}) (*userResolver, error) {
	id, err := parseID(args.Input.ID, "input", "id")
	if err != nil {
		return nil, err
	}
	u, err := r.svc.Users.Delete(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &userResolver{u: u}, nil
}

// ==== MUTATION: ORGANIZATIONS ====

type createOrganizationInput struct {
	Name        string
	Description *string
	CountryCode string
}

func (r *Resolver) CreateOrganization(ctx context.Context, args struct{ Input createOrganizationInput }) (*organizationResolver, error) {
	in := organizations.CreateOrganizationInput{
		Name:        args.Input.Name,
		CountryCode: args.Input.CountryCode,
	}
	if args.Input.Description != nil {
		in.Description = *args.Input.Description
	}
	org, err := r.svc.Organizations.Create(ctx, principalFrom(ctx), in)
	if err != nil {
		return nil, err
	}
	return &organizationResolver{root: r, org: org}, nil
}

type membershipInput struct {
	OrganizationId graphqlgo.ID
	MemberId       graphqlgo.ID
	Role           *string
}

func (r *Resolver) decodeMembershipInput(in membershipInput) (organizations.MembershipInput, error) {
	orgID, err := parseID(in.OrganizationId, "input", "organizationId")
	if err != nil {
		return organizations.MembershipInput{}, err
	}
	memberID, err := parseID(in.MemberId, "input", "memberId")
	if err != nil {
		return organizations.MembershipInput{}, err
	}
	out := organizations.MembershipInput{OrganizationID: orgID, MemberID: memberID}
	if in.Role != nil {
		role, err := gate.ParseRole(*in.Role)
		if err != nil {
			return organizations.MembershipInput{}, gqlerr.InvalidArgument("Unknown role.", "input", "role")
		}
		out.Role = role
	}
	return out, nil
}

func (r *Resolver) CreateOrganizationMembership(ctx context.Context, args struct{ Input membershipInput }) (*membershipResolver, error) {
	in, err := r.decodeMembershipInput(args.Input)
	if err != nil {
		return nil, err
	}
	m, err := r.svc.Organizations.CreateMembership(ctx, principalFrom(ctx), in)
	if err != nil {
		return nil, err
	}
	return &membershipResolver{root: r, m: *m}, nil
}

func (r *Resolver) DeleteOrganizationMembership(ctx context.Context, args struct{ Input membershipInput }) (bool, error) {
	in, err := r.decodeMembershipInput(args.Input)
	if err != nil {
		return false, err
	}
	if err := r.svc.Organizations.DeleteMembership(ctx, principalFrom(ctx), in); err != nil {
		return false, err
	}
	return true, nil
}

// ==== MUTATION: EVENTS ====

type recurrenceInput struct {
	Frequency string
	Interval  int32
	Until     *graphqlgo.Time
}

type createEventInput struct {
	OrganizationId graphqlgo.ID
	Name           string
	Description    *string
	StartAt        graphqlgo.Time
	EndAt          graphqlgo.Time
	Recurrence     *recurrenceInput
}

func (r *Resolver) CreateEvent(ctx context.Context, args struct{ Input createEventInput }) (*eventResolver, error) {
	orgID, err := parseID(args.Input.OrganizationId, "input", "organizationId")
	if err != nil {
		return nil, err
	}
	in := events.CreateEventInput{
		OrganizationID: orgID,
		Name:           args.Input.Name,
		StartAt:        args.Input.StartAt.Time,
		EndAt:          args.Input.EndAt.Time,
	}
	if args.Input.Description != nil {
		in.Description = *args.Input.Description
	}
	if args.Input.Recurrence != nil {
		freq, err := events.ParseFrequency(args.Input.Recurrence.Frequency)
		if err != nil {
			return nil, gqlerr.InvalidArgument("Unknown recurrence frequency.", "input", "recurrence", "frequency")
		}
		rec := events.Recurrence{Frequency: freq, Interval: int(args.Input.Recurrence.Interval)}
		if args.Input.Recurrence.Until != nil {
			until := args.Input.Recurrence.Until.Time
			rec.Until = &until
		}
		in.Recurrence = &rec
	}
	ev, err := r.svc.Events.Create(ctx, principalFrom(ctx), in)
	if err != nil {
		return nil, err
	}
	return &eventResolver{root: r, ev: ev}, nil
}

// ==== MUTATION: ACTION ITEMS ====

func (r *Resolver) CreateActionItemCategory(ctx context.Context, args struct {
	Input struct {
		OrganizationId graphqlgo.ID
		Name           string
	}
}) (*categoryResolver, error) {
	orgID, err := parseID(args.Input.OrganizationId, "input", "organizationId")
	if err != nil {
		return nil, err
	}
	c, err := r.svc.ActionItems.CreateCategory(ctx, principalFrom(ctx), actionitems.CreateCategoryInput{
		OrganizationID: orgID,
		Name:           args.Input.Name,
	})
	if err != nil {
		return nil, err
	}
	return &categoryResolver{c: c}, nil
}

type createActionItemInput struct {
	EventId            graphqlgo.ID
	CategoryId         *graphqlgo.ID
	AssigneeId         *graphqlgo.ID
	PreCompletionNotes *string
	AssignedAt         *graphqlgo.Time
}

func (r *Resolver) CreateActionItem(ctx context.Context, args struct{ Input createActionItemInput }) (*actionItemResolver, error) {
	eventID, err := parseID(args.Input.EventId, "input", "eventId")
	if err != nil {
		return nil, err
	}
	categoryID, err := parseOptionalID(args.Input.CategoryId, "input", "categoryId")
	if err != nil {
		return nil, err
	}
	assigneeID, err := parseOptionalID(args.Input.AssigneeId, "input", "assigneeId")
	if err != nil {
		return nil, err
	}
	in := actionitems.CreateItemInput{
		EventID:    eventID,
		CategoryID: categoryID,
		AssigneeID: assigneeID,
	}
	if args.Input.PreCompletionNotes != nil {
		in.PreCompletionNotes = *args.Input.PreCompletionNotes
	}
	if args.Input.AssignedAt != nil {
		in.AssignedAt = args.Input.AssignedAt.Time
	}
	it, err := r.svc.ActionItems.CreateItem(ctx, principalFrom(ctx), in)
	if err != nil {
		return nil, err
	}
	return &actionItemResolver{it: *it}, nil
}

type updateActionItemInput struct {
	ID                  graphqlgo.ID
	InstanceId          *graphqlgo.ID
	IsCompleted         *bool
	PreCompletionNotes  *string
	PostCompletionNotes *string
	AssigneeId          *graphqlgo.ID
	CategoryId          *graphqlgo.ID
	IsDeleted           *bool
}

func (r *Resolver) UpdateActionItem(ctx context.Context, args struct{ Input updateActionItemInput }) (*actionItemResolver, error) {
	id, err := parseID(args.Input.ID, "input", "id")
	if err != nil {
		return nil, err
	}
	instanceID, err := parseOptionalID(args.Input.InstanceId, "input", "instanceId")
	if err != nil {
		return nil, err
	}
	assigneeID, err := parseOptionalID(args.Input.AssigneeId, "input", "assigneeId")
	if err != nil {
		return nil, err
	}
	categoryID, err := parseOptionalID(args.Input.CategoryId, "input", "categoryId")
	if err != nil {
		return nil, err
	}
	it, err := r.svc.ActionItems.UpdateItem(ctx, principalFrom(ctx), actionitems.UpdateItemInput{
		ID:                  id,
		InstanceID:          instanceID,
		IsCompleted:         args.Input.IsCompleted,
		PreCompletionNotes:  args.Input.PreCompletionNotes,
		PostCompletionNotes: args.Input.PostCompletionNotes,
		AssigneeID:          assigneeID,
		CategoryID:          categoryID,
		IsDeleted:           args.Input.IsDeleted,
	})
	if err != nil {
		return nil, err
	}
	return &actionItemResolver{it: *it}, nil
}

func (r *Resolver) MarkActionItemComplete(ctx context.Context, args struct {
	Input struct {
		ID                  graphqlgo.ID
		InstanceId          *graphqlgo.ID
		PostCompletionNotes *string
	}
}) (*actionItemResolver, error) {
	id, err := parseID(args.Input.ID, "input", "id")
	if err != nil {
		return nil, err
	}
	instanceID, err := parseOptionalID(args.Input.InstanceId, "input", "instanceId")
	if err != nil {
		return nil, err
	}
	completed := true
	it, err := r.svc.ActionItems.UpdateItem(ctx, principalFrom(ctx), actionitems.UpdateItemInput{
		ID:                  id,
		InstanceID:          instanceID,
		IsCompleted:         &completed,
		PostCompletionNotes: args.Input.PostCompletionNotes,
	})
	if err != nil {
		return nil, err
	}
	return &actionItemResolver{it: *it}, nil
}

// ==== MUTATION: POSTS ====

func parsePostID(id graphqlgo.ID, path ...string) (ulid.ULID, error) {
	parsed, err := ulid.Parse(string(id))
	if err != nil {
		return ulid.ULID{}, gqlerr.InvalidArgument("Not a valid id.", path...)
	}
	return parsed, nil
}

func (r *Resolver) CreatePost(ctx context.Context, args struct {
	Input struct {
		OrganizationId graphqlgo.ID
		Caption        string
	}
}) (*postResolver, error) {
	orgID, err := parseID(args.Input.OrganizationId, "input", "organizationId")
	if err != nil {
		return nil, err
	}
	p, err := r.svc.Posts.Create(ctx, principalFrom(ctx), posts.CreatePostInput{
		OrganizationID: orgID,
		Caption:        args.Input.Caption,
	})
	if err != nil {
		return nil, err
	}
	return &postResolver{p: p}, nil
}

func (r *Resolver) DeletePost(ctx context.Context, args struct {
	Input struct{ ID graphqlgo.ID }
}) (*postResolver, error) {
	id, err := parsePostID(args.Input.ID, "input", "id")
	if err != nil {
		return nil, err
	}
	p, err := r.svc.Posts.Delete(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &postResolver{p: p}, nil
}

func (r *Resolver) VotePost(ctx context.Context, args struct {
	Input struct {
		PostId graphqlgo.ID
		Type   string
	}
}) (*postResolver, error) {
	id, err := parsePostID(args.Input.PostId, "input", "postId")
	if err != nil {
		return nil, err
	}
	p, err := r.svc.Posts.Vote(ctx, principalFrom(ctx), id, posts.VoteType(args.Input.Type))
	if err != nil {
		return nil, err
	}
	return &postResolver{p: p}, nil
}

func (r *Resolver) UnvotePost(ctx context.Context, args struct {
	Input struct{ PostId graphqlgo.ID }
}) (*postResolver, error) {
	id, err := parsePostID(args.Input.PostId, "input", "postId")
	if err != nil {
		return nil, err
	}
	p, err := r.svc.Posts.Unvote(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &postResolver{p: p}, nil
}

// ==== MUTATION: CHATS ====

func (r *Resolver) CreateChat(ctx context.Context, args struct {
	Input struct {
		OrganizationId graphqlgo.ID
		Name           string
		Description    *string
	}
}) (*chatResolver, error) {
	orgID, err := parseID(args.Input.OrganizationId, "input", "organizationId")
	if err != nil {
		return nil, err
	}
	in := chats.CreateChatInput{OrganizationID: orgID, Name: args.Input.Name}
	if args.Input.Description != nil {
		in.Description = *args.Input.Description
	}
	c, err := r.svc.Chats.Create(ctx, principalFrom(ctx), in)
	if err != nil {
		return nil, err
	}
	return &chatResolver{root: r, c: c}, nil
}

func (r *Resolver) CreateChatMembership(ctx context.Context, args struct {
	Input struct {
		ChatId   graphqlgo.ID
		MemberId graphqlgo.ID
	}
}) (*chatMembershipResolver, error) {
	chatID, err := parseID(args.Input.ChatId, "input", "chatId")
	if err != nil {
		return nil, err
	}
	memberID, err := parseID(args.Input.MemberId, "input", "memberId")
	if err != nil {
		return nil, err
	}
	m, err := r.svc.Chats.AddMember(ctx, principalFrom(ctx), chatID, memberID)
	if err != nil {
		return nil, err
	}
	return &chatMembershipResolver{m: *m}, nil
}

func (r *Resolver) SendChatMessage(ctx context.Context, args struct {
	Input struct {
		ChatId          graphqlgo.ID
		ParentMessageId *graphqlgo.ID
		Body            string
	}
}) (*messageResolver, error) {
	chatID, err := parseID(args.Input.ChatId, "input", "chatId")
	if err != nil {
		return nil, err
	}
	parentID, err := parseOptionalID(args.Input.ParentMessageId, "input", "parentMessageId")
	if err != nil {
		return nil, err
	}
	m, err := r.svc.Chats.SendMessage(ctx, principalFrom(ctx), chats.CreateMessageInput{
		ChatID:          chatID,
		ParentMessageID: parentID,
		Body:            args.Input.Body,
	})
	if err != nil {
		return nil, err
	}
	return &messageResolver{m: *m}, nil
}

// ==== MUTATION: TAGS ====

func (r *Resolver) CreateTag(ctx context.Context, args struct {
	Input struct {
		OrganizationId graphqlgo.ID
		Name           string
		ParentTagId    *graphqlgo.ID
	}
}) (*tagResolver, error) {
	orgID, err := parseID(args.Input.OrganizationId, "input", "organizationId")
	if err != nil {
		return nil, err
	}
	parentID, err := parseOptionalID(args.Input.ParentTagId, "input", "parentTagId")
	if err != nil {
		return nil, err
	}
	t, err := r.svc.Tags.Create(ctx, principalFrom(ctx), tags.CreateTagInput{
		OrganizationID: orgID,
		Name:           args.Input.Name,
		ParentTagID:    parentID,
	})
	if err != nil {
		return nil, err
	}
	return &tagResolver{t: t}, nil
}

type tagAssignmentInput struct {
	TagId    graphqlgo.ID
	MemberId graphqlgo.ID
}

func (r *Resolver) decodeTagAssignment(in tagAssignmentInput) (tags.AssignTagInput, error) {
	tagID, err := parseID(in.TagId, "input", "tagId")
	if err != nil {
		return tags.AssignTagInput{}, err
	}
	memberID, err := parseID(in.MemberId, "input", "memberId")
	if err != nil {
		return tags.AssignTagInput{}, err
	}
	return tags.AssignTagInput{TagID: tagID, MemberID: memberID}, nil
}

func (r *Resolver) AssignTag(ctx context.Context, args struct{ Input tagAssignmentInput }) (*tagResolver, error) {
	in, err := r.decodeTagAssignment(args.Input)
	if err != nil {
		return nil, err
	}
	t, err := r.svc.Tags.Assign(ctx, principalFrom(ctx), in)
	if err != nil {
		return nil, err
	}
	return &tagResolver{t: t}, nil
}

func (r *Resolver) UnassignTag(ctx context.Context, args struct{ Input tagAssignmentInput }) (*tagResolver, error) {
	in, err := r.decodeTagAssignment(args.Input)
	if err != nil {
		return nil, err
	}
	t, err := r.svc.Tags.Unassign(ctx, principalFrom(ctx), in)
	if err != nil {
		return nil, err
	}
	return &tagResolver{t: t}, nil
}

// ==== MUTATION: AGENDA ====

func (r *Resolver) CreateAgendaFolder(ctx context.Context, args struct {
	Input struct {
		EventId        graphqlgo.ID
		ParentFolderId *graphqlgo.ID
		Name           string
		IsItemFolder   bool
	}
}) (*agendaFolderResolver, error) {
	eventID, err := parseID(args.Input.EventId, "input", "eventId")
	if err != nil {
		return nil, err
	}
	parentID, err := parseOptionalID(args.Input.ParentFolderId, "input", "parentFolderId")
	if err != nil {
		return nil, err
	}
	f, err := r.svc.Agenda.CreateFolder(ctx, principalFrom(ctx), agenda.CreateFolderInput{
		EventID:        eventID,
		ParentFolderID: parentID,
		Name:           args.Input.Name,
		IsItemFolder:   args.Input.IsItemFolder,
	})
	if err != nil {
		return nil, err
	}
	return &agendaFolderResolver{root: r, f: f}, nil
}

func (r *Resolver) CreateAgendaItem(ctx context.Context, args struct {
	Input struct {
		FolderId        graphqlgo.ID
		Title           string
		Description     *string
		DurationMinutes int32
	}
}) (*agendaItemResolver, error) {
	folderID, err := parseID(args.Input.FolderId, "input", "folderId")
	if err != nil {
		return nil, err
	}
	in := agenda.CreateItemInput{
		FolderID:        folderID,
		Title:           args.Input.Title,
		DurationMinutes: args.Input.DurationMinutes,
	}
	if args.Input.Description != nil {
		in.Description = *args.Input.Description
	}
	it, err := r.svc.Agenda.CreateItem(ctx, principalFrom(ctx), in)
	if err != nil {
		return nil, err
	}
	return &agendaItemResolver{it: it}, nil
}

func (r *Resolver) DeleteAgendaFolder(ctx context.Context, args struct {
	Input struct{ ID graphqlgo.ID }
}) (*agendaFolderResolver, error) {
	id, err := parseID(args.Input.ID, "input", "id")
	if err != nil {
		return nil, err
	}
	f, err := r.svc.Agenda.DeleteFolder(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &agendaFolderResolver{root: r, f: f}, nil
}

func (r *Resolver) DeleteAgendaItem(ctx context.Context, args struct {
	Input struct{ ID graphqlgo.ID }
}) (*agendaItemResolver, error) {
	id, err := parseID(args.Input.ID, "input", "id")
	if err != nil {
		return nil, err
	}
	it, err := r.svc.Agenda.DeleteItem(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &agendaItemResolver{it: it}, nil
}

// ==== MUTATION: ADVERTISEMENTS ====

func (r *Resolver) CreateAdvertisement(ctx context.Context, args struct {
	Input struct {
		OrganizationId graphqlgo.ID
		Name           string
		Description    *string
		Type           string
		StartAt        graphqlgo.Time
		EndAt          graphqlgo.Time
	}
}) (*advertisementResolver, error) {
	orgID, err := parseID(args.Input.OrganizationId, "input", "organizationId")
	if err != nil {
		return nil, err
	}
	adType, err := advertisements.ParseAdType(args.Input.Type)
	if err != nil {
		return nil, gqlerr.InvalidArgument("Unknown advertisement type.", "input", "type")
	}
	in := advertisements.CreateAdvertisementInput{
		OrganizationID: orgID,
		Name:           args.Input.Name,
		Type:           adType,
		StartAt:        args.Input.StartAt.Time,
		EndAt:          args.Input.EndAt.Time,
	}
	if args.Input.Description != nil {
		in.Description = *args.Input.Description
	}
	a, err := r.svc.Advertisements.Create(ctx, principalFrom(ctx), in)
	if err != nil {
		return nil, err
	}
	return &advertisementResolver{a: a}, nil
}

func (r *Resolver) DeleteAdvertisement(ctx context.Context, args struct {
	Input struct{ ID graphqlgo.ID }
}) (*advertisementResolver, error) {
	id, err := parseID(args.Input.ID, "input", "id")
	if err != nil {
		return nil, err
	}
	a, err := r.svc.Advertisements.Delete(ctx, principalFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	return &advertisementResolver{a: a}, nil
}

// ==== MUTATION: NOTIFICATIONS ====

func (r *Resolver) MarkNotificationRead(ctx context.Context, args struct {
	Input struct{ ID graphqlgo.ID }
}) (bool, error) {
	id, err := parseID(args.Input.ID, "input", "id")
	if err != nil {
		return false, err
	}
	if err := r.svc.Notifications.MarkRead(ctx, principalFrom(ctx), id); err != nil {
		return false, err
	}
	return true, nil
}
