package graphql

import (
	"context"

	"github.com/google/uuid"
	graphqlgo "github.com/graph-gophers/graphql-go"

	"github.com/assembly-hq/assembly/internal/actionitems"
	"github.com/assembly-hq/assembly/internal/advertisements"
	"github.com/assembly-hq/assembly/internal/agenda"
	"github.com/assembly-hq/assembly/internal/chats"
	"github.com/assembly-hq/assembly/internal/events"
	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
	"github.com/assembly-hq/assembly/internal/notifications"
	"github.com/assembly-hq/assembly/internal/organizations"
	"github.com/assembly-hq/assembly/internal/posts"
	"github.com/assembly-hq/assembly/internal/relay"
	"github.com/assembly-hq/assembly/internal/tags"
	"github.com/assembly-hq/assembly/internal/users"
)

// ==== USERS ====

type userResolver struct {
	u *users.User
}

func (r *userResolver) ID() graphqlgo.ID             { return graphqlgo.ID(r.u.ID.String()) }
func (r *userResolver) Name() string                 { return r.u.Name }
func (r *userResolver) EmailAddress() string         { return r.u.EmailAddress }
func (r *userResolver) Role() string                 { return r.u.Role.String() }
func (r *userResolver) IsEmailAddressVerified() bool { return r.u.IsEmailVerified }
func (r *userResolver) CreatedAt() graphqlgo.Time    { return graphqlgo.Time{Time: r.u.CreatedAt} }

// ==== ORGANIZATIONS ====

type organizationResolver struct {
	root *Resolver
	org  *organizations.Organization
}

func (r *organizationResolver) ID() graphqlgo.ID    { return graphqlgo.ID(r.org.ID.String()) }
func (r *organizationResolver) Name() string        { return r.org.Name }
func (r *organizationResolver) Description() string { return r.org.Description }
func (r *organizationResolver) CountryCode() string { return r.org.CountryCode }
func (r *organizationResolver) CreatedAt() graphqlgo.Time {
	return graphqlgo.Time{Time: r.org.CreatedAt}
}

func (r *organizationResolver) Creator(ctx context.Context) (*userResolver, error) {
	return r.auditUser(ctx, r.org.CreatorID)
}

func (r *organizationResolver) Updater(ctx context.Context) (*userResolver, error) {
	return r.auditUser(ctx, r.org.UpdaterID)
}

// Audit fields are visible to organization administrators only.
func (r *organizationResolver) auditUser(ctx context.Context, id *uuid.UUID) (*userResolver, error) {
	p := principalFrom(ctx)
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if !gate.CanAccess(p, r.org.ID, gate.LevelAdmin) {
		return nil, gqlerr.Unauthorized()
	}
	if id == nil {
		return nil, nil
	}
	u, err := r.root.svc.Users.Resolve(ctx, *id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	return &userResolver{u: u}, nil
}

func (r *organizationResolver) Members(ctx context.Context, args connectionArgs) (*connectionResolver[organizations.Membership, *membershipResolver], error) {
	conn, err := r.root.svc.Organizations.Members(ctx, principalFrom(ctx), r.org.ID, args.pageArgs())
	if err != nil {
		return nil, err
	}
	return newConnection(conn, func(m organizations.Membership) *membershipResolver {
		return &membershipResolver{root: r.root, m: m}
	}), nil
}

func (r *organizationResolver) Events(ctx context.Context, args connectionArgs) (*connectionResolver[events.Event, *eventResolver], error) {
	conn, err := r.root.svc.Events.ListByOrganization(ctx, principalFrom(ctx), r.org.ID, args.pageArgs())
	if err != nil {
		return nil, err
	}
	return newConnection(conn, func(ev events.Event) *eventResolver {
		return &eventResolver{root: r.root, ev: &ev}
	}), nil
}

func (r *organizationResolver) Posts(ctx context.Context, args connectionArgs) (*connectionResolver[posts.Post, *postResolver], error) {
	conn, err := r.root.svc.Posts.ListByOrganization(ctx, principalFrom(ctx), r.org.ID, args.pageArgs())
	if err != nil {
		return nil, err
	}
	return newConnection(conn, func(p posts.Post) *postResolver {
		return &postResolver{p: &p}
	}), nil
}

func (r *organizationResolver) Chats(ctx context.Context, args connectionArgs) (*connectionResolver[chats.Chat, *chatResolver], error) {
	conn, err := r.root.svc.Chats.ListByOrganization(ctx, principalFrom(ctx), r.org.ID, args.pageArgs())
	if err != nil {
		return nil, err
	}
	return newConnection(conn, func(c chats.Chat) *chatResolver {
		return &chatResolver{root: r.root, c: &c}
	}), nil
}

func (r *organizationResolver) Tags(ctx context.Context, args connectionArgs) (*connectionResolver[tags.Tag, *tagResolver], error) {
	conn, err := r.root.svc.Tags.ListByOrganization(ctx, principalFrom(ctx), r.org.ID, args.pageArgs())
	if err != nil {
		return nil, err
	}
	return newConnection(conn, func(t tags.Tag) *tagResolver {
		return &tagResolver{t: &t}
	}), nil
}

func (r *organizationResolver) Advertisements(ctx context.Context, args connectionArgs) (*connectionResolver[advertisements.Advertisement, *advertisementResolver], error) {
	conn, err := r.root.svc.Advertisements.ListByOrganization(ctx, principalFrom(ctx), r.org.ID, args.pageArgs())
	if err != nil {
		return nil, err
	}
	return newConnection(conn, func(a advertisements.Advertisement) *advertisementResolver {
		return &advertisementResolver{a: &a}
	}), nil
}

func (r *organizationResolver) ActionItemCategories(ctx context.Context, args connectionArgs) (*connectionResolver[actionitems.Category, *categoryResolver], error) {
	conn, err := r.root.svc.ActionItems.Categories(ctx, principalFrom(ctx), r.org.ID, args.pageArgs())
	if err != nil {
		return nil, err
	}
	return newConnection(conn, func(c actionitems.Category) *categoryResolver {
		return &categoryResolver{c: &c}
	}), nil
}

type membershipResolver struct {
	root *Resolver
	m    organizations.Membership
}

func (r *membershipResolver) OrganizationId() graphqlgo.ID {
	return graphqlgo.ID(r.m.OrganizationID.String())
}
func (r *membershipResolver) MemberId() graphqlgo.ID    { return graphqlgo.ID(r.m.MemberID.String()) }
func (r *membershipResolver) Role() string              { return r.m.Role.String() }
func (r *membershipResolver) CreatedAt() graphqlgo.Time { return graphqlgo.Time{Time: r.m.CreatedAt} }

func (r *membershipResolver) AssignedTags(ctx context.Context) ([]*tagResolver, error) {
	list, err := r.root.svc.Tags.TagsOfMember(ctx, principalFrom(ctx), r.m.OrganizationID, r.m.MemberID)
	if err != nil {
		return nil, err
	}
	out := make([]*tagResolver, len(list))
	for i := range list {
		out[i] = &tagResolver{t: &list[i]}
	}
	return out, nil
}

// ==== EVENTS ====

type eventResolver struct {
	root *Resolver
	ev   *events.Event
}

func (r *eventResolver) ID() graphqlgo.ID          { return graphqlgo.ID(r.ev.ID.String()) }
func (r *eventResolver) Name() string              { return r.ev.Name }
func (r *eventResolver) Description() string       { return r.ev.Description }
func (r *eventResolver) StartAt() graphqlgo.Time   { return graphqlgo.Time{Time: r.ev.StartAt} }
func (r *eventResolver) EndAt() graphqlgo.Time     { return graphqlgo.Time{Time: r.ev.EndAt} }
func (r *eventResolver) IsRecurring() bool         { return r.ev.IsRecurring() }
func (r *eventResolver) CreatedAt() graphqlgo.Time { return graphqlgo.Time{Time: r.ev.CreatedAt} }

func (r *eventResolver) Instances(ctx context.Context, args struct{ From, To graphqlgo.Time }) ([]*instanceResolver, error) {
	insts, err := r.root.svc.Events.Instances(ctx, principalFrom(ctx), r.ev.ID, args.From.Time, args.To.Time)
	if err != nil {
		return nil, err
	}
	out := make([]*instanceResolver, 0, len(insts))
	for _, inst := range insts {
		inst := inst
		out = append(out, &instanceResolver{inst: &inst})
	}
	return out, nil
}

func (r *eventResolver) ActionItems(ctx context.Context, args struct {
	InstanceId *graphqlgo.ID
	First      *int32
	After      *string
	Last       *int32
	Before     *string
}) (*connectionResolver[actionitems.EffectiveItem, *actionItemResolver], error) {
	instanceID, err := parseOptionalID(args.InstanceId, "instanceId")
	if err != nil {
		return nil, err
	}
	page := relay.PageArgs{First: args.First, After: args.After, Last: args.Last, Before: args.Before}
	conn, err := r.root.svc.ActionItems.ItemsForEvent(ctx, principalFrom(ctx), r.ev.ID, instanceID, page)
	if err != nil {
		return nil, err
	}
	return newConnection(conn, func(it actionitems.EffectiveItem) *actionItemResolver {
		return &actionItemResolver{it: it}
	}), nil
}

func (r *eventResolver) AgendaFolders(ctx context.Context) ([]*agendaFolderResolver, error) {
	folders, err := r.root.svc.Agenda.Folders(ctx, principalFrom(ctx), r.ev.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*agendaFolderResolver, 0, len(folders))
	for _, f := range folders {
		f := f
		out = append(out, &agendaFolderResolver{root: r.root, f: &f})
	}
	return out, nil
}

type instanceResolver struct {
	inst *events.Instance
}

func (r *instanceResolver) ID() graphqlgo.ID         { return graphqlgo.ID(r.inst.ID.String()) }
func (r *instanceResolver) EventId() graphqlgo.ID    { return graphqlgo.ID(r.inst.EventID.String()) }
func (r *instanceResolver) OccursAt() graphqlgo.Time { return graphqlgo.Time{Time: r.inst.OccursAt} }
func (r *instanceResolver) IsCancelled() bool        { return r.inst.IsCancelled }

// ==== ACTION ITEMS ====

type categoryResolver struct {
	c *actionitems.Category
}

func (r *categoryResolver) ID() graphqlgo.ID          { return graphqlgo.ID(r.c.ID.String()) }
func (r *categoryResolver) Name() string              { return r.c.Name }
func (r *categoryResolver) IsDisabled() bool          { return r.c.IsDisabled }
func (r *categoryResolver) CreatedAt() graphqlgo.Time { return graphqlgo.Time{Time: r.c.CreatedAt} }

type actionItemResolver struct {
	it actionitems.EffectiveItem
}

func (r *actionItemResolver) ID() graphqlgo.ID      { return graphqlgo.ID(r.it.ID.String()) }
func (r *actionItemResolver) EventId() graphqlgo.ID { return graphqlgo.ID(r.it.EventID.String()) }
func (r *actionItemResolver) CategoryId() *graphqlgo.ID {
	if r.it.CategoryID == nil {
		return nil
	}
	id := graphqlgo.ID(r.it.CategoryID.String())
	return &id
}
func (r *actionItemResolver) AssigneeId() *graphqlgo.ID {
	if r.it.AssigneeID == nil {
		return nil
	}
	id := graphqlgo.ID(r.it.AssigneeID.String())
	return &id
}
func (r *actionItemResolver) IsCompleted() bool            { return r.it.IsCompleted }
func (r *actionItemResolver) PreCompletionNotes() string   { return r.it.PreCompletionNotes }
func (r *actionItemResolver) PostCompletionNotes() *string { return r.it.PostCompletionNotes }
func (r *actionItemResolver) AssignedAt() graphqlgo.Time {
	return graphqlgo.Time{Time: r.it.AssignedAt}
}
func (r *actionItemResolver) IsInstanceException() bool { return r.it.IsInstanceException }

// ==== POSTS ====

type postResolver struct {
	p *posts.Post
}

func (r *postResolver) ID() graphqlgo.ID          { return graphqlgo.ID(r.p.ID.String()) }
func (r *postResolver) Caption() string           { return r.p.Caption }
func (r *postResolver) IsPinned() bool            { return r.p.IsPinned }
func (r *postResolver) CreatorId() graphqlgo.ID   { return graphqlgo.ID(r.p.CreatorID.String()) }
func (r *postResolver) UpVotes() int32            { return r.p.UpVotes }
func (r *postResolver) DownVotes() int32          { return r.p.DownVotes }
func (r *postResolver) CreatedAt() graphqlgo.Time { return graphqlgo.Time{Time: r.p.CreatedAt} }

// ==== CHATS ====

type chatResolver struct {
	root *Resolver
	c    *chats.Chat
}

type chatMembershipResolver struct {
	m chats.ChatMembership
}

func (r *chatMembershipResolver) ChatId() graphqlgo.ID { return graphqlgo.ID(r.m.ChatID.String()) }
func (r *chatMembershipResolver) MemberId() graphqlgo.ID {
	return graphqlgo.ID(r.m.MemberID.String())
}
func (r *chatMembershipResolver) CreatedAt() graphqlgo.Time {
	return graphqlgo.Time{Time: r.m.CreatedAt}
}

func (r *chatResolver) ID() graphqlgo.ID          { return graphqlgo.ID(r.c.ID.String()) }
func (r *chatResolver) Name() string              { return r.c.Name }
func (r *chatResolver) Description() string       { return r.c.Description }
func (r *chatResolver) CreatedAt() graphqlgo.Time { return graphqlgo.Time{Time: r.c.CreatedAt} }

func (r *chatResolver) Messages(ctx context.Context, args connectionArgs) (*connectionResolver[chats.Message, *messageResolver], error) {
	conn, err := r.root.svc.Chats.Messages(ctx, principalFrom(ctx), r.c.ID, args.pageArgs())
	if err != nil {
		return nil, err
	}
	return newConnection(conn, func(m chats.Message) *messageResolver {
		return &messageResolver{m: m}
	}), nil
}

type messageResolver struct {
	m chats.Message
}

func (r *messageResolver) ID() graphqlgo.ID     { return graphqlgo.ID(r.m.ID.String()) }
func (r *messageResolver) ChatId() graphqlgo.ID { return graphqlgo.ID(r.m.ChatID.String()) }
func (r *messageResolver) ParentMessageId() *graphqlgo.ID {
	if r.m.ParentMessageID == nil {
		return nil
	}
	id := graphqlgo.ID(r.m.ParentMessageID.String())
	return &id
}
func (r *messageResolver) CreatorId() graphqlgo.ID   { return graphqlgo.ID(r.m.CreatorID.String()) }
func (r *messageResolver) Body() string              { return r.m.Body }
func (r *messageResolver) CreatedAt() graphqlgo.Time { return graphqlgo.Time{Time: r.m.CreatedAt} }

// ==== TAGS ====

type tagResolver struct {
	t *tags.Tag
}

func (r *tagResolver) ID() graphqlgo.ID { return graphqlgo.ID(r.t.ID.String()) }
func (r *tagResolver) Name() string     { return r.t.Name }
func (r *tagResolver) ParentTagId() *graphqlgo.ID {
	if r.t.ParentTagID == nil {
		return nil
	}
	id := graphqlgo.ID(r.t.ParentTagID.String())
	return &id
}
func (r *tagResolver) CreatedAt() graphqlgo.Time { return graphqlgo.Time{Time: r.t.CreatedAt} }

// ==== ADVERTISEMENTS ====

type advertisementResolver struct {
	a *advertisements.Advertisement
}

func (r *advertisementResolver) ID() graphqlgo.ID        { return graphqlgo.ID(r.a.ID.String()) }
func (r *advertisementResolver) Name() string            { return r.a.Name }
func (r *advertisementResolver) Description() string     { return r.a.Description }
func (r *advertisementResolver) Type() string            { return string(r.a.Type) }
func (r *advertisementResolver) StartAt() graphqlgo.Time { return graphqlgo.Time{Time: r.a.StartAt} }
func (r *advertisementResolver) EndAt() graphqlgo.Time   { return graphqlgo.Time{Time: r.a.EndAt} }
func (r *advertisementResolver) CreatedAt() graphqlgo.Time {
	return graphqlgo.Time{Time: r.a.CreatedAt}
}

// ==== AGENDA ====

type agendaFolderResolver struct {
	root *Resolver
	f    *agenda.Folder
}

func (r *agendaFolderResolver) ID() graphqlgo.ID      { return graphqlgo.ID(r.f.ID.String()) }
func (r *agendaFolderResolver) EventId() graphqlgo.ID { return graphqlgo.ID(r.f.EventID.String()) }
func (r *agendaFolderResolver) ParentFolderId() *graphqlgo.ID {
	if r.f.ParentFolderID == nil {
		return nil
	}
	id := graphqlgo.ID(r.f.ParentFolderID.String())
	return &id
}
func (r *agendaFolderResolver) Name() string       { return r.f.Name }
func (r *agendaFolderResolver) IsItemFolder() bool { return r.f.IsItemFolder }

func (r *agendaFolderResolver) Items(ctx context.Context) ([]*agendaItemResolver, error) {
	items, err := r.root.svc.Agenda.Items(ctx, principalFrom(ctx), r.f.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*agendaItemResolver, 0, len(items))
	for _, it := range items {
		it := it
		out = append(out, &agendaItemResolver{it: &it})
	}
	return out, nil
}

type agendaItemResolver struct {
	it *agenda.Item
}

func (r *agendaItemResolver) ID() graphqlgo.ID       { return graphqlgo.ID(r.it.ID.String()) }
func (r *agendaItemResolver) FolderId() graphqlgo.ID { return graphqlgo.ID(r.it.FolderID.String()) }
func (r *agendaItemResolver) Title() string          { return r.it.Title }
func (r *agendaItemResolver) Description() string    { return r.it.Description }
func (r *agendaItemResolver) DurationMinutes() int32 { return r.it.DurationMinutes }
func (r *agendaItemResolver) Position() int32        { return r.it.Position }

// ==== NOTIFICATIONS ====

type notificationResolver struct {
	d notifications.Delivery
}

func (r *notificationResolver) ID() graphqlgo.ID { return graphqlgo.ID(r.d.ID.String()) }
func (r *notificationResolver) OrganizationId() graphqlgo.ID {
	return graphqlgo.ID(r.d.OrganizationID.String())
}
func (r *notificationResolver) Kind() string              { return string(r.d.Kind) }
func (r *notificationResolver) Payload() string           { return string(r.d.Payload) }
func (r *notificationResolver) CreatedAt() graphqlgo.Time { return graphqlgo.Time{Time: r.d.CreatedAt} }
func (r *notificationResolver) ReadAt() *graphqlgo.Time {
	if r.d.ReadAt == nil {
		return nil
	}
	return &graphqlgo.Time{Time: *r.d.ReadAt}
}

// ==== AUTH ====

type authPayloadResolver struct {
	token string
	user  *users.User
}

func (r *authPayloadResolver) AuthenticationToken() string { return r.token }
func (r *authPayloadResolver) User() *userResolver         { return &userResolver{u: r.user} }
