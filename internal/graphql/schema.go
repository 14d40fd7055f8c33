package graphql

// Schema is the SDL served by the API. Resolver methods on the root
// Resolver and the per-type resolvers below implement it.
const Schema = `
schema {
	query: Query
	mutation: Mutation
}

scalar Time

type Query {
	me: User!
	user(id: ID!): User!
	organization(id: ID!): Organization!
	organizations(first: Int, after: String, last: Int, before: String): OrganizationConnection!
	event(id: ID!): Event!
	eventInstance(id: ID!): EventInstance!
	chat(id: ID!): Chat!
	post(id: ID!): Post!
	tag(id: ID!): Tag!
	advertisement(id: ID!): Advertisement!
	agendaFolder(id: ID!): AgendaFolder!
	notifications(first: Int, after: String, last: Int, before: String): NotificationConnection!
	unreadNotificationCount: Int!
}

type Mutation {
	signIn(input: SignInInput!): AuthPayload!
	createUser(input: CreateUserInput!): User!
	updateUser(input: UpdateUserInput!): User!
	deleteUser(input: DeleteUserInput!): User!

	createOrganization(input: CreateOrganizationInput!): Organization!
	createOrganizationMembership(input: MembershipInput!): OrganizationMembership!
	deleteOrganizationMembership(input: MembershipInput!): Boolean!

	createEvent(input: CreateEventInput!): Event!

	createActionItemCategory(input: CreateActionItemCategoryInput!): ActionItemCategory!
	createActionItem(input: CreateActionItemInput!): ActionItem!
	updateActionItem(input: UpdateActionItemInput!): ActionItem!
	markActionItemComplete(input: MarkActionItemCompleteInput!): ActionItem!

	createPost(input: CreatePostInput!): Post!
	deletePost(input: DeletePostInput!): Post!
	votePost(input: VotePostInput!): Post!
	unvotePost(input: UnvotePostInput!): Post!

	createChat(input: CreateChatInput!): Chat!
	createChatMembership(input: ChatMembershipInput!): ChatMembership!
	sendChatMessage(input: SendChatMessageInput!): ChatMessage!

	createTag(input: CreateTagInput!): Tag!
	assignTag(input: TagAssignmentInput!): Tag!
	unassignTag(input: TagAssignmentInput!): Tag!

	createAgendaFolder(input: CreateAgendaFolderInput!): AgendaFolder!
	deleteAgendaFolder(input: DeleteAgendaFolderInput!): AgendaFolder!
	createAgendaItem(input: CreateAgendaItemInput!): AgendaItem!
	deleteAgendaItem(input: DeleteAgendaItemInput!): AgendaItem!

	createAdvertisement(input: CreateAdvertisementInput!): Advertisement!
	deleteAdvertisement(input: DeleteAdvertisementInput!): Advertisement!

	markNotificationRead(input: MarkNotificationReadInput!): Boolean!
}

type PageInfo {
	hasNextPage: Boolean!
	hasPreviousPage: Boolean!
	startCursor: String
	endCursor: String
}

type AuthPayload {
	authenticationToken: String!
	user: User!
}

type User {
	id: ID!
	name: String!
	emailAddress: String!
	role: String!
	isEmailAddressVerified: Boolean!
	createdAt: Time!
}

type Organization {
	id: ID!
	name: String!
	description: String!
	countryCode: String!
	createdAt: Time!
	creator: User
	updater: User
	members(first: Int, after: String, last: Int, before: String): OrganizationMembershipConnection!
	events(first: Int, after: String, last: Int, before: String): EventConnection!
	posts(first: Int, after: String, last: Int, before: String): PostConnection!
	chats(first: Int, after: String, last: Int, before: String): ChatConnection!
	tags(first: Int, after: String, last: Int, before: String): TagConnection!
	advertisements(first: Int, after: String, last: Int, before: String): AdvertisementConnection!
	actionItemCategories(first: Int, after: String, last: Int, before: String): ActionItemCategoryConnection!
}

type OrganizationConnection {
	edges: [OrganizationEdge!]!
	pageInfo: PageInfo!
}
type OrganizationEdge {
	node: Organization!
	cursor: String!
}

type OrganizationMembership {
	organizationId: ID!
	memberId: ID!
	role: String!
	createdAt: Time!
	assignedTags: [Tag!]!
}
type OrganizationMembershipConnection {
	edges: [OrganizationMembershipEdge!]!
	pageInfo: PageInfo!
}
type OrganizationMembershipEdge {
	node: OrganizationMembership!
	cursor: String!
}

type Event {
	id: ID!
	name: String!
	description: String!
	startAt: Time!
	endAt: Time!
	isRecurring: Boolean!
	createdAt: Time!
	instances(from: Time!, to: Time!): [EventInstance!]!
	actionItems(instanceId: ID, first: Int, after: String, last: Int, before: String): ActionItemConnection!
	agendaFolders: [AgendaFolder!]!
}
type EventConnection {
	edges: [EventEdge!]!
	pageInfo: PageInfo!
}
type EventEdge {
	node: Event!
	cursor: String!
}

type EventInstance {
	id: ID!
	eventId: ID!
	occursAt: Time!
	isCancelled: Boolean!
}

type ActionItemCategory {
	id: ID!
	name: String!
	isDisabled: Boolean!
	createdAt: Time!
}
type ActionItemCategoryConnection {
	edges: [ActionItemCategoryEdge!]!
	pageInfo: PageInfo!
}
type ActionItemCategoryEdge {
	node: ActionItemCategory!
	cursor: String!
}

type ActionItem {
	id: ID!
	eventId: ID!
	categoryId: ID
	assigneeId: ID
	isCompleted: Boolean!
	preCompletionNotes: String!
	postCompletionNotes: String
	assignedAt: Time!
	isInstanceException: Boolean!
}
type ActionItemConnection {
	edges: [ActionItemEdge!]!
	pageInfo: PageInfo!
}
type ActionItemEdge {
	node: ActionItem!
	cursor: String!
}

type Post {
	id: ID!
	caption: String!
	isPinned: Boolean!
	creatorId: ID!
	upVotes: Int!
	downVotes: Int!
	createdAt: Time!
}
type PostConnection {
	edges: [PostEdge!]!
	pageInfo: PageInfo!
}
type PostEdge {
	node: Post!
	cursor: String!
}

type Chat {
	id: ID!
	name: String!
	description: String!
	createdAt: Time!
	messages(first: Int, after: String, last: Int, before: String): ChatMessageConnection!
}
type ChatMembership {
	chatId: ID!
	memberId: ID!
	createdAt: Time!
}
type ChatConnection {
	edges: [ChatEdge!]!
	pageInfo: PageInfo!
}
type ChatEdge {
	node: Chat!
	cursor: String!
}

type ChatMessage {
	id: ID!
	chatId: ID!
	parentMessageId: ID
	creatorId: ID!
	body: String!
	createdAt: Time!
}
type ChatMessageConnection {
	edges: [ChatMessageEdge!]!
	pageInfo: PageInfo!
}
type ChatMessageEdge {
	node: ChatMessage!
	cursor: String!
}

type Tag {
	id: ID!
	name: String!
	parentTagId: ID
	createdAt: Time!
}
type TagConnection {
	edges: [TagEdge!]!
	pageInfo: PageInfo!
}
type TagEdge {
	node: Tag!
	cursor: String!
}

type Advertisement {
	id: ID!
	name: String!
	description: String!
	type: String!
	startAt: Time!
	endAt: Time!
	createdAt: Time!
}
type AdvertisementConnection {
	edges: [AdvertisementEdge!]!
	pageInfo: PageInfo!
}
type AdvertisementEdge {
	node: Advertisement!
	cursor: String!
}

type AgendaFolder {
	id: ID!
	eventId: ID!
	parentFolderId: ID
	name: String!
	isItemFolder: Boolean!
	items: [AgendaItem!]!
}

type AgendaItem {
	id: ID!
	folderId: ID!
	title: String!
	description: String!
	durationMinutes: Int!
	position: Int!
}

type Notification {
	id: ID!
	organizationId: ID!
	kind: String!
	payload: String!
	createdAt: Time!
	readAt: Time
}
type NotificationConnection {
	edges: [NotificationEdge!]!
	pageInfo: PageInfo!
}
type NotificationEdge {
	node: Notification!
	cursor: String!
}

input SignInInput {
	emailAddress: String!
	password: String!
}
input CreateUserInput {
	name: String!
	emailAddress: String!
	password: String!
	role: String
}
input UpdateUserInput {
	id: ID!
	name: String
	emailAddress: String
	password: String
	role: String
}
input DeleteUserInput {
	id: ID!
}
input CreateOrganizationInput {
	name: String!
	description: String
	countryCode: String!
}
input MembershipInput {
	organizationId: ID!
	memberId: ID!
	role: String
}
input CreateEventInput {
	organizationId: ID!
	name: String!
	description: String
	startAt: Time!
	endAt: Time!
	recurrence: RecurrenceInput
}
input RecurrenceInput {
	frequency: String!
	interval: Int!
	until: Time
}
input CreateActionItemCategoryInput {
	organizationId: ID!
	name: String!
}
input CreateActionItemInput {
	eventId: ID!
	categoryId: ID
	assigneeId: ID
	preCompletionNotes: String
	assignedAt: Time
}
input UpdateActionItemInput {
	id: ID!
	instanceId: ID
	isCompleted: Boolean
	preCompletionNotes: String
	postCompletionNotes: String
	assigneeId: ID
	categoryId: ID
	isDeleted: Boolean
}
input MarkActionItemCompleteInput {
	id: ID!
	instanceId: ID
	postCompletionNotes: String
}
input CreatePostInput {
	organizationId: ID!
	caption: String!
}
input DeletePostInput {
	id: ID!
}
input VotePostInput {
	postId: ID!
	type: String!
}
input UnvotePostInput {
	postId: ID!
}
input CreateChatInput {
	organizationId: ID!
	name: String!
	description: String
}
input ChatMembershipInput {
	chatId: ID!
	memberId: ID!
}
input SendChatMessageInput {
	chatId: ID!
	parentMessageId: ID
	body: String!
}
input CreateTagInput {
	organizationId: ID!
	name: String!
	parentTagId: ID
}
input TagAssignmentInput {
	tagId: ID!
	memberId: ID!
}
input CreateAgendaFolderInput {
	eventId: ID!
	parentFolderId: ID
	name: String!
	isItemFolder: Boolean!
}
input DeleteAgendaFolderInput {
	id: ID!
}
input CreateAgendaItemInput {
	folderId: ID!
	title: String!
	description: String
	durationMinutes: Int!
}
input DeleteAgendaItemInput {
	id: ID!
}
input CreateAdvertisementInput {
	organizationId: ID!
	name: String!
	description: String
	type: String!
	startAt: Time!
	endAt: Time!
}
input DeleteAdvertisementInput {
	id: ID!
}
input MarkNotificationReadInput {
	id: ID!
}
`
