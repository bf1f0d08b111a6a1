package events

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-kick/api"
	"github.com/goliatone/go-kick/core"
)

// User is the identity block shared by every event payload.
type User struct {
	IsAnonymous    bool   `json:"isAnonymous"`
	UserID         int64  `json:"userId"`
	Username       string `json:"username"`
	IsVerified     bool   `json:"isVerified"`
	ProfilePicture string `json:"profilePicture"`
	ChannelSlug    string `json:"channelSlug"`
}

func (u User) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.UserID, validation.When(!u.IsAnonymous, validation.Required)),
	)
}

type Badge struct {
	Text  string `json:"text"`
	Type  string `json:"type"`
	Count int    `json:"count,omitempty"`
}

type Identity struct {
	UsernameColor string  `json:"usernameColor"`
	Badges        []Badge `json:"badges"`
}

type ChatSender struct {
	Viewer
	Identity Identity `json:"identity"`
}

type EmotePosition struct {
	Start int `json:"s"`
	End   int `json:"e"`
}

type Emote struct {
	EmoteID   string          `json:"emoteId"`
	Positions []EmotePosition `json:"positions"`
}

type ReplyTo struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
	Sender    Viewer `json:"sender"`
}

type ChatMessageSent struct {
	Broadcaster User       `json:"broadcaster"`
	MessageID   string     `json:"messageId"`
	RepliesTo   *ReplyTo   `json:"repliesTo"`
	Sender      ChatSender `json:"sender"`
	Content     string     `json:"content"`
	Emotes      []Emote    `json:"emotes"`
}

func (e ChatMessageSent) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Broadcaster),
		validation.Field(&e.MessageID, validation.Required),
		validation.Field(&e.Sender),
	)
}

func (e *ChatMessageSent) bind(b *binding) {
	e.Sender.bind(b)
	if e.RepliesTo != nil {
		e.RepliesTo.Sender.bind(b)
	}
}

type ChannelFollowed struct {
	Broadcaster User   `json:"broadcaster"`
	Follower    Viewer `json:"follower"`
}

func (e ChannelFollowed) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Broadcaster),
		validation.Field(&e.Follower),
	)
}

func (e *ChannelFollowed) bind(b *binding) {
	e.Follower.bind(b)
}

// Subscription is the payload of both new and renewed subscriptions.
type Subscription struct {
	Broadcaster User      `json:"broadcaster"`
	Subscriber  Viewer    `json:"subscriber"`
	Duration    int       `json:"duration"`
	CreatedAt   core.Time `json:"createdAt"`
	ExpiresAt   core.Time `json:"expiresAt"`
}

func (e Subscription) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Broadcaster),
		validation.Field(&e.Subscriber),
		validation.Field(&e.Duration, validation.Min(0)),
	)
}

func (e *Subscription) bind(b *binding) {
	e.Subscriber.bind(b)
}

type SubscriptionRenewal struct {
	Subscription
}

type SubscriptionNew struct {
	Subscription
}

// SubscriptionGifts reports gifted subscriptions. An anonymous gifter only
// carries IsAnonymous and has no actions.
type SubscriptionGifts struct {
	Broadcaster User       `json:"broadcaster"`
	Gifter      Viewer     `json:"gifter"`
	Giftees     []Viewer   `json:"giftees"`
	CreatedAt   core.Time  `json:"createdAt"`
	ExpiresAt   *core.Time `json:"expiresAt"`
}

func (e SubscriptionGifts) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Broadcaster),
		validation.Field(&e.Gifter),
		validation.Field(&e.Giftees),
	)
}

func (e *SubscriptionGifts) bind(b *binding) {
	e.Gifter.bind(b)
	for i := range e.Giftees {
		e.Giftees[i].bind(b)
	}
}

type RedemptionStatus string

const (
	RedemptionPending  RedemptionStatus = "pending"
	RedemptionAccepted RedemptionStatus = "accepted"
	RedemptionRejected RedemptionStatus = "rejected"
)

type RewardRedemptionUpdated struct {
	Broadcaster User             `json:"broadcaster"`
	ID          string           `json:"id"`
	UserInput   string           `json:"userInput"`
	Status      RedemptionStatus `json:"status"`
	RedeemedAt  core.Time        `json:"redeemedAt"`
	Reward      RedeemedReward   `json:"reward"`
	Redeemer    Viewer           `json:"redeemer"`
}

func (e RewardRedemptionUpdated) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Broadcaster),
		validation.Field(&e.ID, validation.Required),
		validation.Field(&e.Status, validation.Required, validation.In(RedemptionPending, RedemptionAccepted, RedemptionRejected)),
		validation.Field(&e.Reward),
		validation.Field(&e.Redeemer),
	)
}

func (e *RewardRedemptionUpdated) bind(b *binding) {
	e.Reward.bind(b)
	e.Redeemer.bind(b)
}

type LivestreamStatusUpdated struct {
	Broadcaster User       `json:"broadcaster"`
	IsLive      bool       `json:"isLive"`
	Title       string     `json:"title"`
	StartedAt   core.Time  `json:"startedAt"`
	EndedAt     *core.Time `json:"endedAt"`
}

func (e LivestreamStatusUpdated) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Broadcaster),
	)
}

func (e *LivestreamStatusUpdated) bind(*binding) {}

type LivestreamMetadata struct {
	Title            string              `json:"title"`
	Language         string              `json:"language"`
	HasMatureContent bool                `json:"hasMatureContent"`
	Category         api.ChannelCategory `json:"category"`
}

type LivestreamMetadataUpdated struct {
	Broadcaster User               `json:"broadcaster"`
	Metadata    LivestreamMetadata `json:"metadata"`
}

func (e LivestreamMetadataUpdated) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Broadcaster),
	)
}

func (e *LivestreamMetadataUpdated) bind(*binding) {}

type BanMetadata struct {
	Reason    string     `json:"reason"`
	CreatedAt core.Time  `json:"createdAt"`
	ExpiresAt *core.Time `json:"expiresAt"`
}

// Permanent reports whether the ban has no expiry.
func (m BanMetadata) Permanent() bool {
	return m.ExpiresAt == nil || m.ExpiresAt.IsZero()
}

type ModerationBanned struct {
	Broadcaster User        `json:"broadcaster"`
	Moderator   User        `json:"moderator"`
	BannedUser  Viewer      `json:"bannedUser"`
	Metadata    BanMetadata `json:"metadata"`
}

func (e ModerationBanned) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Broadcaster),
		validation.Field(&e.Moderator),
		validation.Field(&e.BannedUser),
	)
}

func (e *ModerationBanned) bind(b *binding) {
	e.BannedUser.bind(b)
}

type Gift struct {
	Amount            int64  `json:"amount"`
	Name              string `json:"name"`
	Type              string `json:"type"`
	Tier              string `json:"tier"`
	Message           string `json:"message"`
	PinnedTimeSeconds int    `json:"pinnedTimeSeconds"`
}

type KicksGifted struct {
	Broadcaster User      `json:"broadcaster"`
	Sender      Viewer    `json:"sender"`
	Gift        Gift      `json:"gift"`
	CreatedAt   core.Time `json:"createdAt"`
}

func (e KicksGifted) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Broadcaster),
		validation.Field(&e.Sender),
	)
}

func (e *KicksGifted) bind(b *binding) {
	e.Sender.bind(b)
}
