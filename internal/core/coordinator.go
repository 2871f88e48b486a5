package core

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type sessionState int

const (
	stateAnonymous sessionState = iota
	stateJoined
	stateActive
)

// session is the coordinator's view of one connection.
type session struct {
	connID  string
	userID  string
	state   sessionState
	channel string
}

// Components bundles the stateful pieces the Coordinator orchestrates.
type Components struct {
	Registry     *Registry
	Channels     *ChannelStore
	Voice        *VoiceRooms
	Negotiations *Negotiations
	Relay        *Relay
}

// Option tunes a Coordinator.
type Option func(*Coordinator)

// WithVoiceDataRelay enables or disables forwarding of raw voice_data chunks.
func WithVoiceDataRelay(enabled bool) Option {
	return func(c *Coordinator) { c.voiceData = enabled }
}

// WithDefaultChannel joins freshly registered users to channelID.
func WithDefaultChannel(channelID string) Option {
	return func(c *Coordinator) { c.defaultChannel = channelID }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator drives the per-connection state machine
// (anonymous -> joined -> active channel) and turns each request into the
// notifications the transport has to deliver. It performs no I/O.
type Coordinator struct {
	mu       sync.Mutex
	sessions map[string]*session

	registry     *Registry
	channels     *ChannelStore
	voice        *VoiceRooms
	negotiations *Negotiations
	relay        *Relay

	voiceData      bool
	defaultChannel string
	now            func() time.Time
	log            zerolog.Logger
}

// NewCoordinator wires the coordinator to its components.
func NewCoordinator(c Components, logger *zerolog.Logger, opts ...Option) *Coordinator {
	coord := &Coordinator{
		sessions:     make(map[string]*session),
		registry:     c.Registry,
		channels:     c.Channels,
		voice:        c.Voice,
		negotiations: c.Negotiations,
		relay:        c.Relay,
		voiceData:    true,
		now:          time.Now,
		log:          componentLogger(logger, "coordinator"),
	}
	for _, opt := range opts {
		opt(coord)
	}
	if coord.defaultChannel != "" && !coord.channels.Exists(coord.defaultChannel) {
		coord.log.Warn().Str("channel", coord.defaultChannel).Msg("default channel does not exist, auto-join disabled")
		coord.defaultChannel = ""
	}
	return coord
}

// Connect opens an anonymous session for the connection.
func (c *Coordinator) Connect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[connID]; ok {
		return
	}
	c.sessions[connID] = &session{connID: connID}
}

// Handle applies one client command and returns what must be delivered.
// Commands for unknown connections are dropped.
func (c *Coordinator) Handle(connID string, cmd Command) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[connID]
	if !ok {
		c.log.Debug().Str("conn_id", connID).Stringer("event", cmd.Kind).Msg("command for closed connection dropped")
		return nil
	}

	switch cmd.Kind {
	case CommandRegister:
		return c.register(s, cmd.Username)
	case CommandJoinChannel:
		return c.joinChannel(s, cmd)
	case CommandLeaveChannel:
		return c.leaveChannel(s, cmd)
	case CommandSendMessage:
		return c.sendMessage(s, cmd)
	case CommandVoiceJoin:
		return c.voiceJoin(s, cmd)
	case CommandVoiceLeave:
		return c.voiceLeave(s, cmd)
	case CommandVoiceOffer, CommandVoiceAnswer, CommandVoiceICECandidate:
		return c.voiceSignal(s, cmd)
	case CommandVoiceData:
		return c.voiceDataRelay(s, cmd)
	default:
		c.log.Warn().Str("conn_id", connID).Int("kind", int(cmd.Kind)).Msg("unknown command kind")
		return nil
	}
}

// Disconnect tears down everything the connection owns. Only the first call
// for a connection has any effect.
func (c *Coordinator) Disconnect(connID string) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[connID]
	if !ok {
		return nil
	}
	delete(c.sessions, connID)
	if s.userID == "" {
		return nil
	}

	user, err := c.registry.LookupByConnection(connID)
	if err != nil {
		c.log.Error().Err(err).Str("conn_id", connID).Msg("session without registry entry")
		return nil
	}

	notes := c.leaveVoiceLocked(user)
	if dropped := c.negotiations.Forget(user.ID); dropped > 0 {
		c.log.Debug().Str("user_id", user.ID).Int("offers", dropped).Msg("pending offers discarded")
	}
	if channelID, ok := c.channels.RemoveUser(user.ID); ok {
		ev := &Event{Kind: EventUserLeft, Channel: channelID, UserID: user.ID}
		notes = append(notes, c.toChannel(channelID, ev)...)
	}
	c.registry.Remove(connID)

	c.log.Info().Str("conn_id", connID).Str("user_id", user.ID).Str("username", user.Username).Msg("user disconnected")
	return append(notes, c.usersUpdate()...)
}

// Expire retracts offers whose answer deadline passed.
func (c *Coordinator) Expire(now time.Time) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	var notes []Notification
	for _, p := range c.negotiations.Expired(now) {
		c.log.Info().Str("user_id", p.From).Str("target_id", p.To).Msg("voice offer expired")
		notes = append(notes, c.relay.Retract(p)...)
	}
	return notes
}

// Users returns the connected users in registration order.
func (c *Coordinator) Users() []User {
	return c.registry.ListAll()
}

// Channels returns the channel summaries.
func (c *Coordinator) Channels() []ChannelInfo {
	return c.channels.Channels()
}

// Sessions returns the number of open connections.
func (c *Coordinator) Sessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

func (c *Coordinator) register(s *session, name string) []Notification {
	if s.state != stateAnonymous {
		return []Notification{notify(s.connID, &Event{Kind: EventJoinError, Error: registrationError(ErrAlreadyRegistered)})}
	}
	user, err := c.registry.Register(name, s.connID)
	if err != nil {
		c.log.Info().Err(err).Str("conn_id", s.connID).Msg("registration rejected")
		return []Notification{notify(s.connID, &Event{Kind: EventJoinError, Error: registrationError(err)})}
	}
	s.userID = user.ID
	s.state = stateJoined
	c.log.Info().Str("conn_id", s.connID).Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")

	notes := []Notification{notify(s.connID, &Event{Kind: EventUserInfo, User: user})}
	if c.defaultChannel != "" {
		if joined := c.joinChannel(s, Command{Kind: CommandJoinChannel, Channel: c.defaultChannel}); len(joined) > 0 {
			return append(notes, joined...)
		}
	}
	return append(notes, c.usersUpdate()...)
}

func (c *Coordinator) joinChannel(s *session, cmd Command) []Notification {
	user, ok := c.actor(s, cmd)
	if !ok {
		return nil
	}
	channelID := strings.TrimSpace(cmd.Channel)

	previous, changed, err := c.channels.Join(user.ID, channelID)
	if err != nil {
		c.log.Warn().Err(err).Str("conn_id", s.connID).Str("channel_id", channelID).Msg("join channel failed")
		return nil
	}
	history := &Event{Kind: EventChannelMessages, Channel: channelID, Messages: c.channels.History(channelID)}
	if !changed {
		return []Notification{notify(s.connID, history)}
	}

	c.registry.SetActiveChannel(user.ID, channelID)
	user.ActiveChannel = channelID
	s.state = stateActive
	s.channel = channelID

	var notes []Notification
	if previous != "" {
		left := &Event{Kind: EventUserLeft, Channel: previous, UserID: user.ID}
		notes = append(notes, c.toChannel(previous, left)...)
	}
	joined := &Event{Kind: EventUserJoined, Channel: channelID, User: user}
	notes = append(notes, c.toChannel(channelID, joined)...)
	notes = append(notes, notify(s.connID, history))

	c.log.Info().Str("user_id", user.ID).Str("channel_id", channelID).Str("previous", previous).Msg("joined channel")
	return append(notes, c.usersUpdate()...)
}

func (c *Coordinator) leaveChannel(s *session, cmd Command) []Notification {
	user, ok := c.actor(s, cmd)
	if !ok {
		return nil
	}
	channelID := cmd.Channel
	if channelID == "" {
		channelID = s.channel
	}
	if !c.channels.Leave(user.ID, channelID) {
		c.log.Debug().Str("user_id", user.ID).Str("channel_id", channelID).Msg("leave for channel user is not in")
		return nil
	}
	c.registry.SetActiveChannel(user.ID, "")
	s.state = stateJoined
	s.channel = ""

	ev := &Event{Kind: EventUserLeft, Channel: channelID, UserID: user.ID}
	notes := append(c.toChannel(channelID, ev), notify(s.connID, ev))
	return append(notes, c.usersUpdate()...)
}

func (c *Coordinator) sendMessage(s *session, cmd Command) []Notification {
	user, ok := c.actor(s, cmd)
	if !ok {
		return nil
	}
	channelID := cmd.Channel
	if channelID == "" {
		channelID = s.channel
	}
	if channelID != s.channel {
		c.log.Warn().Str("user_id", user.ID).Str("channel_id", channelID).Str("active", s.channel).Msg("message for inactive channel dropped")
		return nil
	}
	if strings.TrimSpace(cmd.Content) == "" {
		c.log.Debug().Str("user_id", user.ID).Msg("empty message dropped")
		return nil
	}

	msg, err := c.channels.AppendMessage(cmd.Content, user.ID, channelID)
	if err != nil {
		c.log.Error().Err(err).Str("user_id", user.ID).Str("channel_id", channelID).Msg("append message failed")
		return nil
	}
	return c.toChannel(channelID, &Event{Kind: EventReceiveMessage, Channel: channelID, Message: msg})
}

func (c *Coordinator) voiceJoin(s *session, cmd Command) []Notification {
	user, ok := c.actor(s, cmd)
	if !ok {
		return nil
	}
	if s.channel == "" {
		c.log.Warn().Str("user_id", user.ID).Msg("voice join without active channel dropped")
		return nil
	}

	var notes []Notification
	if room, ok := c.voice.RoomOf(user.ID); ok && room != s.channel {
		notes = c.leaveVoiceLocked(user)
	}
	prior, added := c.voice.Join(s.channel, user.ID)
	if !added {
		c.log.Debug().Str("user_id", user.ID).Str("channel_id", s.channel).Msg("duplicate voice join ignored")
		return notes
	}
	c.log.Info().Str("user_id", user.ID).Str("channel_id", s.channel).Int("peers", len(prior)).Msg("voice joined")
	return append(notes, c.relay.Joined(user, prior)...)
}

func (c *Coordinator) voiceLeave(s *session, cmd Command) []Notification {
	user, ok := c.actor(s, cmd)
	if !ok {
		return nil
	}
	return c.leaveVoiceLocked(user)
}

func (c *Coordinator) leaveVoiceLocked(user User) []Notification {
	room, ok := c.voice.RoomOf(user.ID)
	if !ok {
		return nil
	}
	remaining, removed := c.voice.Leave(room, user.ID)
	if !removed {
		return nil
	}
	if dropped := c.negotiations.Forget(user.ID); dropped > 0 {
		c.log.Debug().Str("user_id", user.ID).Int("offers", dropped).Msg("pending offers discarded")
	}
	c.log.Info().Str("user_id", user.ID).Str("channel_id", room).Msg("voice left")
	return c.relay.Left(user, room, remaining)
}

func (c *Coordinator) voiceSignal(s *session, cmd Command) []Notification {
	user, ok := c.actor(s, cmd)
	if !ok {
		return nil
	}
	note, err := c.relay.Route(user, cmd)
	if err != nil {
		level := zerolog.WarnLevel
		if errors.Is(err, ErrNotFound) {
			level = zerolog.DebugLevel
		}
		c.log.WithLevel(level).Err(err).Str("user_id", user.ID).Str("target_id", cmd.TargetID).Stringer("event", cmd.Kind).Msg("signal dropped")
		return nil
	}
	switch cmd.Kind {
	case CommandVoiceOffer:
		c.negotiations.Offered(user.ID, cmd.TargetID, c.now())
	case CommandVoiceAnswer:
		c.negotiations.Answered(user.ID, cmd.TargetID)
	}
	return []Notification{note}
}

func (c *Coordinator) voiceDataRelay(s *session, cmd Command) []Notification {
	if !c.voiceData {
		return nil
	}
	user, ok := c.actor(s, cmd)
	if !ok {
		return nil
	}
	room, ok := c.voice.RoomOf(user.ID)
	if !ok {
		c.log.Debug().Str("user_id", user.ID).Msg("voice data outside a voice room dropped")
		return nil
	}
	return c.relay.Data(user, room, cmd, c.voice.MembersOf(room))
}

// actor resolves the session's user and checks the id the client claims.
func (c *Coordinator) actor(s *session, cmd Command) (User, bool) {
	if s.state == stateAnonymous {
		c.log.Warn().Str("conn_id", s.connID).Stringer("event", cmd.Kind).Err(ErrNotRegistered).Msg("request dropped")
		return User{}, false
	}
	if cmd.UserID != "" && cmd.UserID != s.userID {
		c.log.Warn().Str("conn_id", s.connID).Str("claimed", cmd.UserID).Err(ErrMalformed).Msg("user id mismatch, request dropped")
		return User{}, false
	}
	user, err := c.registry.LookupByID(s.userID)
	if err != nil {
		c.log.Error().Err(err).Str("conn_id", s.connID).Msg("session user missing")
		return User{}, false
	}
	return user, true
}

func (c *Coordinator) toChannel(channelID string, ev *Event) []Notification {
	members := c.channels.Members(channelID)
	notes := make([]Notification, 0, len(members))
	for _, m := range members {
		notes = append(notes, notify(m.ConnectionID, ev))
	}
	return notes
}

// usersUpdate broadcasts the user list to every open connection, registered
// users first in registration order, then anonymous connections by id.
func (c *Coordinator) usersUpdate() []Notification {
	users := c.registry.ListAll()
	ev := &Event{Kind: EventUsersUpdate, Users: users}
	notes := make([]Notification, 0, len(c.sessions))
	for _, u := range users {
		if _, ok := c.sessions[u.ConnectionID]; ok {
			notes = append(notes, notify(u.ConnectionID, ev))
		}
	}
	anonymous := make([]string, 0, len(c.sessions)-len(notes))
	for connID, s := range c.sessions {
		if s.userID == "" {
			anonymous = append(anonymous, connID)
		}
	}
	slices.Sort(anonymous)
	for _, connID := range anonymous {
		notes = append(notes, notify(connID, ev))
	}
	return notes
}
