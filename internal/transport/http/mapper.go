package http

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vovakirdan/voicechat-server/internal/core"
	"github.com/vovakirdan/voicechat-server/internal/proto"
)

// inboundToCommand decodes a client envelope. An unknown type yields a
// protocol error for the client; a malformed payload yields err and is only
// logged.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeUserJoin:
		var data proto.UserJoinData
		if err := decode(inbound, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{Kind: core.CommandRegister, Username: data.Username}, nil, nil
	case proto.InboundTypeJoinChannel, proto.InboundTypeLeaveChannel:
		var data proto.ChannelData
		if err := decode(inbound, &data); err != nil {
			return nil, nil, err
		}
		kind := core.CommandJoinChannel
		if inbound.Type == proto.InboundTypeLeaveChannel {
			kind = core.CommandLeaveChannel
		} else if data.ChannelID == "" {
			return nil, nil, missing(inbound.Type, "channelId")
		}
		return &core.Command{Kind: kind, UserID: data.UserID, Channel: data.ChannelID}, nil, nil
	case proto.InboundTypeSendMessage:
		var data proto.SendMessageData
		if err := decode(inbound, &data); err != nil {
			return nil, nil, err
		}
		if data.Content == "" {
			return nil, nil, missing(inbound.Type, "content")
		}
		return &core.Command{
			Kind:    core.CommandSendMessage,
			UserID:  data.UserID,
			Channel: data.ChannelID,
			Content: data.Content,
		}, nil, nil
	case proto.InboundTypeVoiceJoin:
		return &core.Command{Kind: core.CommandVoiceJoin}, nil, nil
	case proto.InboundTypeVoiceLeave:
		return &core.Command{Kind: core.CommandVoiceLeave}, nil, nil
	case proto.InboundTypeVoiceOffer, proto.InboundTypeVoiceAnswer, proto.InboundTypeVoiceICECandidate:
		return signalCommand(inbound)
	case proto.InboundTypeVoiceData:
		var data proto.VoiceData
		if err := decode(inbound, &data); err != nil {
			return nil, nil, err
		}
		if len(data.Data) == 0 {
			return nil, nil, missing(inbound.Type, "data")
		}
		return &core.Command{Kind: core.CommandVoiceData, Payload: data.Data, MimeType: data.MimeType}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func signalCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	var data proto.SignalData
	if err := decode(inbound, &data); err != nil {
		return nil, nil, err
	}
	if data.UserID == "" {
		return nil, nil, missing(inbound.Type, "userId")
	}

	cmd := &core.Command{TargetID: data.UserID}
	field := ""
	switch inbound.Type {
	case proto.InboundTypeVoiceOffer:
		cmd.Kind, cmd.Payload, field = core.CommandVoiceOffer, data.Offer, "offer"
	case proto.InboundTypeVoiceAnswer:
		cmd.Kind, cmd.Payload, field = core.CommandVoiceAnswer, data.Answer, "answer"
	default:
		cmd.Kind, cmd.Payload, field = core.CommandVoiceICECandidate, data.Candidate, "candidate"
	}
	if len(cmd.Payload) == 0 {
		return nil, nil, missing(inbound.Type, field)
	}
	return cmd, nil, nil
}

func decode(inbound proto.Inbound, v any) error {
	if len(inbound.Data) == 0 {
		return fmt.Errorf("%s: no data: %w", inbound.Type, core.ErrMalformed)
	}
	if err := json.Unmarshal(inbound.Data, v); err != nil {
		return fmt.Errorf("%s: %v: %w", inbound.Type, err, core.ErrMalformed)
	}
	return nil
}

func missing(kind, field string) error {
	return fmt.Errorf("%s: %s is required: %w", kind, field, core.ErrMalformed)
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	out := proto.Outbound{Type: proto.OutboundTypeEvent}
	switch event.Kind {
	case core.EventUserInfo:
		out.Event, out.Data = proto.EventUserInfo, userToProto(event.User)
	case core.EventJoinError:
		data := proto.JoinErrorData{Message: "Could not join."}
		if event.Error != nil {
			data = proto.JoinErrorData{Code: event.Error.Code, Message: event.Error.Message}
		}
		out.Event, out.Data = proto.EventJoinError, data
	case core.EventUsersUpdate:
		out.Event, out.Data = proto.EventUsersUpdate, usersToProto(event.Users)
	case core.EventUserJoined:
		out.Event, out.Data = proto.EventUserJoined, proto.UserJoinedData{
			ChannelID: event.Channel,
			User:      userToProto(event.User),
		}
	case core.EventUserLeft:
		out.Event, out.Data = proto.EventUserLeft, proto.UserLeftData{
			ChannelID: event.Channel,
			UserID:    event.UserID,
		}
	case core.EventChannelMessages:
		messages := make([]proto.Message, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, messageToProto(msg))
		}
		out.Event, out.Data = proto.EventChannelMessages, messages
	case core.EventReceiveMessage:
		out.Event, out.Data = proto.EventReceiveMessage, messageToProto(event.Message)
	case core.EventVoiceUserJoined:
		out.Event, out.Data = proto.EventVoiceUserJoined, proto.EventVoicePeer{UserID: event.UserID, ChannelID: event.Channel}
	case core.EventVoiceUserLeft:
		out.Event, out.Data = proto.EventVoiceUserLeft, proto.EventVoicePeer{UserID: event.UserID, ChannelID: event.Channel}
	case core.EventVoiceNegotiationTimeout:
		out.Event, out.Data = proto.EventVoiceNegotiationTimeout, proto.EventVoicePeer{UserID: event.UserID}
	case core.EventVoiceOffer:
		out.Event, out.Data = proto.EventVoiceOffer, proto.EventSignal{UserID: event.UserID, FromUserID: event.UserID, Offer: event.Payload}
	case core.EventVoiceAnswer:
		out.Event, out.Data = proto.EventVoiceAnswer, proto.EventSignal{UserID: event.UserID, FromUserID: event.UserID, Answer: event.Payload}
	case core.EventVoiceICECandidate:
		out.Event, out.Data = proto.EventVoiceICECandidate, proto.EventSignal{UserID: event.UserID, FromUserID: event.UserID, Candidate: event.Payload}
	case core.EventVoiceData:
		out.Event, out.Data = proto.EventVoiceData, proto.VoiceDataEvent{
			UserID:   event.UserID,
			Data:     event.Payload,
			MimeType: event.MimeType,
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown event"}}
	}
	return out
}

func userToProto(u core.User) proto.User {
	return proto.User{
		ID:            u.ID,
		Username:      u.Username,
		ConnectionID:  u.ConnectionID,
		ActiveChannel: u.ActiveChannel,
	}
}

func usersToProto(users []core.User) []proto.User {
	out := make([]proto.User, 0, len(users))
	for _, u := range users {
		out = append(out, userToProto(u))
	}
	return out
}

func messageToProto(m core.Message) proto.Message {
	return proto.Message{
		ID:        m.ID,
		Content:   m.Content,
		UserID:    m.AuthorID,
		Username:  m.AuthorName,
		ChannelID: m.ChannelID,
		Timestamp: m.SentAt.UTC().Format(time.RFC3339Nano),
	}
}
