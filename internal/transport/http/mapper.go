package http

import (
	"encoding/json"

	"github.com/vovakirdan/codesync-server/internal/core"
	"github.com/vovakirdan/codesync-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.TypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		listening := true
		if join.Listening != nil {
			listening = *join.Listening
		}
		return &core.Command{
			Kind:      core.CommandJoin,
			Room:      join.RoomID,
			Username:  join.Username,
			Listening: listening,
		}, nil, nil

	case proto.TypeLeave:
		// Leave carries no payload.
		return &core.Command{Kind: core.CommandLeave}, nil, nil

	case proto.TypeCodeChange:
		var change proto.CodeChangeData
		if err := json.Unmarshal(inbound.Data, &change); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind: core.CommandCodeChange,
			Room: change.RoomID,
			Code: change.Code,
		}, nil, nil

	case proto.TypeSyncCode:
		var sync proto.SyncCodeData
		if err := json.Unmarshal(inbound.Data, &sync); err != nil {
			return nil, nil, err
		}
		if sync.ConnectionID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "connectionId is required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandSyncCode,
			Target: sync.ConnectionID,
			Code:   sync.Code,
		}, nil, nil

	case proto.TypeStartVoice, proto.TypeEndVoice:
		var toggle proto.VoiceToggleData
		if err := json.Unmarshal(inbound.Data, &toggle); err != nil {
			return nil, nil, err
		}
		kind := core.CommandStartVoiceChat
		if inbound.Type == proto.TypeEndVoice {
			kind = core.CommandEndVoiceChat
		}
		return &core.Command{Kind: kind, Room: toggle.RoomID}, nil, nil

	case proto.TypeVoiceOffer:
		var offer proto.VoiceOfferData
		if err := json.Unmarshal(inbound.Data, &offer); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:   core.CommandVoiceOffer,
			Target: offer.To,
			Signal: offer.Offer,
		}, nil, nil

	case proto.TypeVoiceAnswer:
		var answer proto.VoiceAnswerData
		if err := json.Unmarshal(inbound.Data, &answer); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:   core.CommandVoiceAnswer,
			Target: answer.To,
			Signal: answer.Answer,
		}, nil, nil

	case proto.TypeICECandidate:
		var candidate proto.ICECandidateData
		if err := json.Unmarshal(inbound.Data, &candidate); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:   core.CommandICECandidate,
			Target: candidate.To,
			Signal: candidate.Candidate,
		}, nil, nil

	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventJoined:
		return proto.Outbound{
			Type: proto.TypeJoined,
			Data: proto.JoinedData{
				Clients:      clientInfos(event.Clients),
				Username:     event.User,
				ConnectionID: event.Conn,
			},
		}
	case core.EventLeft:
		return proto.Outbound{
			Type: proto.TypeDisconnected,
			Data: proto.JoinedData{
				Clients:      clientInfos(event.Clients),
				Username:     event.User,
				ConnectionID: event.Conn,
			},
		}
	case core.EventCodeChange:
		return proto.Outbound{
			Type: proto.TypeCodeChange,
			Data: proto.CodeChangeData{Code: event.Code},
		}
	case core.EventSyncCode:
		return proto.Outbound{
			Type: proto.TypeSyncCode,
			Data: proto.SyncCodeData{Code: event.Code},
		}
	case core.EventVoiceStarted:
		return proto.Outbound{
			Type: proto.TypeStartVoice,
			Data: proto.VoiceToggleData{RoomID: event.Room, ConnectionID: event.Conn},
		}
	case core.EventVoiceEnded:
		return proto.Outbound{
			Type: proto.TypeEndVoice,
			Data: proto.VoiceToggleData{RoomID: event.Room, ConnectionID: event.Conn},
		}
	case core.EventVoiceUsers:
		return proto.Outbound{
			Type: proto.TypeVoiceUsers,
			Data: proto.VoiceUsersData{Clients: clientInfos(event.Clients)},
		}
	case core.EventVoiceOffer:
		return proto.Outbound{
			Type: proto.TypeVoiceOffer,
			Data: proto.VoiceOfferData{Offer: event.Signal, From: event.Conn},
		}
	case core.EventVoiceAnswer:
		return proto.Outbound{
			Type: proto.TypeVoiceAnswer,
			Data: proto.VoiceAnswerData{Answer: event.Signal, From: event.Conn},
		}
	case core.EventICECandidate:
		return proto.Outbound{
			Type: proto.TypeICECandidate,
			Data: proto.ICECandidateData{Candidate: event.Signal, From: event.Conn},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.TypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.TypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.TypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown event"}}
	}
}

func clientInfos(clients []core.ClientInfo) []proto.ClientInfo {
	infos := make([]proto.ClientInfo, 0, len(clients))
	for _, c := range clients {
		infos = append(infos, proto.ClientInfo{
			ID:          c.ID,
			Username:    c.Username,
			InVoiceChat: c.InVoiceChat,
			Listening:   c.Listening,
		})
	}
	return infos
}
