package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-stomp/stomp"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
	"marcel.works/pointing/app/model"
)

const (
	StompPrefix = "stomp"

	_topicCommand = "/topic/pointing_command"
	_queueReply   = "/queue/pointing_reply"
)

// StompService lets clients talk to the coordinator through a STOMP broker.
// Clients publish commands to one topic and name themselves in the "client"
// field; events come back on a reply queue per client.
type StompService struct {
	Connection *stomp.Conn
	Dispatcher Dispatcher
	Logger     *zap.Logger
}

func (s *StompService) Connect(host, user, pass string) error {
	options := []func(conn *stomp.Conn) error{
		stomp.ConnOpt.Login(user, pass),
		stomp.ConnOpt.Host("/"),
	}
	connection, err := stomp.Dial("tcp", host, options...)
	if err != nil {
		return err
	}
	s.Connection = connection
	return nil
}

func (s *StompService) Disconnect() error {
	return s.Connection.Disconnect()
}

// ReceiveCommands forwards commands from the broker until ctx is cancelled or
// the subscription ends.
func (s *StompService) ReceiveCommands(ctx context.Context) error {
	subscription, err := s.Connection.Subscribe(_topicCommand, stomp.AckAuto)
	if err != nil {
		return err
	}
	defer func() {
		_ = subscription.Unsubscribe()
	}()
	s.Logger.Info("subscribed", zap.String("topic", _topicCommand))

	for {
		select {
		case <-ctx.Done():
			return nil
		case message, ok := <-subscription.C:
			if !ok {
				return nil
			}
			if message.Err != nil {
				s.Logger.Error("broker subscription failed", zap.Error(message.Err))
				return message.Err
			}
			s.handle(message.Body)
		}
	}
}

func (s *StompService) handle(body []byte) {
	var command model.Command
	if err := json.Unmarshal(body, &command); err != nil {
		s.Logger.Warn("malformed command", zap.String("topic", _topicCommand), zap.Error(err))
		return
	}
	if command.Client == "" {
		s.Logger.Warn("command without client", zap.String("cmd", command.Cmd))
		return
	}
	command.ConnID = StompPrefix + ":" + command.Client
	if command.Ack != 0 {
		connID, ack := command.ConnID, command.Ack
		command.Reply = func(a model.Ack) {
			s.Send(connID, model.Broadcast{Type: model.EventAck, Ack: ack, Data: a, Timestamp: time.Now()})
		}
	}
	s.Logger.Debug(">>> received", zap.String("cmd", command.Cmd), zap.String("conn", command.ConnID))
	s.Dispatcher.Dispatch(command)
}

func (s *StompService) Send(connID string, broadcast model.Broadcast) {
	payload, err := json.Marshal(broadcast)
	if err != nil {
		s.Logger.Error("could not encode event", zap.String("type", broadcast.Type), zap.Error(err))
		return
	}
	destination := replyDestination(connID)
	if err := s.Connection.Send(destination, "application/json", payload); err != nil {
		s.Logger.Warn("could not send event", zap.String("type", broadcast.Type), zap.String("destination", destination), zap.Error(err))
		return
	}
	s.Logger.Debug("<<< sent", zap.String("type", broadcast.Type), zap.String("destination", destination))
}

func replyDestination(connID string) string {
	return _queueReply + "." + strings.TrimPrefix(connID, StompPrefix+":")
}
