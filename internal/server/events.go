package server

import (
	"encoding/json"
	"strings"

	"github.com/Tyrowin/roomchat/internal/chat"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/Tyrowin/roomchat/internal/server")

// handleFrame decodes one inbound frame and dispatches it by event name.
func (c *Client) handleFrame(raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.log.Debug("Invalid frame", "error", err)
		c.sendError(nil, CodeInvalidFrame, "invalid frame payload")
		return
	}

	_, span := tracer.Start(c.hub.ctx, "chat."+frame.Event,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("chat.conn", string(c.id))))
	defer span.End()

	switch frame.Event {
	case EventJoin:
		c.handleJoin(span, frame)
	case EventMessage:
		c.handleMessage(span, frame)
	default:
		span.SetStatus(codes.Error, "unsupported event")
		c.sendError(frame.ID, CodeUnsupportedEvent, "unsupported event")
	}
}

func (c *Client) handleJoin(span trace.Span, frame Frame) {
	var req JoinRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		span.SetStatus(codes.Error, "invalid join payload")
		c.ack(frame.ID, Ack{Success: false, Message: "invalid join payload"})
		return
	}
	span.SetAttributes(
		attribute.String("chat.room", strings.TrimSpace(req.Room)),
		attribute.String("chat.username", strings.TrimSpace(req.Username)),
	)

	if err := c.hub.state.Join(c, req.Room, req.Username); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errorCode(err))
		c.log.Info("Join rejected", "room", req.Room, "username", req.Username, "error", err)
		c.ack(frame.ID, Ack{Success: false, Message: failureMessage(err)})
		return
	}

	c.ack(frame.ID, Ack{Success: true})
}

func (c *Client) handleMessage(span trace.Span, frame Frame) {
	var req MessageRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		span.SetStatus(codes.Error, "invalid message payload")
		c.sendError(frame.ID, CodeInvalidFrame, "invalid message payload")
		return
	}
	span.SetAttributes(attribute.String("chat.room", req.Room))

	delivery, err := c.hub.state.Send(c.id, req.Room, req.Message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errorCode(err))
		c.log.Info("Message rejected", "room", req.Room, "claimed_username", req.Username, "error", err)
		if frame.ID != nil {
			c.ack(frame.ID, Ack{Success: false, Message: failureMessage(err)})
		}
		c.sendError(frame.ID, errorCode(err), failureMessage(err))
		return
	}

	span.SetAttributes(
		attribute.Int("chat.recipients", delivery.Recipients),
		attribute.Int("chat.failed", len(delivery.Failed)),
	)
	if frame.ID != nil {
		c.ack(frame.ID, Ack{Success: true})
	}
}

func (c *Client) ack(id *uint64, ack Ack) {
	c.reply(EventAck, id, ack)
}

func (c *Client) sendError(id *uint64, code, message string) {
	c.reply(EventError, id, ErrorPayload{Code: code, Message: message})
}

func (c *Client) reply(event string, id *uint64, payload any) {
	frame, err := encodeFrame(event, id, payload)
	if err != nil {
		c.log.Error("Failed to encode frame", "event", event, "error", err)
		return
	}
	if err := c.enqueue(frame); err != nil {
		c.log.Debug("Dropping reply", "event", event, "error", err)
	}
}

var _ chat.Peer = (*Client)(nil)
