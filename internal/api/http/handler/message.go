package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/service/message"
)

const defaultHeartbeat = 25 * time.Second

type MessageHandler struct {
	svc       message.Service
	heartbeat time.Duration
}

func NewMessageHandler(svc message.Service) *MessageHandler {
	return &MessageHandler{svc: svc, heartbeat: defaultHeartbeat}
}

func mapMessageError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, message.ErrEmptyBody),
		errors.Is(err, message.ErrBodyTooLong),
		errors.Is(err, message.ErrSelfMessage):
		return badRequest(c, err.Error())
	case errors.Is(err, message.ErrReceiverNotFound):
		return notFound(c, err.Error())
	default:
		return serverError(c, err)
	}
}

// POST /messages
func (h *MessageHandler) Send(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		ReceiverID string `json:"receiver_id"`
		Body       string `json:"body"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	receiverID, err := uuid.Parse(body.ReceiverID)
	if err != nil {
		return badRequest(c, "invalid receiver_id")
	}

	msg, err := h.svc.Send(c.Context(), id.UserID(), receiverID, body.Body)
	if err != nil {
		return mapMessageError(c, err)
	}
	return created(c, msg)
}

// GET /messages/:peer
func (h *MessageHandler) Conversation(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}
	peer, valid := uuidParam(c, "peer")
	if !valid {
		return badRequest(c, "invalid peer id")
	}

	msgs, err := h.svc.Conversation(c.Context(), id.UserID(), peer)
	if err != nil {
		return mapMessageError(c, err)
	}
	return ok(c, msgs)
}

// GET /messages/unread
func (h *MessageHandler) Unread(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}
	n, err := h.svc.UnreadCount(c.Context(), id.UserID())
	if err != nil {
		return mapMessageError(c, err)
	}
	return ok(c, fiber.Map{"unread": n})
}

// GET /messages/:peer/stream  (Server-Sent Events)
func (h *MessageHandler) Stream(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}
	peer, valid := uuidParam(c, "peer")
	if !valid {
		return badRequest(c, "invalid peer id")
	}

	// The stream outlives the handler; it ends when a write fails.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Context()))
	msgs, err := h.svc.Subscribe(ctx, id.UserID(), peer)
	if err != nil {
		cancel()
		return mapMessageError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	viewer := id.UserID()
	heartbeat := h.heartbeat
	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		fmt.Fprint(w, "event: ready\ndata: {}\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case msg, open := <-msgs:
				if !open {
					return
				}
				data, err := json.Marshal(msg)
				if err != nil {
					slog.ErrorContext(ctx, "encode stream message", "error", err)
					continue
				}
				fmt.Fprintf(w, "event: message\nid: %s\ndata: %s\n\n", msg.ID, data)
			case <-ticker.C:
				fmt.Fprint(w, ": heartbeat\n\n")
			}
			if err := w.Flush(); err != nil {
				slog.DebugContext(ctx, "message stream closed", "viewer", viewer, "peer", peer)
				return
			}
		}
	})
}
