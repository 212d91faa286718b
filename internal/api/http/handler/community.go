package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/service/community"
)

type CommunityHandler struct {
	svc community.Service
}

func NewCommunityHandler(svc community.Service) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

func mapCommunityError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, community.ErrEmptyBody),
		errors.Is(err, community.ErrBodyTooLong):
		return badRequest(c, err.Error())
	case errors.Is(err, community.ErrPostNotFound),
		errors.Is(err, community.ErrGroupNotFound):
		return notFound(c, err.Error())
	default:
		return serverError(c, err)
	}
}

// GET /groups
func (h *CommunityHandler) Groups(c fiber.Ctx) error {
	groups, err := h.svc.Groups(c.Context())
	if err != nil {
		return mapCommunityError(c, err)
	}
	return ok(c, groups)
}

// GET /posts?group=&page=&per_page=
func (h *CommunityHandler) Feed(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}

	var q struct {
		Group   string `query:"group"`
		Page    int    `query:"page"`
		PerPage int    `query:"per_page"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query parameters")
	}

	posts, err := h.svc.Feed(c.Context(), id.UserID(), community.FeedRequest{
		GroupID: q.Group,
		Page:    q.Page,
		PerPage: q.PerPage,
	})
	if err != nil {
		return mapCommunityError(c, err)
	}
	return ok(c, posts)
}

// POST /posts
func (h *CommunityHandler) Create(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		Body    string `json:"body"`
		GroupID string `json:"group_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	post, err := h.svc.Create(c.Context(), id.UserID(), community.CreateRequest{
		Body:    body.Body,
		GroupID: body.GroupID,
	})
	if err != nil {
		return mapCommunityError(c, err)
	}
	return created(c, post)
}

// POST /posts/:id/gratitude
func (h *CommunityHandler) ToggleGratitude(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}
	postID, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid post id")
	}

	res, err := h.svc.ToggleGratitude(c.Context(), id.UserID(), postID)
	if err != nil {
		return mapCommunityError(c, err)
	}
	return ok(c, res)
}
