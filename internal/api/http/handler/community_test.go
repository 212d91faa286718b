package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/service/community"
)

type fakeCommunity struct {
	community.Service
	lastFeed   community.FeedRequest
	lastCreate community.CreateRequest
}

func (f *fakeCommunity) Groups(context.Context) ([]domain.CommunityGroup, error) {
	return []domain.CommunityGroup{{ID: "mothers", Name: "Mothers Support", Category: "Parenting"}}, nil
}

func (f *fakeCommunity) Feed(_ context.Context, _ uuid.UUID, req community.FeedRequest) ([]domain.Post, error) {
	f.lastFeed = req
	if req.GroupID == "gardening" {
		return nil, community.ErrGroupNotFound
	}
	return []domain.Post{}, nil
}

func (f *fakeCommunity) Create(_ context.Context, author uuid.UUID, req community.CreateRequest) (*domain.Post, error) {
	f.lastCreate = req
	return &domain.Post{ID: uuid.New(), AuthorID: author, GroupID: &req.GroupID, Body: req.Body}, nil
}

func TestCommunityHandler(t *testing.T) {
	svc := &fakeCommunity{}
	id := clientIdentity()
	app := newApp(&id)
	h := NewCommunityHandler(svc)
	app.Get("/groups", h.Groups)
	app.Get("/posts", h.Feed)
	app.Post("/posts", h.Create)

	res := do(t, app, http.MethodGet, "/groups", nil)
	require.Equal(t, http.StatusOK, res.status)
	groups, isList := res.body["data"].([]any)
	require.True(t, isList)
	assert.Equal(t, "Mothers Support", groups[0].(map[string]any)["name"])

	res = do(t, app, http.MethodGet, "/posts?group=mothers&page=2", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, community.FeedRequest{GroupID: "mothers", Page: 2}, svc.lastFeed)

	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodGet, "/posts?group=gardening", nil).status)
	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodGet, "/posts?per_page=lots", nil).status)

	res = do(t, app, http.MethodPost, "/posts", map[string]string{"body": "small win", "group_id": "mothers"})
	require.Equal(t, http.StatusCreated, res.status)
	assert.Equal(t, community.CreateRequest{Body: "small win", GroupID: "mothers"}, svc.lastCreate)
	assert.Equal(t, "mothers", res.data()["group_id"])
}
