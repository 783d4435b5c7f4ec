package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"socialnet/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// fakeChatQueries keeps raw group membership separate from the active
// private-chat list, like the store does: an unfriended pair keeps its
// membership rows while the group is inactive.
type fakeChatQueries struct {
	members  map[uuid.UUID][]uuid.UUID
	messages map[uuid.UUID][]models.ChatMessage
}

func (f *fakeChatQueries) Conversations(context.Context, uuid.UUID, time.Time, int) ([]models.Conversation, error) {
	return nil, nil
}

func (f *fakeChatQueries) Messages(_ context.Context, chatGroupID uuid.UUID, _ time.Time, _ int) ([]models.ChatMessage, error) {
	return f.messages[chatGroupID], nil
}

func (f *fakeChatQueries) IsMember(_ context.Context, chatGroupID, profileID uuid.UUID) (bool, error) {
	for _, memberID := range f.members[chatGroupID] {
		if memberID == profileID {
			return true, nil
		}
	}
	return false, nil
}

func messagesRouter(queries ChatQueries, profileID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("profileID", profileID) })
	router.GET("/conversations/:id/messages", NewChatHandler(queries).GetMessages)
	return router
}

func TestGetMessagesAuthorizesByMembership(t *testing.T) {
	viewer := uuid.New()
	// The viewer's only group: deactivated after an unfriend, so it no
	// longer appears among active private chats, but the membership row
	// remains.
	group := uuid.New()
	queries := &fakeChatQueries{
		members: map[uuid.UUID][]uuid.UUID{group: {viewer, uuid.New()}},
		messages: map[uuid.UUID][]models.ChatMessage{
			group: {{ID: uuid.New(), ChatGroupID: group, Content: "hi"}},
		},
	}
	router := messagesRouter(queries, viewer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/conversations/"+group.String()+"/messages", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hi")
}

func TestGetMessagesForbidsNonMembers(t *testing.T) {
	group := uuid.New()
	queries := &fakeChatQueries{
		members: map[uuid.UUID][]uuid.UUID{group: {uuid.New(), uuid.New()}},
	}
	router := messagesRouter(queries, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/conversations/"+group.String()+"/messages", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetMessagesRejectsMalformedGroupID(t *testing.T) {
	router := messagesRouter(&fakeChatQueries{}, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/conversations/not-a-uuid/messages", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
