package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstoffel/outlook-cli/internal/auth"
	"github.com/mstoffel/outlook-cli/internal/graph"
	"github.com/mstoffel/outlook-cli/internal/tokenstore"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	store, err := tokenstore.NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), tokenstore.Accounts{
		"alice@example.com": {
			AccessToken: "test-token",
			ExpiresAt:   time.Now().Add(time.Hour).Unix(),
		},
	}))

	resolver := auth.NewResolver(store)
	c, err := NewClient(context.Background(), resolver, "", graph.WithBaseURL(serverURL))
	require.NoError(t, err)
	return c
}

func TestNewClient_NotAuthenticated(t *testing.T) {
	store, err := tokenstore.NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, err)

	_, err = NewClient(context.Background(), auth.NewResolver(store), "")
	require.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestListMessages_FolderAliasAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/mailFolders/sentitems/messages", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("$top"))
		assert.Equal(t, "receivedDateTime desc", r.URL.Query().Get("$orderby"))
		fmt.Fprint(w, `{"value":[{"id":"msg-1","subject":"hi","receivedDateTime":"2024-06-01T12:00:00Z"}]}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	messages, err := c.ListMessages(context.Background(), "sent", 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "msg-1", messages[0].ID)
	assert.Equal(t, "hi", messages[0].Subject)
}

func TestListMessages_UnknownFolderPassedThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/mailFolders/custom-folder-id/messages", r.URL.Path)
		fmt.Fprint(w, `{"value":[]}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.ListMessages(context.Background(), "custom-folder-id", 5)
	require.NoError(t, err)
}

func TestSearch_QuotesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/messages", r.URL.Path)
		assert.Equal(t, `"quarterly report"`, r.URL.Query().Get("$search"))
		fmt.Fprint(w, `{"value":[]}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Search(context.Background(), "quarterly report", 10)
	require.NoError(t, err)
}

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/sendMail", r.URL.Path)
		var req sendMailRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bob@example.com", req.Message.ToRecipients[0].EmailAddress.Address)
		assert.Equal(t, "Text", req.Message.Body.ContentType)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	require.NoError(t, c.SendMessage(context.Background(), "bob@example.com", "hello", "body text"))
}

func TestSendMessage_FailureSurfacesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":"ErrorInvalidRecipients"}}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	err := c.SendMessage(context.Background(), "bob@example.com", "hello", "body text")

	var apiErr *graph.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Body, "ErrorInvalidRecipients")
}

func TestCreateDraft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/me/messages", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"draft-1","subject":"hello"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	draft, err := c.CreateDraft(context.Background(), "bob@example.com", "hello", "body")
	require.NoError(t, err)
	assert.Equal(t, "draft-1", draft.ID)
}

func TestDeleteMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/me/messages/msg-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	require.NoError(t, c.DeleteMessage(context.Background(), "msg-1"))
}
