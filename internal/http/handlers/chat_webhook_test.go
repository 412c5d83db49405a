package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpneto/Clinica360-sub004/internal/chat"
	"github.com/gpneto/Clinica360-sub004/internal/tenancy"
)

type fakeMachine struct {
	replies  []string
	err      error
	tenantID string
	chatID   string
	text     string
	sawCtx   bool
}

func (f *fakeMachine) Process(ctx context.Context, tenantID, chatID, text string) ([]string, error) {
	f.tenantID, f.chatID, f.text = tenantID, chatID, text
	_, f.sawCtx = tenancy.TenantIDFromContext(ctx)
	return f.replies, f.err
}

type sentText struct {
	tenantID  string
	recipient string
	body      string
}

type fakeSender struct {
	sent    []sentText
	failFor string
}

func (f *fakeSender) SendText(_ context.Context, tenantID, recipient, body string) (string, error) {
	if f.failFor != "" && strings.Contains(body, f.failFor) {
		return "", errors.New("send failed")
	}
	f.sent = append(f.sent, sentText{tenantID: tenantID, recipient: recipient, body: body})
	return "msg-1", nil
}

func (f *fakeSender) SendTemplate(context.Context, string, string, string, map[string]string) (string, error) {
	return "msg-1", nil
}

func webhookRequest(t *testing.T, handler *ChatWebhookHandler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/webhooks/chat/{tenantID}/messages", handler.HandleMessage)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/chat/tenant-1/messages", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestChatWebhookDeliversReplies(t *testing.T) {
	machine := &fakeMachine{replies: []string{"primeira", "segunda"}}
	sender := &fakeSender{}
	handler := NewChatWebhookHandler(ChatWebhookConfig{Machine: machine, Transport: sender})

	rec := webhookRequest(t, handler, `{"from":"5511999990000","text":"oi","messageId":"m-1"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"replies":2,"delivered":2}`, rec.Body.String())

	assert.Equal(t, "tenant-1", machine.tenantID)
	assert.Equal(t, "5511999990000", machine.chatID)
	assert.Equal(t, "oi", machine.text)
	assert.True(t, machine.sawCtx)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, sentText{tenantID: "tenant-1", recipient: "5511999990000", body: "primeira"}, sender.sent[0])
}

func TestChatWebhookSuppressedConversationSendsNothing(t *testing.T) {
	machine := &fakeMachine{}
	sender := &fakeSender{}
	handler := NewChatWebhookHandler(ChatWebhookConfig{Machine: machine, Transport: sender})

	rec := webhookRequest(t, handler, `{"from":"5511999990000","text":"oi"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sender.sent)
}

func TestChatWebhookProcessErrorSendsGenericReply(t *testing.T) {
	machine := &fakeMachine{err: errors.New("store down")}
	sender := &fakeSender{}
	handler := NewChatWebhookHandler(ChatWebhookConfig{Machine: machine, Transport: sender})

	rec := webhookRequest(t, handler, `{"from":"5511999990000","text":"oi"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, chat.GenericErrorReply, sender.sent[0].body)
}

func TestChatWebhookDeliveryFailureIsIsolated(t *testing.T) {
	machine := &fakeMachine{replies: []string{"falha aqui", "chega"}}
	sender := &fakeSender{failFor: "falha"}
	handler := NewChatWebhookHandler(ChatWebhookConfig{Machine: machine, Transport: sender})

	rec := webhookRequest(t, handler, `{"from":"5511999990000","text":"oi"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"replies":2,"delivered":1}`, rec.Body.String())
}

func TestChatWebhookRejectsBadPayloads(t *testing.T) {
	handler := NewChatWebhookHandler(ChatWebhookConfig{Machine: &fakeMachine{}, Transport: &fakeSender{}})

	rec := webhookRequest(t, handler, `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = webhookRequest(t, handler, `{"text":"oi"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatWebhookTokenEnforcement(t *testing.T) {
	machine := &fakeMachine{replies: []string{"ok"}}
	handler := NewChatWebhookHandler(ChatWebhookConfig{
		Machine: machine, Transport: &fakeSender{}, Token: "hook-secret",
	})

	rec := webhookRequest(t, handler, `{"from":"5511999990000","text":"oi"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = webhookRequest(t, handler, `{"from":"5511999990000","text":"oi"}`,
		map[string]string{"X-Webhook-Token": "hook-secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
