package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gpneto/Clinica360-sub004/internal/chat"
	"github.com/gpneto/Clinica360-sub004/internal/messaging"
	"github.com/gpneto/Clinica360-sub004/internal/tenancy"
	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

var chatWebhookTracer = otel.Tracer("clinica360.internal.http.chat")

const maxWebhookBody = 1 << 20

type chatProcessor interface {
	Process(ctx context.Context, tenantID, chatID, text string) ([]string, error)
}

// inboundMessage is the normalized payload the messaging gateway posts for
// each received chat message.
type inboundMessage struct {
	From      string `json:"from"`
	Text      string `json:"text"`
	MessageID string `json:"messageId"`
}

// ChatWebhookHandler receives inbound chat messages, runs them through the
// booking state machine and sends the machine's replies back out. It always
// answers 200 to the gateway once the payload parses; processing failures are
// absorbed into a generic reply to the user rather than webhook retries.
type ChatWebhookHandler struct {
	machine   chatProcessor
	transport messaging.Transport
	logger    *logging.Logger
	token     string
}

type ChatWebhookConfig struct {
	Machine   chatProcessor
	Transport messaging.Transport
	Logger    *logging.Logger
	// Token, when set, must match the X-Webhook-Token request header.
	Token string
}

func NewChatWebhookHandler(cfg ChatWebhookConfig) *ChatWebhookHandler {
	if cfg.Machine == nil || cfg.Transport == nil {
		panic("handlers: chat webhook requires a machine and a transport")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatWebhookHandler{
		machine:   cfg.Machine,
		transport: cfg.Transport,
		logger:    logger.Component("chat-webhook"),
		token:     cfg.Token,
	}
}

// HandleMessage processes POST /webhooks/chat/{tenantID}/messages.
func (h *ChatWebhookHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	if h.token != "" && r.Header.Get("X-Webhook-Token") != h.token {
		http.Error(w, "invalid webhook token", http.StatusUnauthorized)
		return
	}
	tenantID := chi.URLParam(r, "tenantID")
	if tenantID == "" {
		http.Error(w, "missing tenant", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	var msg inboundMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	msg.From = strings.TrimSpace(msg.From)
	if msg.From == "" {
		http.Error(w, "missing sender", http.StatusBadRequest)
		return
	}

	ctx := tenancy.WithTenantID(r.Context(), tenantID)
	ctx, span := chatWebhookTracer.Start(ctx, "chat.webhook.message")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinica360.tenant_id", tenantID),
		attribute.String("clinica360.message_id", msg.MessageID),
	)

	replies, err := h.machine.Process(ctx, tenantID, msg.From, msg.Text)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("chat processing failed",
			"tenant_id", tenantID, "chat_id", msg.From, "error", err)
		replies = []string{chat.GenericErrorReply}
	}

	delivered := 0
	for _, reply := range replies {
		if _, sendErr := h.transport.SendText(ctx, tenantID, msg.From, reply); sendErr != nil {
			h.logger.Error("chat reply delivery failed",
				"tenant_id", tenantID, "chat_id", msg.From, "error", sendErr)
			continue
		}
		delivered++
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"replies":   len(replies),
		"delivered": delivered,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
