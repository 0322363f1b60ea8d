package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/whisperbox/whisperbox-api/internal/api/metrics"
	"github.com/whisperbox/whisperbox-api/internal/core/domain"
	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

// HeaderIdempotencyKey lets a client retry send-message without duplicates.
const HeaderIdempotencyKey = "Idempotency-Key"

type MessageHandler struct {
	svc       ports.MessageService
	suggester ports.Suggester
}

func NewMessageHandler(svc ports.MessageService, suggester ports.Suggester) *MessageHandler {
	return &MessageHandler{svc: svc, suggester: suggester}
}

type sendMessageRequest struct {
	Username string `json:"username" validate:"required"`
	Content  string `json:"content"  validate:"required,max=1000"`
}

type acceptMessagesRequest struct {
	AcceptMessages *bool `json:"acceptMessages" validate:"required"`
}

type messagesResponse struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message,omitempty"`
	Messages []*domain.Message `json:"messages"`
}

type acceptMessagesResponse struct {
	Success             bool   `json:"success"`
	Message             string `json:"message"`
	IsAcceptingMessages bool   `json:"isAcceptingMessages"`
}

type countMessagesResponse struct {
	Success       bool  `json:"success"`
	TotalMessages int64 `json:"totalMessages"`
}

type countUsersResponse struct {
	Success   bool  `json:"success"`
	UserCount int64 `json:"userCount"`
}

type suggestionsResponse struct {
	Success  bool     `json:"success"`
	Messages []string `json:"messages"`
}

// SendMessage delivers an anonymous message to a username.
//
// @Summary      Send an anonymous message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string              false  "Client retry key"
// @Param        body             body      sendMessageRequest  true   "Recipient and content"
// @Success      200              {object}  envelope
// @Failure      400              {object}  envelope
// @Failure      403              {object}  envelope
// @Failure      404              {object}  envelope
// @Failure      429              {object}  envelope
// @Failure      500              {object}  envelope
// @Router       /send-message [post]
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.svc.SubmitMessage(c.Request().Context(), ports.SubmitMessageInput{
		RecipientUsername: req.Username,
		Content:           req.Content,
		IdempotencyKey:    c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		metrics.MessagesSubmittedTotal.WithLabelValues(kindLabel(err)).Inc()
		return err
	}

	switch {
	case res.Replayed:
		metrics.MessagesSubmittedTotal.WithLabelValues("replayed").Inc()
	case res.IsHarmful:
		metrics.MessagesSubmittedTotal.WithLabelValues("harmful").Inc()
	default:
		metrics.MessagesSubmittedTotal.WithLabelValues("accepted").Inc()
	}
	return ok(c, http.StatusOK, "Message sent successfully")
}

// GetMessages lists the signed-in account's messages, newest first.
//
// @Summary      List my messages
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messagesResponse
// @Failure      401  {object}  envelope
// @Failure      404  {object}  envelope
// @Router       /get-messages [get]
func (h *MessageHandler) GetMessages(c echo.Context) error {
	accountID, _, err := ctxAccount(c)
	if err != nil {
		return err
	}

	msgs, err := h.svc.ListMessages(c.Request().Context(), accountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messagesResponse{Success: true, Messages: msgs})
}

// DeleteMessage removes one of the signed-in account's messages.
//
// @Summary      Delete a message
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Message ID"
// @Success      200  {object}  envelope
// @Failure      401  {object}  envelope
// @Failure      404  {object}  envelope
// @Router       /delete-message/{id} [delete]
func (h *MessageHandler) DeleteMessage(c echo.Context) error {
	accountID, _, err := ctxAccount(c)
	if err != nil {
		return err
	}

	if err := h.svc.DeleteMessage(c.Request().Context(), accountID, c.Param("id")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Message deleted")
}

// GetAcceptMessages returns the signed-in account's acceptance flag.
//
// @Summary      Get message acceptance
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  acceptMessagesResponse
// @Failure      401  {object}  envelope
// @Failure      404  {object}  envelope
// @Router       /accept-messages [get]
func (h *MessageHandler) GetAcceptMessages(c echo.Context) error {
	accountID, _, err := ctxAccount(c)
	if err != nil {
		return err
	}

	accepting, err := h.svc.AcceptingMessages(c.Request().Context(), accountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acceptMessagesResponse{Success: true, IsAcceptingMessages: accepting})
}

// SetAcceptMessages toggles whether the signed-in account accepts messages.
//
// @Summary      Set message acceptance
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      acceptMessagesRequest  true  "New flag"
// @Success      200   {object}  acceptMessagesResponse
// @Failure      400   {object}  envelope
// @Failure      401   {object}  envelope
// @Failure      404   {object}  envelope
// @Router       /accept-messages [post]
func (h *MessageHandler) SetAcceptMessages(c echo.Context) error {
	accountID, _, err := ctxAccount(c)
	if err != nil {
		return err
	}
	var req acceptMessagesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.svc.SetAcceptingMessages(c.Request().Context(), accountID, *req.AcceptMessages); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acceptMessagesResponse{
		Success:             true,
		Message:             "Message acceptance status updated successfully",
		IsAcceptingMessages: *req.AcceptMessages,
	})
}

// CountMessages returns the total number of stored messages.
//
// @Summary      Count messages
// @Tags         stats
// @Produce      json
// @Success      200  {object}  countMessagesResponse
// @Router       /count-messages [get]
func (h *MessageHandler) CountMessages(c echo.Context) error {
	n, err := h.svc.CountMessages(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countMessagesResponse{Success: true, TotalMessages: n})
}

// CountUsers returns the number of verified accounts.
//
// @Summary      Count users
// @Tags         stats
// @Produce      json
// @Success      200  {object}  countUsersResponse
// @Router       /count-users [get]
func (h *MessageHandler) CountUsers(c echo.Context) error {
	n, err := h.svc.CountUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countUsersResponse{Success: true, UserCount: n})
}

// SuggestMessages asks the text generator for three message ideas.
//
// @Summary      Suggest messages
// @Tags         messages
// @Produce      json
// @Success      200  {object}  suggestionsResponse
// @Failure      400  {object}  envelope
// @Failure      500  {object}  envelope
// @Router       /suggest-messages [post]
func (h *MessageHandler) SuggestMessages(c echo.Context) error {
	suggestions, err := h.suggester.Suggest(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, suggestionsResponse{Success: true, Messages: suggestions})
}
