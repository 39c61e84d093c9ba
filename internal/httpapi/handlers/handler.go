package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lhawkeye71/ai-phone-agent/internal/calls"
	"github.com/lhawkeye71/ai-phone-agent/internal/dialogue"
)

// TurnHandler is the slice of the dialogue service the webhooks need.
type TurnHandler interface {
	StartSession(ctx context.Context, callID, callerAddress string) (*dialogue.CallSession, error)
	HandleTurn(ctx context.Context, callID, callerAddress, utterance string) dialogue.TurnOutcome
}

type Handler struct {
	Dialogue TurnHandler
	Calls    *calls.Registry
}

func NewHandler(svc TurnHandler, registry *calls.Registry) *Handler {
	return &Handler{Dialogue: svc, Calls: registry}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"active_calls": h.Calls.ActiveCount(c.Request.Context()),
	})
}
