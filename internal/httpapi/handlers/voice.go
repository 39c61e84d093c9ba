package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lhawkeye71/ai-phone-agent/internal/dialogue"
	"github.com/lhawkeye71/ai-phone-agent/internal/observability/logging"
	"github.com/lhawkeye71/ai-phone-agent/internal/observability/metrics"
)

const (
	collectPath = "/voice/collect"

	repromptLine = "Sorry, I didn't catch that. Could you say it again?"
	busyLine     = "We're helping a lot of callers right now. Please call back in a few minutes. Goodbye!"
)

// AnswerCall handles the provider's webhook for a newly connected call. It
// opens the session, registers the live call, and speaks the greeting
// inside a speech gather.
func (h *Handler) AnswerCall(c *gin.Context) {
	callID := c.PostForm("CallSid")
	caller := c.PostForm("From")
	if callID == "" {
		c.String(http.StatusBadRequest, "CallSid is required")
		return
	}

	ctx := c.Request.Context()

	if h.Calls.AtCapacity(ctx) {
		lg := logging.WithCall(callID)
		lg.Warn().Msg("at capacity, refusing call")
		writeTwiML(c, SayHangup(busyLine))
		return
	}

	if _, err := h.Dialogue.StartSession(ctx, callID, caller); err != nil {
		// Still greet; the first collect webhook retries session creation.
		lg := logging.WithCall(callID)
		lg.Error().Err(err).Msg("start session failed")
		writeTwiML(c, GatherSpeech(dialogue.Greeting, collectPath))
		return
	}

	h.Calls.Track(ctx, callID, caller)
	metrics.DefaultMetrics.RecordCallStarted()
	lg := logging.WithCall(callID)
	lg.Info().Str("caller", caller).Msg("call answered")
	writeTwiML(c, GatherSpeech(dialogue.Greeting, collectPath))
}

// CollectSpeech handles each gather result: one dialogue turn per webhook.
// Every branch answers with valid markup; a dropped response here drops
// the phone call.
func (h *Handler) CollectSpeech(c *gin.Context) {
	callID := c.PostForm("CallSid")
	caller := c.PostForm("From")
	utterance := strings.TrimSpace(c.PostForm("SpeechResult"))
	if callID == "" {
		c.String(http.StatusBadRequest, "CallSid is required")
		return
	}

	ctx := c.Request.Context()

	if utterance == "" {
		// Silence or an empty gather. Re-prompt without running a turn, so
		// the model never sees a blank utterance.
		h.Calls.Touch(ctx, callID)
		writeTwiML(c, GatherSpeech(repromptLine, collectPath))
		return
	}

	outcome := h.Dialogue.HandleTurn(ctx, callID, caller, utterance)
	switch outcome.Kind {
	case dialogue.OutcomeComplete:
		h.Calls.End(ctx, callID)
		writeTwiML(c, SayHangup(outcome.Prompt))
	default:
		// Continue and Failed both keep the caller on the line with another
		// gather; Failed just speaks the fallback line instead of a reply.
		h.Calls.Touch(ctx, callID)
		writeTwiML(c, GatherSpeech(outcome.Prompt, collectPath))
	}
}

// CallStatus handles the provider's status callback. Terminal statuses
// release the live-call registry entry for callers who hung up early.
func (h *Handler) CallStatus(c *gin.Context) {
	callID := c.PostForm("CallSid")
	status := c.PostForm("CallStatus")
	if callID == "" {
		c.String(http.StatusBadRequest, "CallSid is required")
		return
	}

	switch status {
	case "completed", "busy", "failed", "no-answer", "canceled":
		h.Calls.End(c.Request.Context(), callID)
		lg := logging.WithCall(callID)
		lg.Info().Str("call_status", status).Msg("call ended")
	}
	c.Status(http.StatusNoContent)
}

func writeTwiML(c *gin.Context, doc []byte) {
	c.Data(http.StatusOK, "text/xml; charset=utf-8", doc)
}
