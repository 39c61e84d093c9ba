package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lhawkeye71/ai-phone-agent/internal/dialogue"
)

type stubDialogue struct {
	startErr error
	outcome  dialogue.TurnOutcome

	starts     int
	utterances []string
}

func (s *stubDialogue) StartSession(_ context.Context, callID, callerAddress string) (*dialogue.CallSession, error) {
	s.starts++
	if s.startErr != nil {
		return nil, s.startErr
	}
	return &dialogue.CallSession{CallID: callID, CallerAddress: callerAddress}, nil
}

func (s *stubDialogue) HandleTurn(_ context.Context, _, _, utterance string) dialogue.TurnOutcome {
	s.utterances = append(s.utterances, utterance)
	return s.outcome
}

func newTestRouter(stub *stubDialogue) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(stub, nil)
	r.POST("/voice", h.AnswerCall)
	r.POST("/voice/collect", h.CollectSpeech)
	r.POST("/voice/status", h.CallStatus)
	return r
}

func postForm(t *testing.T, r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAnswerCall_GreetsInsideGather(t *testing.T) {
	stub := &stubDialogue{}
	r := newTestRouter(stub)

	w := postForm(t, r, "/voice", url.Values{
		"CallSid": {"CA-answer-1"},
		"From":    {"+15557770001"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/xml") {
		t.Fatalf("expected xml response, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<Gather input="speech" action="/voice/collect"`) {
		t.Fatalf("expected a speech gather: %q", body)
	}
	if !strings.Contains(body, "thanks for calling the Hawkeye Grill hotline!") {
		t.Fatalf("greeting missing: %q", body)
	}
	if stub.starts != 1 {
		t.Fatalf("expected one session start, got %d", stub.starts)
	}
}

func TestAnswerCall_MissingCallSid(t *testing.T) {
	stub := &stubDialogue{}
	r := newTestRouter(stub)

	w := postForm(t, r, "/voice", url.Values{"From": {"+15557770002"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if stub.starts != 0 {
		t.Fatalf("no session should start, got %d", stub.starts)
	}
}

func TestAnswerCall_StartFailureStillGreets(t *testing.T) {
	stub := &stubDialogue{startErr: errors.New("db down")}
	r := newTestRouter(stub)

	w := postForm(t, r, "/voice", url.Values{
		"CallSid": {"CA-answer-2"},
		"From":    {"+15557770003"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<Gather") {
		t.Fatalf("caller should still get a gather: %q", w.Body.String())
	}
}

func TestCollectSpeech_EmptyResultRepromptsWithoutATurn(t *testing.T) {
	stub := &stubDialogue{}
	r := newTestRouter(stub)

	w := postForm(t, r, "/voice/collect", url.Values{
		"CallSid":      {"CA-collect-1"},
		"From":         {"+15557770004"},
		"SpeechResult": {"   "},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(stub.utterances) != 0 {
		t.Fatalf("blank speech must not reach the dialogue: %v", stub.utterances)
	}
	body := w.Body.String()
	if !strings.Contains(body, "catch that") || !strings.Contains(body, "<Gather") {
		t.Fatalf("expected a reprompt gather: %q", body)
	}
}

func TestCollectSpeech_ContinueKeepsGathering(t *testing.T) {
	stub := &stubDialogue{outcome: dialogue.TurnOutcome{
		Kind:   dialogue.OutcomeContinue,
		Prompt: "And your favorite color?",
	}}
	r := newTestRouter(stub)

	w := postForm(t, r, "/voice/collect", url.Values{
		"CallSid":      {"CA-collect-2"},
		"From":         {"+15557770005"},
		"SpeechResult": {"my name is Alice"},
	})

	body := w.Body.String()
	if !strings.Contains(body, "And your favorite color?") {
		t.Fatalf("reply not spoken: %q", body)
	}
	if !strings.Contains(body, `action="/voice/collect"`) {
		t.Fatalf("gather must post back to collect: %q", body)
	}
	if len(stub.utterances) != 1 || stub.utterances[0] != "my name is Alice" {
		t.Fatalf("utterance not forwarded: %v", stub.utterances)
	}
}

func TestCollectSpeech_CompleteSaysGoodbyeAndHangsUp(t *testing.T) {
	stub := &stubDialogue{outcome: dialogue.TurnOutcome{
		Kind:   dialogue.OutcomeComplete,
		Prompt: "Perfect, thank you Alice!",
		Record: &dialogue.CustomerRecord{Name: "Alice"},
	}}
	r := newTestRouter(stub)

	w := postForm(t, r, "/voice/collect", url.Values{
		"CallSid":      {"CA-collect-3"},
		"From":         {"+15557770006"},
		"SpeechResult": {"medium rare"},
	})

	body := w.Body.String()
	if !strings.Contains(body, "Perfect, thank you Alice!") {
		t.Fatalf("closing line missing: %q", body)
	}
	if !strings.Contains(body, "<Hangup>") {
		t.Fatalf("completed call must hang up: %q", body)
	}
	if strings.Contains(body, "<Gather") {
		t.Fatalf("completed call must not keep gathering: %q", body)
	}
}

func TestCollectSpeech_FailureKeepsCallerOnTheLine(t *testing.T) {
	stub := &stubDialogue{outcome: dialogue.TurnOutcome{
		Kind:   dialogue.OutcomeFailed,
		Prompt: "Could you say that one more time?",
	}}
	r := newTestRouter(stub)

	w := postForm(t, r, "/voice/collect", url.Values{
		"CallSid":      {"CA-collect-4"},
		"From":         {"+15557770007"},
		"SpeechResult": {"anything at all"},
	})

	body := w.Body.String()
	if !strings.Contains(body, "<Gather") {
		t.Fatalf("failed turn should offer another gather: %q", body)
	}
	if strings.Contains(body, "<Hangup>") {
		t.Fatalf("failed turn must not hang up: %q", body)
	}
}

func TestCallStatus_TerminalStatusAccepted(t *testing.T) {
	stub := &stubDialogue{}
	r := newTestRouter(stub)

	w := postForm(t, r, "/voice/status", url.Values{
		"CallSid":    {"CA-status-1"},
		"CallStatus": {"completed"},
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestCallStatus_MissingCallSid(t *testing.T) {
	stub := &stubDialogue{}
	r := newTestRouter(stub)

	w := postForm(t, r, "/voice/status", url.Values{"CallStatus": {"completed"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
