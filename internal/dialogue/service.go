// Package dialogue runs the scripted phone conversation: one webhook
// delivery in, one spoken prompt out, with the session state and the
// completed customer record persisted between turns.
package dialogue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lhawkeye71/ai-phone-agent/internal/ai"
	"github.com/lhawkeye71/ai-phone-agent/internal/events"
	"github.com/lhawkeye71/ai-phone-agent/internal/extract"
	"github.com/lhawkeye71/ai-phone-agent/internal/notify"
	"github.com/lhawkeye71/ai-phone-agent/internal/observability/metrics"
	"github.com/lhawkeye71/ai-phone-agent/internal/steak"
)

// Spoken lines used around the generated dialogue. They are heard, not
// read, so they stay short and plain.
const (
	Greeting = "Hi, thanks for calling the Hawkeye Grill hotline! I'd love to set up your personal steak guide. First off, what's your name?"

	retryPrompt = "I'm sorry, I'm having a little trouble on my end. Could you say that one more time?"
)

// systemPrompt pins the model to the three-slot script. The doneness options
// stay out of the prompt on purpose: the extractor owns the vocabulary, and
// reciting five choices over the phone is miserable to listen to.
const systemPrompt = `You are a warm, upbeat phone host for the Hawkeye Grill steak hotline.
Your only job is to learn three things about the caller, one question at a time:
their name, their favorite color, and how they like their steak cooked.
Keep every reply to one or two short spoken sentences. No lists, no emoji.
Acknowledge what the caller just told you before asking the next question.
Once you know all three, thank them and tell them a text message is on the way.`

// defaultContextWindow caps how much history each generation request sees.
// Extraction is not windowed; it always scans the full history.
const defaultContextWindow = 6

// OutcomeKind classifies the result of one dialogue turn.
type OutcomeKind string

const (
	OutcomeContinue OutcomeKind = "continue"
	OutcomeComplete OutcomeKind = "complete"
	OutcomeFailed   OutcomeKind = "failed"
)

// TurnOutcome is what the webhook layer turns into telephony markup.
type TurnOutcome struct {
	Kind   OutcomeKind
	Prompt string
	// Record is set only when Kind is OutcomeComplete.
	Record *CustomerRecord
}

// Notifier queues the follow-up message once a record is complete. Delivery
// failures are logged and swallowed; they never block or fail a call.
type Notifier interface {
	Send(ctx context.Context, to, body string) error
}

type noopNotifier struct{}

func (noopNotifier) Send(context.Context, string, string) error { return nil }

// Service is the dialogue turn controller.
type Service struct {
	store    *Store
	provider ai.Provider
	notifier Notifier
	events   *events.Publisher
	window   int
}

func NewService(store *Store, provider ai.Provider, notifier Notifier, ev *events.Publisher, window int) *Service {
	if window <= 0 {
		window = defaultContextWindow
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{
		store:    store,
		provider: provider,
		notifier: notifier,
		events:   ev,
		window:   window,
	}
}

// StartSession makes sure a session exists before the first gather result
// arrives. Safe to call again on webhook retries.
func (s *Service) StartSession(ctx context.Context, callID, callerAddress string) (*CallSession, error) {
	return s.store.GetOrCreate(ctx, callID, callerAddress)
}

// HandleTurn runs one request/response cycle of the dialogue. Downstream
// failures never escape: they come back as a Failed outcome carrying a
// spoken fallback, so the telephony layer can offer the caller another
// turn instead of dropping the call.
func (s *Service) HandleTurn(ctx context.Context, callID, callerAddress, utterance string) TurnOutcome {
	out, err := s.handleTurn(ctx, callID, callerAddress, utterance)
	if err != nil {
		log.Error().Err(err).Str("call_id", callID).Msg("dialogue turn failed")
		metrics.DefaultMetrics.RecordTurn(string(OutcomeFailed))
		return TurnOutcome{Kind: OutcomeFailed, Prompt: retryPrompt}
	}
	metrics.DefaultMetrics.RecordTurn(string(out.Kind))
	return out
}

func (s *Service) handleTurn(ctx context.Context, callID, callerAddress, utterance string) (TurnOutcome, error) {
	sess, err := s.store.GetOrCreate(ctx, callID, callerAddress)
	if err != nil {
		return TurnOutcome{}, err
	}

	// A webhook retried after completion must not repeat the side effects.
	if sess.Completed() {
		rec := sess.PartialRecord()
		return TurnOutcome{
			Kind:   OutcomeComplete,
			Prompt: closingPrompt(rec),
			Record: customerFromRecord(sess.CallerAddress, rec),
		}, nil
	}

	history := append(sess.History, Turn{Role: RoleUser, Content: utterance})

	reply, err := s.generate(ctx, history)
	if err != nil {
		// Nothing was persisted for this turn; the session is exactly as the
		// previous turn left it.
		return TurnOutcome{}, err
	}
	history = append(history, Turn{Role: RoleAssistant, Content: reply})

	// Extraction scans the whole retained history, not the generation
	// window, so a slot mentioned on turn one still counts on turn ten.
	rec := mergeRecord(sess.PartialRecord(), extract.Extract(historyText(history)))

	if !rec.Complete() {
		if err := s.store.Update(ctx, callID, history, rec, nil); err != nil {
			return TurnOutcome{}, err
		}
		s.publishTurn(ctx, callID, len(history), utterance, reply)
		return TurnOutcome{Kind: OutcomeContinue, Prompt: reply}, nil
	}

	// Completion order matters: the customer record lands first, then the
	// session is marked complete. If the upsert fails the session stays
	// incomplete and the next turn retries the whole commit.
	customer := customerFromRecord(sess.CallerAddress, rec)
	if err := s.store.UpsertCustomer(ctx, customer); err != nil {
		return TurnOutcome{}, err
	}
	now := time.Now().UTC()
	if err := s.store.Update(ctx, callID, history, rec, &now); err != nil {
		return TurnOutcome{}, err
	}

	s.notifyCompleted(ctx, customer)
	s.publishTurn(ctx, callID, len(history), utterance, reply)
	s.publishCompletion(ctx, callID, customer)
	metrics.DefaultMetrics.RecordCallCompleted()

	return TurnOutcome{Kind: OutcomeComplete, Prompt: closingPrompt(rec), Record: customer}, nil
}

// generate asks the provider for the next spoken line, feeding it the
// system prompt plus the most recent window of turns.
func (s *Service) generate(ctx context.Context, history History) (string, error) {
	msgs := make([]ai.Message, 0, s.window+1)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: systemPrompt})
	recent := history
	if len(recent) > s.window {
		recent = recent[len(recent)-s.window:]
	}
	for _, t := range recent {
		msgs = append(msgs, ai.Message{Role: string(t.Role), Content: t.Content})
	}

	start := time.Now()
	reply, err := s.provider.Chat(ctx, msgs)
	metrics.DefaultMetrics.ObserveGeneration(time.Since(start).Seconds(), err)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", ErrGenerationUnavailable)
	}
	return reply, nil
}

// notifyCompleted queues the follow-up message. The record is already
// durable at this point, so a failure here is logged and swallowed rather
// than bubbled up to the caller mid-goodbye.
func (s *Service) notifyCompleted(ctx context.Context, customer *CustomerRecord) {
	body := notify.RenderSteakGuide(customer.Name, customer.FavoriteColor, steak.Doneness(customer.SteakPreference))
	if err := s.notifier.Send(ctx, customer.CallerAddress, body); err != nil {
		log.Warn().
			Err(fmt.Errorf("%w: %v", ErrNotificationFailed, err)).
			Str("caller", customer.CallerAddress).
			Msg("follow-up message not queued")
		metrics.DefaultMetrics.RecordNotification("failed")
		return
	}
	metrics.DefaultMetrics.RecordNotification("queued")
}

func (s *Service) publishTurn(ctx context.Context, callID string, seq int, userText, assistantText string) {
	if s.events == nil {
		return
	}
	_ = s.events.PublishTurn(ctx, events.TurnEvent{
		CallID:        callID,
		Seq:           seq,
		UserText:      userText,
		AssistantText: assistantText,
		At:            time.Now().UTC(),
	})
}

func (s *Service) publishCompletion(ctx context.Context, callID string, customer *CustomerRecord) {
	if s.events == nil {
		return
	}
	_ = s.events.PublishCompletion(ctx, events.CompletionEvent{
		CallID:          callID,
		CallerAddress:   customer.CallerAddress,
		Name:            customer.Name,
		FavoriteColor:   customer.FavoriteColor,
		SteakPreference: customer.SteakPreference,
		At:              time.Now().UTC(),
	})
}

// historyText flattens every turn into the blob the extractor scans.
func historyText(history History) string {
	var b strings.Builder
	for i, t := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.Content)
	}
	return b.String()
}

func closingPrompt(rec extract.Record) string {
	return fmt.Sprintf("Perfect, thank you %s! I'm texting your %s steak guide to this number right now. Enjoy!", rec.Name, rec.Steak)
}

func customerFromRecord(callerAddress string, rec extract.Record) *CustomerRecord {
	return &CustomerRecord{
		CallerAddress:   callerAddress,
		Name:            rec.Name,
		FavoriteColor:   rec.FavoriteColor,
		SteakPreference: string(rec.Steak),
	}
}
