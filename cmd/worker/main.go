// The worker drains the notification queue and delivers each follow-up
// text through the SMS gateway. Failed deliveries are nacked without
// requeue, which routes them to the DLQ per the queue topology.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/lhawkeye71/ai-phone-agent/internal/config"
	"github.com/lhawkeye71/ai-phone-agent/internal/notify"
	"github.com/lhawkeye71/ai-phone-agent/internal/observability/logging"
)

type deliveryMsg struct {
	MessageID string `json:"message_id"`
	To        string `json:"to"`
	Body      string `json:"body"`
}

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	sender := notify.NewSMSClient(cfg.SMSBaseURL, cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSFrom)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit dial")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit channel")
	}
	defer ch.Close()

	// Declarations must match the publisher's exactly or the broker rejects
	// the channel with a precondition failure.
	dlq := cfg.RabbitQueue + ".dlq"
	_, err = ch.QueueDeclare(dlq, true, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("dlq declare")
	}
	_, err = ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlq,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("queue declare")
	}

	concurrency := workerConcurrency()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal().Err(err).Msg("qos")
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wlog := logging.WithComponent("delivery")
	wlog.Info().Str("queue", cfg.RabbitQueue).Int("concurrency", concurrency).Msg("delivery worker started")

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m deliveryMsg
				if err := json.Unmarshal(d.Body, &m); err != nil || m.To == "" {
					wlog.Error().Int("worker", workerID).Err(err).Msg("bad message")
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := deliver(ctx, sender, m); err != nil {
					wlog.Error().
						Int("worker", workerID).
						Str("message_id", m.MessageID).
						Dur("cost", time.Since(start)).
						Err(err).
						Msg("delivery failed")
					_ = d.Nack(false, false)
					continue
				}

				wlog.Info().
					Int("worker", workerID).
					Str("message_id", m.MessageID).
					Dur("cost", time.Since(start)).
					Msg("delivered")

				if err := d.Ack(false); err != nil {
					wlog.Error().Int("worker", workerID).Str("message_id", m.MessageID).Err(err).Msg("ack failed")
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			wlog.Info().Msg("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				wlog.Warn().Msg("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

func deliver(ctx context.Context, sender *notify.SMSClient, m deliveryMsg) error {
	sctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	return sender.Send(sctx, m.To, m.Body)
}
