package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/dating-platform/internal/config"
	"github.com/suPer8Hu/dating-platform/internal/db"
	"github.com/suPer8Hu/dating-platform/internal/logger"
	"github.com/suPer8Hu/dating-platform/internal/notify"
	"github.com/suPer8Hu/dating-platform/internal/store/rabbitmq"
	"github.com/suPer8Hu/dating-platform/internal/store/redisstore"
)

const (
	maxRetries   = 5
	retryBackoff = 2 * time.Second
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("db connect", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	claims := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer claims.Close()
	if err := claims.Ping(ctx); err != nil {
		log.Fatal("redis ping", "addr", cfg.RedisAddr, "error", err)
	}

	// separate connection for retry publishes so a blocked consumer channel can't stall them
	retry, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatal("rabbit publisher", "error", err)
	}
	defer retry.Close()

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal("rabbit dial", "error", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("rabbit channel", "error", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		log.Fatal("queue declare", "error", err)
	}

	concurrency := cfg.WorkerConcurrency
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal("qos", "error", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal("consume", "error", err)
	}

	handler := notify.NewHandler(gdb, claims, cfg.NotifyDedupeTTL, log)
	consumer := notify.NewConsumer(handler, retry, maxRetries, retryBackoff, log)

	log.Info("worker started", "queue", cfg.RabbitQueue, "concurrency", concurrency)

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			wlog := log.With("worker", workerID)
			for d := range jobs {
				outcome := process(ctx, consumer, d.Body, cfg.NotifyTimeout, wlog)

				var ackErr error
				switch outcome {
				case notify.Ack:
					ackErr = d.Ack(false)
				case notify.Dead:
					ackErr = d.Nack(false, false)
				case notify.Requeue:
					ackErr = d.Nack(false, true)
				}
				if ackErr != nil {
					wlog.Warn("ack failed", "outcome", outcome.String(), "error", ackErr)
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Error("delivery channel closed")
				close(jobs)
				wg.Wait()
				os.Exit(1)
			}
			jobs <- d
		}
	}
}

// process runs one delivery; a panic dead-letters the message instead of killing the pool.
func process(ctx context.Context, c *notify.Consumer, body []byte, timeout time.Duration, log *logger.Logger) (outcome notify.Outcome) {
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling delivery", "panic", r)
			outcome = notify.Dead
		}
	}()
	return c.Process(hctx, body)
}
