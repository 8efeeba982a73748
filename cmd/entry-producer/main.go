package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/fatih/color"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
	"github.com/dariogeorge21/prayer-collector/internal/kafka"
)

// parseUsers splits a comma-separated list of user IDs, dropping blanks
func parseUsers(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// randomSubmission builds a plausible day of activity. Every submission
// carries at least one activity so the server accepts it.
func randomSubmission(rng *rand.Rand, userID string, date domain.Date) domain.EntrySubmission {
	sub := domain.EntrySubmission{
		UserID:    userID,
		EntryDate: date,
		EntryInput: domain.EntryInput{
			RosaryCompleted:  rng.Intn(100) < 60,
			HolyMassAttended: rng.Intn(100) < 30,
		},
	}
	if rng.Intn(100) < 80 {
		sub.PrayerTimeMinutes = 5 * (rng.Intn(24) + 1)
	}
	if !sub.RosaryCompleted && !sub.HolyMassAttended && sub.PrayerTimeMinutes == 0 {
		sub.PrayerTimeMinutes = 10
	}
	return sub
}

// backfill returns one submission per user for each of the days before today
func backfill(rng *rand.Rand, users []string, today domain.Date, days int) []domain.EntrySubmission {
	subs := make([]domain.EntrySubmission, 0, len(users)*days)
	for d := days; d >= 1; d-- {
		date := today.AddDays(-d)
		for _, id := range users {
			if rng.Intn(100) < 75 {
				subs = append(subs, randomSubmission(rng, id, date))
			}
		}
	}
	return subs
}

func main() {
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "prayer-entries", "Kafka topic")
	usersFlag := flag.String("users", "", "User IDs to submit entries for (comma-separated)")
	days := flag.Int("backfill", 30, "Days of history to backfill before live updates")
	updatesPerSecond := flag.Int("rate", 5, "Live updates per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	backfillOnly := flag.Bool("backfill-only", false, "Only backfill history, no live updates")
	flag.Parse()

	users := parseUsers(*usersFlag)
	if len(users) == 0 {
		color.Red("at least one user ID is required (-users)")
		os.Exit(2)
	}
	if *updatesPerSecond <= 0 {
		*updatesPerSecond = 1
	}

	color.Cyan("Prayer entry producer")
	fmt.Printf("  Brokers:     %s\n", *brokers)
	fmt.Printf("  Topic:       %s\n", *topic)
	fmt.Printf("  Users:       %d\n", len(users))
	fmt.Printf("  Backfill:    %d days\n", *days)
	fmt.Printf("  Updates/sec: %d\n\n", *updatesPerSecond)

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(strings.Split(*brokers, ","), config)
	if err != nil {
		color.Red("failed to create producer: %v", err)
		os.Exit(1)
	}

	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			color.Red("producer error: %v", err)
		}
	}()

	done := make(chan struct{})
	send := func(sub domain.EntrySubmission) {
		msg, err := kafka.NewMessage(*topic, sub)
		if err != nil {
			color.Red("failed to encode submission: %v", err)
			return
		}
		select {
		case producer.Input() <- msg:
		case <-done:
		}
	}
	finish := func(reason string) {
		color.Yellow("\n%s", reason)
		close(done)
		producer.AsyncClose()
		wg.Wait()
		color.Green("Completed. Sent: %d, Errors: %d",
			atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	today := domain.DateOf(time.Now())

	history := backfill(rng, users, today, *days)
	for _, sub := range history {
		send(sub)
	}
	color.Green("Queued %d backfill entries", len(history))

	if *backfillOnly {
		finish("Backfill-only mode, exiting")
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(*updatesPerSecond))
	defer ticker.Stop()
	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	color.Cyan("Sending live updates for today, press Ctrl+C to stop")
	var updateCount int64
	for {
		select {
		case <-sigChan:
			finish("Shutting down...")
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				finish("Duration reached, shutting down...")
				return
			}
			id := users[rng.Intn(len(users))]
			send(randomSubmission(rng, id, domain.DateOf(time.Now())))
			updateCount++

		case <-statsTicker.C:
			fmt.Printf("[%s] Updates: %d | Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				updateCount,
				atomic.LoadInt64(&successCount),
				atomic.LoadInt64(&errorCount),
			)
		}
	}
}
