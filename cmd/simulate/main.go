package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type SimConfig struct {
	APIBaseURL    string        `env:"SIM_API_BASE_URL" envDefault:"http://localhost:8080"`
	Duration      time.Duration `env:"SIM_DURATION" envDefault:"30s"`
	Workers       int           `env:"SIM_WORKERS" envDefault:"10"`
	BookingRatio  float64       `env:"SIM_BOOKING_RATIO" envDefault:"0.6"`
	QuestionRatio float64       `env:"SIM_QUESTION_RATIO" envDefault:"0.2"`
	ReadRatio     float64       `env:"SIM_READ_RATIO" envDefault:"0.2"`
}

// conversationPool remembers conversations that finished a booking so the
// read operations have something to look up.
type conversationPool struct {
	mu  sync.RWMutex
	ids []string
}

func (p *conversationPool) Add(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, id)
}

func (p *conversationPool) Random(rng *rand.Rand) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.ids) == 0 {
		return "", false
	}
	return p.ids[rng.Intn(len(p.ids))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Booking      OperationMetrics // full conversation, start to summary
	Message      OperationMetrics // single message round trip
	Question     OperationMetrics
	FormStatus   OperationMetrics
	Appointments OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *conversationPool
	client  *http.Client
	metrics Metrics
}

var questions = []string{
	"What are your opening hours?",
	"Do you offer consultations on weekends?",
	"How much does a first meeting cost?",
	"Where is your office located?",
}

var dates = []string{"tomorrow", "next monday", "next friday", "in 3 days", "in 2 weeks"}

var times = []string{"9:00 AM", "10:30 AM", "2:00 PM", "15:45", "11am"}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d booking=%.2f question=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.BookingRatio, cfg.QuestionRatio, cfg.ReadRatio)

	sim := &Simulator{
		config: cfg,
		pool:   &conversationPool{},
		client: &http.Client{Timeout: 90 * time.Second},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() (SimConfig, error) {
	_ = godotenv.Load()

	var cfg SimConfig
	if err := env.Parse(&cfg); err != nil {
		return SimConfig{}, err
	}
	if cfg.Workers <= 0 {
		return SimConfig{}, fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return SimConfig{}, fmt.Errorf("SIM_DURATION must be > 0")
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.QuestionRatio + cfg.ReadRatio
	if total <= 0 {
		return SimConfig{}, fmt.Errorf("at least one SIM_*_RATIO must be positive")
	}
	cfg.BookingRatio /= total
	cfg.QuestionRatio /= total
	cfg.ReadRatio /= total

	return cfg, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for ctx.Err() == nil {
		r := rng.Float64()
		switch {
		case r < s.config.BookingRatio:
			s.doBooking(ctx, rng)
		case r < s.config.BookingRatio+s.config.QuestionRatio:
			s.doQuestion(ctx, rng)
		default:
			if rng.Intn(2) == 0 {
				s.doFormStatus(ctx, rng)
			} else {
				s.doListAppointments(ctx, rng)
			}
		}
	}
}

// doBooking walks one conversation from the booking request to the summary.
func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	start := time.Now()

	id, ok := s.createConversation(ctx)
	if !ok {
		s.metrics.Booking.Record(time.Since(start), false, false)
		return
	}

	answers := []string{
		"I'd like to book appointment please",
		gofakeit.FirstName() + " " + gofakeit.LastName(),
		fmt.Sprintf("(650) %d-%04d", 200+rng.Intn(800), rng.Intn(10000)),
		gofakeit.Email(),
		dates[rng.Intn(len(dates))],
		times[rng.Intn(len(times))],
		"Discuss " + strings.ToLower(gofakeit.JobTitle()) + " hiring",
	}

	var reply string
	for _, answer := range answers {
		var conflict bool
		reply, conflict, ok = s.sendMessage(ctx, id, answer)
		if !ok {
			s.metrics.Booking.Record(time.Since(start), false, conflict)
			return
		}
	}

	success := strings.Contains(reply, "appointment summary")
	if success {
		s.pool.Add(id)
	}
	s.metrics.Booking.Record(time.Since(start), success, false)
}

func (s *Simulator) doQuestion(ctx context.Context, rng *rand.Rand) {
	id, ok := s.createConversation(ctx)
	if !ok {
		return
	}

	start := time.Now()
	_, conflict, ok := s.sendMessage(ctx, id, questions[rng.Intn(len(questions))])
	s.metrics.Question.Record(time.Since(start), ok, conflict)
}

func (s *Simulator) doFormStatus(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.Random(rng)
	if !ok {
		return
	}
	start := time.Now()
	ok = s.get(ctx, fmt.Sprintf("/conversations/%s/form", id))
	s.metrics.FormStatus.Record(time.Since(start), ok, false)
}

func (s *Simulator) doListAppointments(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.Random(rng)
	if !ok {
		return
	}
	start := time.Now()
	ok = s.get(ctx, fmt.Sprintf("/conversations/%s/appointments", id))
	s.metrics.Appointments.Record(time.Since(start), ok, false)
}

func (s *Simulator) createConversation(ctx context.Context) (string, bool) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/conversations", nil)
	resp, err := s.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", false
	}

	var created struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil || created.ConversationID == "" {
		return "", false
	}
	return created.ConversationID, true
}

// sendMessage reports the reply, whether the conversation was busy, and
// whether the call succeeded.
func (s *Simulator) sendMessage(ctx context.Context, id, text string) (string, bool, bool) {
	body, _ := json.Marshal(map[string]string{"message": text})

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/conversations/%s/messages", s.config.APIBaseURL, id), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.Message.Record(time.Since(start), false, false)
		return "", false, false
	}
	defer resp.Body.Close()

	conflict := resp.StatusCode == http.StatusConflict
	if resp.StatusCode != http.StatusOK {
		s.metrics.Message.Record(time.Since(start), false, conflict)
		return "", conflict, false
	}

	var out struct {
		Reply string `json:"reply"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		s.metrics.Message.Record(time.Since(start), false, false)
		return "", false, false
	}
	s.metrics.Message.Record(time.Since(start), true, false)
	return out.Reply, false, true
}

func (s *Simulator) get(ctx context.Context, path string) bool {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+path, nil)
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking conversation", &s.metrics.Booking)
	printOperationReport("Message", &s.metrics.Message)
	printOperationReport("Question", &s.metrics.Question)
	printOperationReport("Form status", &s.metrics.FormStatus)
	printOperationReport("List appointments", &s.metrics.Appointments)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Busy: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}
