package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/app"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/appointment"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/config"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/db"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/form"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/logging"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	docsDir := flag.String("docs", "", "directory of .txt, .md and .docx files to ingest")
	appointments := flag.Int("appointments", 0, "number of fake collected appointments to insert")
	flag.Parse()

	if *docsDir == "" && *appointments == 0 {
		log.Fatal("nothing to seed: pass -docs and/or -appointments")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	log.Println("seed starting")

	ctx := context.Background()

	if *docsDir != "" {
		if err := seedDocuments(ctx, cfg, *docsDir); err != nil {
			log.Fatalf("seed documents: %v", err)
		}
	}
	if *appointments > 0 {
		if err := seedAppointments(ctx, cfg, *appointments); err != nil {
			log.Fatalf("seed appointments: %v", err)
		}
	}

	log.Println("seed complete")
}

func seedDocuments(ctx context.Context, cfg config.Config, dir string) error {
	log.Printf("ingesting documents from %s into %s", dir, cfg.DocumentsDB)

	docs, store, err := app.OpenDocuments(cfg, logging.New("seed", cfg.Env))
	if err != nil {
		return err
	}
	defer store.Close()

	ingested, err := docs.IngestDir(ctx, dir)
	if err != nil {
		return err
	}

	chunks := 0
	for _, in := range ingested {
		chunks += in.Chunks
	}
	log.Printf("documents seeded: %d files, %d chunks", len(ingested), chunks)
	return nil
}

// seedAppointments inserts completed forms the way the assistant would, so
// the handoff worker has something to publish.
func seedAppointments(ctx context.Context, cfg config.Config, count int) error {
	if err := cfg.RequirePostgres(); err != nil {
		return err
	}
	log.Printf("seeding %d appointments", count)

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(connCtx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(connCtx, pool); err != nil {
		return err
	}

	gofakeit.Seed(time.Now().UnixNano())
	svc := appointment.NewService(appointment.NewPgRepository(pool), nil, logging.Discard())

	for i := 0; i < count; i++ {
		rec := fakeRecord(time.Now())
		if _, err := svc.RecordCompleted(ctx, "seed-"+gofakeit.UUID(), rec); err != nil {
			return err
		}
		if (i+1)%100 == 0 {
			log.Printf("appointments seeded: %d/%d", i+1, count)
		}
	}

	log.Println("appointments seeded")
	return nil
}

func fakeRecord(now time.Time) form.Record {
	date := now.AddDate(0, 0, gofakeit.Number(1, 30)).Format("2006-01-02")
	phone := fmt.Sprintf("(650) %d-%04d", gofakeit.Number(200, 999), gofakeit.Number(0, 9999))
	hour := gofakeit.Number(9, 16)

	name := gofakeit.FirstName() + " " + gofakeit.LastName()
	email := gofakeit.Email()
	at := fmt.Sprintf("%d:00", hour)
	purpose := "Discuss " + gofakeit.JobTitle() + " hiring"

	return form.Record{
		Name:            &name,
		Phone:           &phone,
		Email:           &email,
		AppointmentDate: &date,
		AppointmentTime: &at,
		Purpose:         &purpose,
	}
}
