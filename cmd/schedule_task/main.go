package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"careerlaunch_api/internal/config"
	"careerlaunch_api/internal/services"
	"careerlaunch_api/internal/tasks"
)

// Enqueues the recurring stale-payment expiry task. Run once per
// environment; the worker picks it up on its next tick.
func main() {
	rule := flag.String("rrule", "FREQ=DAILY", "recurrence rule for the expiry task")
	staleAfter := flag.Int("stale-after-hours", 24, "age in hours after which a pending record is marked failed")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	task, err := tasks.ExpireStalePaymentsTask.CreateRecurringTask(*rule, tasks.ExpireStalePaymentsArgs{
		StaleAfterHours: *staleAfter,
	})
	if err != nil {
		log.Fatalf("Failed to build task: %v", err)
	}

	if err := db.Create(task).Error; err != nil {
		log.Fatalf("Failed to enqueue task: %v", err)
	}

	log.Printf("Scheduled %s (ID: %d, rule %s)", task.TaskName, task.ID, *rule)
}
