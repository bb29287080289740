package main

import (
	"context"
	"flag"
	"log"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/llm"
	"github.com/carematch/ai-services/internal/logger"
	"github.com/carematch/ai-services/internal/repositories"
	"github.com/carematch/ai-services/internal/services"
)

// Backfills the Qdrant job index from the job table. Run it once per
// environment after enabling vector pre-ranking, or to rebuild the
// collection from scratch.
func main() {
	env := flag.String("env", "", "environment to index (defaults to DEFAULT_ENVIRONMENT)")
	flag.Parse()

	cfg := config.Load()
	if *env == "" {
		*env = cfg.DefaultEnvironment
	}

	zlog, err := logger.New("index-jobs", cfg.Server.JSONLogs, cfg.Server.Debug)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	client, err := llm.New(cfg.LLM)
	if err != nil {
		log.Fatalf("failed to initialize LLM client: %v", err)
	}

	vectors, err := services.NewVectorService(cfg.Qdrant, zlog)
	if err != nil {
		log.Fatalf("failed to initialize vector service: %v", err)
	}
	if err := vectors.InitCollection(); err != nil {
		log.Fatalf("failed to initialize collection: %v", err)
	}

	dbs := config.NewDatabases(cfg)
	jobRepo := repositories.NewJobRepository(dbs)

	jobs, err := jobRepo.ListAll(*env)
	if err != nil {
		log.Fatalf("failed to list jobs: %v", err)
	}
	log.Printf("indexing %d jobs from %s", len(jobs), *env)

	ctx := context.Background()
	indexed := 0
	failed := 0

	for i := range jobs {
		job := &jobs[i]
		description := services.RenderJobDescription(job)

		embedding, err := client.Embed(ctx, description)
		if err != nil {
			log.Printf("job %d: failed to embed: %v", job.ID, err)
			failed++
			continue
		}

		specialty := ""
		if job.MedicalSpecialtyRosetta != nil {
			specialty = *job.MedicalSpecialtyRosetta
		}
		if err := vectors.UpsertJob(ctx, job.ID, specialty, *env, description, embedding); err != nil {
			log.Printf("job %d: failed to upsert: %v", job.ID, err)
			failed++
			continue
		}

		indexed++
		if indexed%50 == 0 {
			log.Printf("progress: %d/%d jobs indexed", indexed, len(jobs))
		}
	}

	log.Printf("done: %d indexed, %d failed", indexed, failed)
}
