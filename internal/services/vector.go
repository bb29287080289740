package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/config"
)

// VectorService maintains job embeddings in Qdrant and serves similarity
// lookups used to pre-rank jobs before the scoring model runs.
type VectorService interface {
	InitCollection() error
	UpsertJob(ctx context.Context, jobID int64, specialty string, environment string, text string, embedding []float32) error
	SearchJobs(ctx context.Context, queryEmbedding []float32, specialty string, environment string, limit int) ([]JobSearchResult, error)
	DeleteJob(ctx context.Context, jobID int64) error
}

type JobSearchResult struct {
	JobID     int64
	Score     float32
	Specialty string
}

type vectorService struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
	logger         *zap.Logger
}

func NewVectorService(cfg config.QdrantConfig, logger *zap.Logger) (VectorService, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port, not the HTTP one
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &vectorService{
		client:         client,
		collectionName: cfg.Collection,
		vectorSize:     uint64(cfg.VectorSize),
		logger:         logger,
	}, nil
}

// InitCollection implements VectorService.
func (v *vectorService) InitCollection() error {
	ctx := context.Background()

	exists, err := v.client.CollectionExists(ctx, v.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		v.logger.Debug("qdrant collection already exists", zap.String("collection", v.collectionName))
		return nil
	}

	err = v.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: v.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     v.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	v.logger.Info("qdrant collection created", zap.String("collection", v.collectionName))
	return nil
}

// UpsertJob implements VectorService.
func (v *vectorService) UpsertJob(ctx context.Context, jobID int64, specialty string, environment string, text string, embedding []float32) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(uint64(jobID)),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"job_id":      jobID,
			"specialty":   specialty,
			"environment": environment,
			"text":        text,
		}),
	}

	_, err := v.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: v.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// SearchJobs implements VectorService.
func (v *vectorService) SearchJobs(ctx context.Context, queryEmbedding []float32, specialty string, environment string, limit int) ([]JobSearchResult, error) {
	var conditions []*qdrant.Condition
	if specialty != "" {
		conditions = append(conditions, qdrant.NewMatch("specialty", specialty))
	}
	if environment != "" {
		conditions = append(conditions, qdrant.NewMatch("environment", environment))
	}

	var filter *qdrant.Filter
	if len(conditions) > 0 {
		filter = &qdrant.Filter{Must: conditions}
	}

	searchResult, err := v.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: v.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var results []JobSearchResult
	for _, point := range searchResult {
		payload := point.Payload

		result := JobSearchResult{
			Score: point.Score,
		}

		if jobID, ok := payload["job_id"]; ok {
			if val, ok := jobID.GetKind().(*qdrant.Value_IntegerValue); ok {
				result.JobID = val.IntegerValue
			}
		}

		if spec, ok := payload["specialty"]; ok {
			if val, ok := spec.GetKind().(*qdrant.Value_StringValue); ok {
				result.Specialty = val.StringValue
			}
		}

		results = append(results, result)
	}

	return results, nil
}

// DeleteJob implements VectorService.
func (v *vectorService) DeleteJob(ctx context.Context, jobID int64) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("job_id", strconv.FormatInt(jobID, 10)),
		},
	}

	_, err := v.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: v.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: filter,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete job vector: %w", err)
	}

	return nil
}
