package main

import (
	"context"
	"log"
	"net"
	"os"
	"strconv"

	"legalrag/analysis"
	"legalrag/answer"
	"legalrag/cache"
	"legalrag/config"
	"legalrag/denseindex"
	"legalrag/embedding"
	"legalrag/handlers"
	"legalrag/rerank"
	"legalrag/retrieval"
	"legalrag/storage"
	"legalrag/store"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/option"
)

func main() {
	cfg := config.Load()

	db, err := initPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Postgres:", err)
	}
	defer db.Close()

	chunkStore := store.New(db)

	dense, err := initDenseIndex(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Qdrant:", err)
	}

	embeddingClient := embedding.NewHTTPClient(cfg.GeminiAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimension)
	resultCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)

	var reranker rerank.Reranker
	if cfg.RerankerEndpoint == "" {
		reranker = rerank.NoopReranker{}
		log.Println("Reranker disabled (RERANKER_ENDPOINT not set)")
	} else {
		reranker = rerank.NewHTTPReranker(cfg.RerankerEndpoint, cfg.QueryCacheSize)
	}

	temporal := analysis.NewTemporalReasoner(legacyMappingPath())
	analyzer := analysis.NewQueryAnalyzer(temporal)
	engine := retrieval.New(chunkStore, dense, reranker, cfg)
	assembler := answer.NewAssembler(cfg.MaxContextTokens, cfg.ResponseReserveRatio)
	verifier := answer.NewVerifier()

	artifactStorage, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	geminiClient, err := initGemini(cfg)
	if err != nil {
		log.Printf("Warning: Gemini client unavailable, drafting/summarization modes disabled: %v", err)
	}
	generator := answer.NewGenerator(geminiClient, cfg.GeminiAPIKey)

	queryHandler := handlers.NewQueryHandler(analyzer, temporal, embeddingClient, engine, resultCache, cfg)
	answerHandler := handlers.NewAnswerHandler(queryHandler, assembler, verifier, generator, artifactStorage)

	r := gin.Default()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/query", queryHandler.HandleQuery)
		api.POST("/answer", answerHandler.HandleAnswer)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func legacyMappingPath() string {
	if p := os.Getenv("LEGACY_MAPPING_PATH"); p != "" {
		return p
	}
	return "data/bns_legacy_mapping.json"
}

func initPostgres(cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}
	ctx := context.Background()
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
	}
	log.Println("Postgres connection established with pgvector support")
	return pool, nil
}

func initGemini(cfg *config.Config) (*genai.Client, error) {
	if cfg.GeminiAPIKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}
	log.Println("Gemini client initialized")
	return client, nil
}

func initDenseIndex(cfg *config.Config) (*denseindex.Index, error) {
	host, portStr, err := net.SplitHostPort(cfg.QdrantAddr)
	if err != nil {
		host, portStr = cfg.QdrantAddr, "6334"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 6334
	}
	idx, err := denseindex.New(denseindex.Config{
		Host:               host,
		Port:               port,
		EmbeddingDimension: cfg.EmbeddingDimension,
		InitializeSchema:   true,
	})
	if err != nil {
		return nil, err
	}
	log.Println("Qdrant dense index initialized")
	return idx, nil
}
