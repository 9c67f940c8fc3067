package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"vocab-progress-service/internal/app"
	"vocab-progress-service/internal/config"
	"vocab-progress-service/internal/domain"
	"vocab-progress-service/internal/infra/memory"
	"vocab-progress-service/internal/infra/postgres"
	redisstore "vocab-progress-service/internal/infra/redis"
	transport "vocab-progress-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the practice server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores is the storage wiring chosen from config.
type stores struct {
	words    app.VocabularyStore
	users    app.UserStore
	progress app.ProgressStore
	sessions app.SessionRepository
	close    func()
}

// openStores picks Postgres for durable data when configured, Redis for the
// word cache, sessions and (without Postgres) progress, and memory otherwise.
func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	s := stores{close: func() {}}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return s, err
		}
	}
	s.close = func() {
		if pool != nil {
			pool.Close()
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	var backing app.VocabularyStore
	if pool != nil {
		backing = postgres.NewWordStore(pool)
		s.users = postgres.NewUserStore(pool)
		s.progress = postgres.NewProgressStore(pool)
	} else {
		log.Printf("postgres not configured; using in-memory users and sample vocabulary")
		backing = memory.NewWordStore(sampleWords()...)
		s.users = memory.NewUserStore()
		if redisClient != nil {
			s.progress = redisstore.NewProgressStore(redisClient)
		} else {
			s.progress = memory.NewProgressStore()
		}
	}

	wordTTL := config.TTLDuration(cfg.Words.CacheTTL, 10*time.Minute)
	if redisClient != nil {
		s.words = redisstore.NewWordCache(redisClient, backing, wordTTL)
		s.sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	} else {
		s.words = memory.NewWordCache(backing, wordTTL)
		s.sessions = memory.NewSessionStore()
	}
	return s, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	feed := app.NewLeaderboardFeed()
	progress := app.NewProgressService(st.words, st.progress, st.users, st.sessions, app.Options{
		QuestionTimeout: config.TTLDuration(cfg.Practice.QuestionTimeout, 10*time.Second),
		Feed:            feed,
	})
	accounts := app.NewAccountService(st.users, st.progress, cfg.Accounts.AdminEmails)
	vocabulary := app.NewVocabularyService(st.words, st.users)

	wsHandler := transport.NewWSHandler(progress, feed)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /ws/practice", wsHandler.ServePractice)
	mux.HandleFunc("GET /ws/leaderboard", wsHandler.ServeLeaderboard)
	transport.NewAPIHandler(progress, accounts, vocabulary).Register(mux)

	origins := cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", transport.ActorHeader},
	}).Handler(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting practice service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleWords seeds the in-memory vocabulary when no database is configured.
func sampleWords() []domain.Word {
	pairs := map[int][][2]string{
		1: {{"apple", "quả táo"}, {"house", "ngôi nhà"}, {"water", "nước"}, {"book", "quyển sách"}, {"dog", "con chó"}, {"cat", "con mèo"}, {"tree", "cái cây"}, {"chair", "cái ghế"}, {"river", "dòng sông"}, {"bread", "bánh mì"}},
		2: {{"kitchen", "nhà bếp"}, {"weather", "thời tiết"}, {"journey", "hành trình"}, {"market", "chợ"}, {"island", "hòn đảo"}, {"ticket", "vé"}},
		3: {{"borrow", "mượn"}, {"decide", "quyết định"}, {"improve", "cải thiện"}, {"explain", "giải thích"}},
		4: {{"negotiate", "đàm phán"}, {"reluctant", "miễn cưỡng"}, {"thorough", "kỹ lưỡng"}, {"abundant", "dồi dào"}},
		5: {{"ubiquitous", "phổ biến khắp nơi"}, {"meticulous", "tỉ mỉ"}, {"ephemeral", "phù du"}, {"resilient", "kiên cường"}},
	}
	var words []domain.Word
	for rank := domain.MinRank; rank <= domain.MaxRank; rank++ {
		for i, p := range pairs[rank] {
			words = append(words, domain.Word{
				ID:         fmt.Sprintf("sample-%d-%02d", rank, i),
				Rank:       rank,
				SourceText: p[0],
				TargetText: p[1],
			})
		}
	}
	return words
}
