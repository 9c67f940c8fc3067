package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"vocab-progress-service/internal/app"
	"vocab-progress-service/internal/domain"
	"vocab-progress-service/internal/infra/postgres"
	pgmigrations "vocab-progress-service/internal/infra/postgres/migrations"
	infraredis "vocab-progress-service/internal/infra/redis"
)

func TestPracticeSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL := startPostgres(t, ctx)
	redisClient := startRedis(t, ctx)

	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	users := postgres.NewUserStore(pool)
	progress := postgres.NewProgressStore(pool)
	wordStore := postgres.NewWordStore(pool)
	words := infraredis.NewWordCache(redisClient, wordStore, 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)

	accounts := app.NewAccountService(users, progress, nil)
	vocabulary := app.NewVocabularyService(words, users)
	service := app.NewProgressService(words, progress, users, sessions, app.Options{})

	alice, err := accounts.SignUp(ctx, app.SignUpRequest{Email: "alice@example.com", Password: "secret123", DisplayName: "Alice"})
	if err != nil {
		t.Fatalf("sign up alice: %v", err)
	}
	bob, err := accounts.SignUp(ctx, app.SignUpRequest{Email: "bob@example.com", Password: "secret123", DisplayName: "Bob"})
	if err != nil {
		t.Fatalf("sign up bob: %v", err)
	}
	if _, err := accounts.Login(ctx, "bob@example.com", "secret123"); err != nil {
		t.Fatalf("login: %v", err)
	}

	imported, err := vocabulary.ImportWords(ctx, sampleWords(1, 12))
	if err != nil {
		t.Fatalf("import words: %v", err)
	}
	if imported.Created != 12 {
		t.Fatalf("expected 12 words imported, got %+v", imported)
	}

	padded := []domain.Word{
		{ID: "pad-tab", Rank: 2, SourceText: "\tcrane\n", TargetText: "con sếu"},
		{ID: "pad-space", Rank: 2, SourceText: "  plant ", TargetText: "cây"},
		{ID: "too-long", Rank: 2, SourceText: "\tplanet", TargetText: "hành tinh"},
	}
	for _, w := range padded {
		if err := wordStore.CreateWord(ctx, w); err != nil {
			t.Fatalf("create word %s: %v", w.ID, err)
		}
	}
	five, err := wordStore.FiveLetterWords(ctx)
	if err != nil {
		t.Fatalf("five letter words: %v", err)
	}
	fiveIDs := map[string]bool{}
	for _, w := range five {
		fiveIDs[w.ID] = true
	}
	if !fiveIDs["pad-tab"] || !fiveIDs["pad-space"] || fiveIDs["too-long"] {
		t.Fatalf("whitespace-padded words filtered incorrectly: %+v", five)
	}

	if _, err := service.StartSession(ctx, bob.ID, 1); !errors.Is(err, domain.ErrReviewRequired) {
		t.Fatalf("expected review required, got %v", err)
	}
	if err := service.MarkReviewed(ctx, bob.ID, 1); err != nil {
		t.Fatalf("mark reviewed: %v", err)
	}

	info, err := service.StartSession(ctx, bob.ID, 1)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if n, err := redisClient.Exists(ctx, "practice:session:"+info.ID).Result(); err != nil || n != 1 {
		t.Fatalf("expected session liveness key, got n=%d err=%v", n, err)
	}
	for i := 0; i < info.QuestionCount; i++ {
		q, err := service.CurrentQuestion(ctx, info.ID)
		if err != nil {
			t.Fatalf("current question: %v", err)
		}
		if _, err := service.SubmitAnswer(ctx, info.ID, q.WordID); err != nil {
			t.Fatalf("submit answer: %v", err)
		}
	}
	result, err := service.EndSession(ctx, info.ID)
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	if result.Score != 100 || !result.Passed || result.PracticeCount != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	snap, err := service.Progress(ctx, bob.ID, 1)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if snap.Stats.TotalScore != 100 || snap.Progress.PracticeCount != 1 || !snap.Progress.HasReviewedWords {
		t.Fatalf("progress not persisted: %+v", snap)
	}

	lb, err := service.Leaderboard(ctx, alice.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if lb.TotalCount != 2 || lb.Top[0].UserID != bob.ID || lb.Self == nil || lb.Self.Position != 2 {
		t.Fatalf("expected bob leading and alice second, got %+v", lb)
	}
}

// startContainer runs req and returns the host:port mapped to port, or skips
// the test when Docker is unreachable.
func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest, port string) string {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("%s host: %v", req.Image, err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("%s port: %v", req.Image, err)
	}
	return net.JoinHostPort(host, mapped.Port())
}

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	addr := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "vocab", "POSTGRES_PASSWORD": "vocabpass", "POSTGRES_DB": "vocabdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}, "5432/tcp")
	return fmt.Sprintf("postgres://vocab:vocabpass@%s/vocabdb?sslmode=disable", addr)
}

func startRedis(t *testing.T, ctx context.Context) *goredis.Client {
	t.Helper()
	addr := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}, "6379/tcp")
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func sampleWords(rank, n int) []domain.Word {
	words := make([]domain.Word, 0, n)
	for i := 0; i < n; i++ {
		words = append(words, domain.Word{
			Rank:       rank,
			SourceText: fmt.Sprintf("word-%d-%d", rank, i),
			TargetText: fmt.Sprintf("từ-%d-%d", rank, i),
		})
	}
	return words
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
