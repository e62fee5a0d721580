package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	httpapi "github.com/immxrtalbeast/axenix_chat/internal/api/http"
	"github.com/immxrtalbeast/axenix_chat/internal/auth"
	"github.com/immxrtalbeast/axenix_chat/internal/blob"
	"github.com/immxrtalbeast/axenix_chat/internal/config"
	"github.com/immxrtalbeast/axenix_chat/internal/realtime"
	"github.com/immxrtalbeast/axenix_chat/internal/repository"
	"github.com/immxrtalbeast/axenix_chat/internal/repository/model"
	"github.com/immxrtalbeast/axenix_chat/internal/service"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/sl"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/slogpretty"
	"github.com/immxrtalbeast/axenix_chat/lib/password"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)
	ctx := context.Background()

	shutdown := map[string]gfshutdown.Operation{}

	repos, err := setupRepositories(cfg.Database, shutdown)
	if err != nil {
		log.Error("failed to connect database", sl.Err(err))
		os.Exit(1)
	}

	feed, err := setupFeed(ctx, cfg.Redis, log, shutdown)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}

	blobs, err := setupBlobStore(ctx, cfg.Blob, shutdown)
	if err != nil {
		log.Error("failed to open blob store", sl.Err(err))
		os.Exit(1)
	}

	rooms := repository.NewNotifyingRoomRepository(repos.rooms, feed, log)
	messages := repository.NewNotifyingMessageRepository(repos.messages, feed, log)
	hasher := password.NewHasher()
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	directory := service.NewDirectory(rooms, repos.members, feed, hasher, log)
	if err := directory.Start(ctx); err != nil {
		log.Error("failed to load room catalog", sl.Err(err))
		os.Exit(1)
	}
	shutdown["directory"] = func(context.Context) error { return directory.Close() }

	access := service.NewAccessService(rooms, repos.members, hasher, log)
	posting, err := service.NewMessageService(messages, blobs, int(cfg.Blob.MaxUploadBytes), log)
	if err != nil {
		log.Error("failed to create message service", sl.Err(err))
		os.Exit(1)
	}
	lifecycle := service.NewLifecycleService(rooms, repos.members, messages, hasher, directory, log)
	users := service.NewUserService(repos.users, hasher, tokens, log)

	router := httpapi.SetupRouter(httpapi.Controllers{
		Rooms:    httpapi.NewRoomController(directory, access, lifecycle),
		Messages: httpapi.NewMessageController(access, posting, cfg.Blob.MaxUploadBytes),
		Stream:   httpapi.NewStreamController(access, posting, feed, log),
		Users:    httpapi.NewUserController(users),
		Blobs:    httpapi.NewBlobController(blobs),
		Sessions: auth.ContextProvider{},
	}, tokens, cfg.HTTP.AllowOrigins)
	router.MaxMultipartMemory = cfg.Blob.MaxUploadBytes

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	shutdown["http"] = srv.Shutdown

	go func() {
		log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", sl.Err(err))
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, cfg.HTTP.ShutdownTimeout, shutdown)
	exitCode := <-wait
	log.Info("application stopped", slog.Int("code", exitCode))
	os.Exit(exitCode)
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

type repositories struct {
	rooms    repository.RoomRepository
	members  repository.MembershipRepository
	messages repository.MessageRepository
	users    repository.UserRepository
}

func setupRepositories(cfg config.DatabaseConfig, shutdown map[string]gfshutdown.Operation) (*repositories, error) {
	if cfg.Driver == config.DriverMemory {
		return &repositories{
			rooms:    repository.NewInMemoryRoomRepository(),
			members:  repository.NewInMemoryMembershipRepository(),
			messages: repository.NewInMemoryMessageRepository(),
			users:    repository.NewInMemoryUserRepository(),
		}, nil
	}

	db, err := connectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	shutdown["database"] = func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return &repositories{
		rooms:    repository.NewPostgresRoomRepository(db),
		members:  repository.NewPostgresMembershipRepository(db),
		messages: repository.NewPostgresMessageRepository(db),
		users:    repository.NewPostgresUserRepository(db),
	}, nil
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func setupFeed(ctx context.Context, cfg config.RedisConfig, log *slog.Logger, shutdown map[string]gfshutdown.Operation) (realtime.Feed, error) {
	if cfg.Address == "" {
		log.Info("using in-process change feed")
		return realtime.NewMemoryFeed(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	shutdown["redis"] = func(context.Context) error { return client.Close() }

	return realtime.NewRedisFeed(client, log), nil
}

func setupBlobStore(ctx context.Context, cfg config.BlobConfig, shutdown map[string]gfshutdown.Operation) (blob.Store, error) {
	if cfg.Driver != config.DriverNATS {
		return blob.NewMemoryStore(cfg.PublicBaseURL), nil
	}

	store, err := blob.NewJetStreamStore(ctx, cfg.NATSURL, cfg.Bucket, cfg.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	shutdown["blob"] = func(context.Context) error {
		store.Close()
		return nil
	}
	return store, nil
}
