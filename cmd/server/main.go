package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"bramblemart/internal/app/store/config"
	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/handler"
	"bramblemart/internal/app/store/infrastructure"
	"bramblemart/internal/app/store/repository"
	"bramblemart/internal/app/store/service"
	"bramblemart/internal/app/store/util"
	"bramblemart/pkg/logger"
)

func main() {
	// === ИНИЦИАЛИЗАЦИЯ КОНФИГУРАЦИИ ===
	// Загружаем конфигурацию из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// === ИНИЦИАЛИЗАЦИЯ ЛОГГЕРА ===
	if cfg.Logging.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Logging.LogstashAddr, "bramblemart", cfg.Logging.Level); err != nil {
			log.Printf("Failed to connect to Logstash, falling back to stdout: %v", err)
			logger.Init("bramblemart", cfg.Logging.Level)
		}
	} else {
		logger.Init("bramblemart", cfg.Logging.Level)
	}

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL ===
	// pgx connection pool, поверх него GORM для репозиториев
	db, pool, err := connectDB(context.Background(), cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()
	log.Println("Successfully connected to PostgreSQL")

	// === МИГРАЦИИ ===
	if err := db.AutoMigrate(
		&entity.Category{},
		&entity.Product{},
		&entity.Rating{},
		&entity.Cart{},
		&entity.CartItem{},
		&entity.Order{},
		&entity.OrderItem{},
		&entity.User{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// === ПОДКЛЮЧЕНИЕ К MONGODB ===
	// MongoDB хранит комментарии к товарам
	mongoClient, err := connectMongo(context.Background(), cfg.MongoDB.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	log.Println("Successfully connected to MongoDB")

	// === ПОДКЛЮЧЕНИЕ К REDIS ===
	// Redis хранит refresh токены и кеш списка категорий
	redisClient, err := infrastructure.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Successfully connected to Redis")

	// === ИНИЦИАЛИЗАЦИЯ KAFKA PRODUCER ===
	// События PRODUCT_UPDATED, RATING_SUBMITTED и ORDER_CREATED уходят
	// в общий топик, на который подписан фоновый обработчик
	kafkaProducer := infrastructure.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	log.Println("Successfully initialized Kafka producer")

	// === ИНИЦИАЛИЗАЦИЯ СЛОЯ РЕПОЗИТОРИЕВ ===
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	commentRepo := repository.NewCommentRepository(mongoClient.Database(cfg.MongoDB.Database))
	tokenRepo := repository.NewRedisTokenRepository(redisClient.Client())

	// === ИНИЦИАЛИЗАЦИЯ БИЗНЕС-ЛОГИКИ ===
	jwtManager := util.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessDuration, cfg.JWT.RefreshDuration)

	catalogService := service.NewCatalogService(categoryRepo, productRepo, redisClient, kafkaProducer)
	cartService := service.NewCartService(cartRepo, productRepo)
	ratingService := service.NewRatingService(ratingRepo, productRepo, kafkaProducer)
	commentService := service.NewCommentService(commentRepo, ratingRepo, productRepo, userRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, kafkaProducer)
	authService := service.NewAuthService(userRepo, tokenRepo, jwtManager)
	userService := service.NewUserService(userRepo)

	// === ИНИЦИАЛИЗАЦИЯ HTTP HANDLERS ===
	authMiddleware := handler.NewAuthMiddleware(jwtManager)

	router := handler.SetupRoutes(handler.RouterConfig{
		AuthHandler:    handler.NewAuthHandler(authService),
		UserHandler:    handler.NewUserHandler(userService),
		CatalogHandler: handler.NewCatalogHandler(catalogService),
		CartHandler:    handler.NewCartHandler(cartService),
		ReviewHandler:  handler.NewReviewHandler(ratingService, commentService),
		OrderHandler:   handler.NewOrderHandler(orderService),
		AuthMiddleware: authMiddleware,
		AuthRateLimit:  cfg.Server.AuthRateLimit,
	})

	// === НАСТРОЙКА HTTP СЕРВЕРА ===
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second, // Таймаут чтения запроса
		WriteTimeout: 15 * time.Second, // Таймаут записи ответа
		IdleTimeout:  60 * time.Second, // Таймаут idle соединений
	}

	// === ЗАПУСК HTTP СЕРВЕРА ===
	go func() {
		log.Printf("Starting Bramblemart API on %s", cfg.Server.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down Bramblemart API...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Bramblemart API stopped gracefully")
}

// connectDB устанавливает соединение с PostgreSQL
// pgx pool дает контроль над соединениями, GORM работает поверх него
// Retry logic с 10 попытками для устойчивости при запуске в Docker
func connectDB(ctx context.Context, cfg config.PostgresConfig) (*gorm.DB, *pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// Пробуем подключиться с повторными попытками
	// При запуске в Docker PostgreSQL может быть еще не готов
	var pool *pgxpool.Pool
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		log.Printf("Failed to connect to database (attempt %d/10): %v", i+1, err)
		time.Sleep(3 * time.Second)
	}
	if err != nil {
		return nil, nil, err
	}

	sqlDB := stdlib.OpenDBFromPool(pool)

	// TranslateError нужен чтобы нарушения уникальных индексов
	// приходили как gorm.ErrDuplicatedKey
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	return db, pool, nil
}

// connectMongo устанавливает соединение с MongoDB с проверкой через ping
func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, err
	}

	return client, nil
}
