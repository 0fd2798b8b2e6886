package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/netplexflix/what-to-watch/api/controllers"
	"github.com/netplexflix/what-to-watch/api/transport"
	"github.com/netplexflix/what-to-watch/catalog"
	"github.com/netplexflix/what-to-watch/identity"
	"github.com/netplexflix/what-to-watch/logging"
	"github.com/netplexflix/what-to-watch/realtime"
	"github.com/netplexflix/what-to-watch/session"
	"github.com/netplexflix/what-to-watch/storage"
)

type Server struct {
	config *Config
}

func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

func (s *Server) Start() {
	mode := gin.ReleaseMode
	if os.Getenv("APP_ENV") == "local" {
		mode = gin.DebugMode
	}
	r := transport.NewRouter(mode)

	stores := s.buildStores()
	provider := s.buildCatalog()

	tokens := identity.NewTokens(s.config.AuthSecret, time.Duration(s.config.TokenTTLHours)*time.Hour)
	resolver := identity.NewPlexResolver()

	hub := realtime.NewHub()
	engine := session.NewEngine(stores, provider, hub, hub, session.Config{
		JoinCodeLength: s.config.JoinCodeLength,
		MaxRoundItems:  s.config.MaxRoundItems,
		LivenessGrace:  time.Duration(s.config.LivenessGraceSecond) * time.Second,
	})
	hub.SetDisconnectHandler(engine.HandleDisconnect)

	//Register controllers
	auth := transport.ParticipantAuthMiddleware(tokens)
	sessionController := controllers.NewSessionController(engine, resolver, tokens)
	sessionController.RegisterRoutes(r, auth)
	votingController := controllers.NewVotingController(engine)
	votingController.RegisterRoutes(r, auth)
	realtimeController := controllers.NewRealtimeController(hub, tokens)
	realtimeController.RegisterRoutes(r)

	serve(r, s.config.Port)
}

// buildStores wires the configured storage driver. Memory keeps everything
// in process and loses it on restart; dynamo needs the table names set.
func (s *Server) buildStores() session.Stores {
	if s.config.Driver != "dynamo" {
		logging.Log.Info("STORAGE: using the in-memory driver")
		return session.Stores{
			Sessions:     storage.NewMemorySessionStorage(),
			Participants: storage.NewMemoryParticipantStorage(),
			Votes:        storage.NewMemoryVoteStorage(),
			FinalVotes:   storage.NewMemoryFinalVoteStorage(),
			JoinCodes:    storage.NewMemoryJoinCodeStorage(),
		}
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logging.Log.Errorf("failed to load AWS config: %v", err)
		panic("failed to load AWS config")
	}

	dynamoClient := dynamodb.NewFromConfig(cfg)

	return session.Stores{
		Sessions: &storage.DynamoSessionStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameSessions,
		},
		Participants: &storage.DynamoParticipantStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameParticipants,
		},
		Votes: &storage.DynamoVoteStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameVotes,
		},
		FinalVotes: &storage.DynamoFinalVoteStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameFinalVotes,
		},
		JoinCodes: &storage.DynamoJoinCodeStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameJoinCodes,
		},
	}
}

// buildCatalog connects the Plex library, with an optional Redis cache in
// front of the listing queries.
func (s *Server) buildCatalog() catalog.Provider {
	client := catalog.NewClient(s.config.PlexBaseURL, s.config.PlexToken, s.config.MovieSectionID, s.config.ShowSectionID)

	var rdb *redis.Client
	if s.config.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: s.config.RedisAddr})
		logging.Log.Infof("CATALOG: caching listings in redis at %s", s.config.RedisAddr)
	}

	return catalog.NewCachedProvider(client, rdb, time.Duration(s.config.CacheTTLSeconds)*time.Second)
}

// serve runs the HTTP server until SIGINT/SIGTERM.
func serve(engine *gin.Engine, port int) {
	server := http.Server{
		Handler: engine,
		Addr:    fmt.Sprintf(":%d", port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Log.Errorf("shutdown did not finish cleanly: %v", err)
		}
	}()

	logging.Log.Info(fmt.Sprintf("Starting server on http://localhost:%d", port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logging.Log.Fatalf("Failed to run server: %v", err)
	}
}
