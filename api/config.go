package api

import (
	"sync"

	"github.com/spf13/viper"

	"github.com/netplexflix/what-to-watch/logging"
)

type Config struct {
	StorageConfig
	ServerConfig
	CatalogConfig
	SessionConfig
}

type StorageConfig struct {
	// Driver selects the backing store: "memory" or "dynamo".
	Driver                string
	TableNameSessions     string
	TableNameParticipants string
	TableNameVotes        string
	TableNameFinalVotes   string
	TableNameJoinCodes    string
}

type ServerConfig struct {
	Port          int
	AuthSecret    string
	TokenTTLHours int
}

type CatalogConfig struct {
	PlexBaseURL     string
	PlexToken       string
	MovieSectionID  string
	ShowSectionID   string
	RedisAddr       string
	CacheTTLSeconds int
}

type SessionConfig struct {
	JoinCodeLength      int
	MaxRoundItems       int
	LivenessGraceSecond int
}

var settingsOnce sync.Once

func ReadConfig() *Config {

	var conf = &Config{
		StorageConfig: StorageConfig{
			Driver:                getStringOrDefault("storage.Driver", "memory"),
			TableNameSessions:     viper.GetString("storage.TableNameSessions"),
			TableNameParticipants: viper.GetString("storage.TableNameParticipants"),
			TableNameVotes:        viper.GetString("storage.TableNameVotes"),
			TableNameFinalVotes:   viper.GetString("storage.TableNameFinalVotes"),
			TableNameJoinCodes:    viper.GetString("storage.TableNameJoinCodes"),
		},
		ServerConfig: ServerConfig{
			Port:          getIntOrDefault("server.port", 8080),
			AuthSecret:    getString("server.authSecret"),
			TokenTTLHours: getIntOrDefault("server.tokenTTLHours", 24),
		},
		CatalogConfig: CatalogConfig{
			PlexBaseURL:     viper.GetString("catalog.plexBaseURL"),
			PlexToken:       viper.GetString("catalog.plexToken"),
			MovieSectionID:  viper.GetString("catalog.movieSectionID"),
			ShowSectionID:   viper.GetString("catalog.showSectionID"),
			RedisAddr:       viper.GetString("catalog.redisAddr"),
			CacheTTLSeconds: getIntOrDefault("catalog.cacheTTLSeconds", 300),
		},
		SessionConfig: SessionConfig{
			JoinCodeLength:      getIntOrDefault("session.joinCodeLength", 6),
			MaxRoundItems:       getIntOrDefault("session.maxRoundItems", 3),
			LivenessGraceSecond: getIntOrDefault("session.livenessGraceSeconds", 30),
		},
	}

	settingsOnce.Do(func() {
		logging.Log.Print("Reading settings!")
	})

	return conf
}

func getString(name string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Fatalf("required environment variable '%s' is missing", name)
	return ""
}

func getIntOrDefault(name string, def int) int {
	if viper.IsSet(name) {
		v := viper.GetInt(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getStringOrDefault(name string, def string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}
