// @title What to Watch API
// @version 1.0
// @description Backend API for group watch-picking sessions over a Plex library

// @securityDefinitions.apikey ParticipantToken
// @in header
// @name Authorization
package main

import (
	_ "github.com/netplexflix/what-to-watch/docs"

	"github.com/spf13/viper"

	"github.com/netplexflix/what-to-watch/api"
	"github.com/netplexflix/what-to-watch/logging"
)

func main() {
	logging.BootstrapLogger()

	// Load env
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logging.Log.Errorf("Failed to read config file: %v", err)
		panic("Failed to read config file: " + err.Error())
	}

	// Read config
	config := api.ReadConfig()

	// Start the service
	service := api.NewServer(config)
	service.Start()
}
