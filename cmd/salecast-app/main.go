// Command salecast-app serves the prediction form for a trained
// pipeline artifact. It refuses to start without one; run
// salecast-train first.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/salecast/salecast/app"
	"github.com/salecast/salecast/automl"
	"github.com/salecast/salecast/pkg/config"
	"github.com/salecast/salecast/pkg/errors"
	"github.com/salecast/salecast/pkg/log"
)

var (
	configPath = flag.String("config", config.DefaultPath, "path to the YAML config file")
	logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
)

func main() {
	flag.Parse()
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "loaded environment from .env")
	}
	log.SetupLogger(*logLevel)
	logger := log.GetLoggerWithName("app")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", log.ErrAttr(err))
		os.Exit(1)
	}

	artifact := cfg.Model.ArtifactPath()
	pipe, err := automl.Load(artifact)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Error("model artifact not found; run salecast-train first",
				log.ArtifactKey, artifact,
			)
		} else {
			logger.Error("failed to load pipeline",
				log.ErrAttr(err),
				log.ArtifactKey, artifact,
			)
		}
		os.Exit(1)
	}
	logger.Info("pipeline loaded",
		log.RunIDKey, pipe.Meta.RunID,
		log.ModelNameKey, pipe.Meta.EstimatorName,
		log.TaskKey, pipe.Task.String(),
		"trained_at", pipe.Meta.TrainedAt,
	)

	server := app.NewServer(pipe, app.SalesSchema(), logger)
	if err := server.Run(cfg.Server.Addr); err != nil {
		logger.Error("server stopped", log.ErrAttr(err))
		os.Exit(1)
	}
}
