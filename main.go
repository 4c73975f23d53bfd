package main

import (
	"github.com/spf13/afero"
	"os"
	"vincit.fi/image-dataset/backend"
	"vincit.fi/image-dataset/backend/pipeline"
	"vincit.fi/image-dataset/common/logger"
	"vincit.fi/image-dataset/common/util"
	"vincit.fi/image-dataset/ui"
)

const eventBusQueueSize = 1000

func main() {
	params, err := util.ParseParams()
	if err != nil {
		logger.Error.Printf("Invalid parameters: %s", err)
		os.Exit(2)
	}
	logger.Initialize(logger.StringToLogLevel(params.GetLogLevel()))

	if err := run(params); err != nil {
		logger.Error.Printf("Dataset preparation failed: %+v", err)
		os.Exit(1)
	}
}

func run(params *util.Params) error {
	brokers := backend.InitializeEventBrokers(eventBusQueueSize)
	if params.GetShowProgress() {
		progressView := ui.NewProgressView(os.Stderr)
		if err := progressView.Subscribe(brokers.Broker); err != nil {
			logger.Warn.Printf("Progress is not shown: %s", err)
		}
		defer progressView.Close()
	}

	services, err := backend.InitializeServices(params, afero.NewOsFs(), brokers)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(params, services)
	if err != nil {
		return err
	}
	logger.Info.Printf("Wrote %d samples (%d train, %d validation, %d classes) to '%s' and '%s'",
		result.Samples, result.Train, result.Valid, len(result.Classes), result.FullArchive, result.SplitArchive)
	return nil
}
