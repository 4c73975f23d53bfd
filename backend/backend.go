package backend

import (
	"github.com/spf13/afero"
	"vincit.fi/image-dataset/api"
	"vincit.fi/image-dataset/backend/batch"
	"vincit.fi/image-dataset/backend/normalize"
	"vincit.fi/image-dataset/common/event"
	"vincit.fi/image-dataset/common/imagereader"
	"vincit.fi/image-dataset/common/logger"
	"vincit.fi/image-dataset/common/util"
)

type Brokers struct {
	Broker *event.Broker
}

func InitializeEventBrokers(eventBusQueueSize int) *Brokers {
	logger.Debug.Printf("Initialize event brokers...")
	brokers := &Brokers{
		Broker: event.InitBus(eventBusQueueSize),
	}
	logger.Debug.Printf("Event brokers initialized")
	return brokers
}

type Services struct {
	Fs               afero.Fs
	ImageLoader      api.ImageLoader
	Normalizer       *normalize.Normalizer
	Processor        *batch.Processor
	ProgressReporter api.ProgressReporter
}

// InitializeServices builds the image processing services. Progress is published to the
// broker when one is given.
func InitializeServices(params *util.Params, fs afero.Fs, brokers *Brokers) (*Services, error) {
	logger.Debug.Printf("Initialize services...")
	resampler, err := normalize.ResamplerByName(params.GetResampler())
	if err != nil {
		return nil, err
	}
	cropMode, err := normalize.ParseCropMode(params.GetCropMode())
	if err != nil {
		return nil, err
	}
	normalizer, err := normalize.NewNormalizer(params.GetResizeSize(), params.GetCropSize(), resampler, cropMode)
	if err != nil {
		return nil, err
	}

	var progressReporter api.ProgressReporter = api.NoopProgressReporter{}
	if brokers != nil && brokers.Broker != nil {
		progressReporter = api.NewSenderProgressReporter(brokers.Broker)
	}
	imageLoader := imagereader.NewLoader(fs, params.GetExifCorrection())

	services := &Services{
		Fs:               fs,
		ImageLoader:      imageLoader,
		Normalizer:       normalizer,
		Processor:        batch.NewProcessor(imageLoader, normalizer, progressReporter, params.GetWorkers()),
		ProgressReporter: progressReporter,
	}
	logger.Debug.Printf("Services initialized: decoder %s, resampler %s, crop mode %s, output %s",
		imagereader.DecoderName(), resampler.Name(), cropMode, normalizer.OutputSize())
	return services, nil
}
