package batch

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
	"vincit.fi/image-dataset/api"
	"vincit.fi/image-dataset/api/apitype"
	"vincit.fi/image-dataset/backend/normalize"
	"vincit.fi/image-dataset/common/logger"
)

const progressName = "Processing images"

type Processor struct {
	imageLoader api.ImageLoader
	normalizer  *normalize.Normalizer
	reporter    api.ProgressReporter
	workerCount int
}

func NewProcessor(imageLoader api.ImageLoader, normalizer *normalize.Normalizer, reporter api.ProgressReporter, workerCount int) *Processor {
	if workerCount < 1 {
		workerCount = 1
	}
	if reporter == nil {
		reporter = api.NoopProgressReporter{}
	}
	return &Processor{
		imageLoader: imageLoader,
		normalizer:  normalizer,
		reporter:    reporter,
		workerCount: workerCount,
	}
}

// ProcessImages decodes and normalizes every path and stacks the results in input order.
// The first failure aborts the whole batch.
func (s *Processor) ProcessImages(paths []string) (*apitype.ImageBatch, error) {
	startTime := time.Now()
	outputSize := s.normalizer.OutputSize()
	total := len(paths)
	logger.Info.Printf("Process %d images to %s using %d workers...", total, outputSize, s.workerCount)

	var batch *apitype.ImageBatch
	var err error
	if s.workerCount == 1 || total < 2 {
		batch, err = s.processSequentially(paths, outputSize)
	} else {
		batch, err = s.processInParallel(paths, outputSize)
	}
	if err != nil {
		s.reporter.Error("Error while processing images", err)
		return nil, err
	}

	logger.Info.Printf("%d images processed in %s", total, time.Since(startTime))
	return batch, nil
}

func (s *Processor) processSequentially(paths []string, outputSize apitype.Size) (*apitype.ImageBatch, error) {
	batch := apitype.NewImageBatch(outputSize, len(paths))
	for i, path := range paths {
		normalized, err := s.processImage(path)
		if err != nil {
			return nil, err
		}
		if err := batch.Append(path, normalized); err != nil {
			return nil, err
		}
		s.reporter.Update(progressName, i+1, len(paths))
	}
	return batch, nil
}

type processResult struct {
	image *apitype.Image
	err   error
}

// processInParallel keeps the output order by giving each worker its own result slot.
// After a failure the remaining paths are skipped and the failure with the lowest index
// among those found is returned.
func (s *Processor) processInParallel(paths []string, outputSize apitype.Size) (*apitype.ImageBatch, error) {
	results := make([]processResult, len(paths))
	inputChannel := make(chan int, len(paths))
	for i := range paths {
		inputChannel <- i
	}
	close(inputChannel)

	var failed atomic.Bool
	var processed atomic.Int64
	var mux sync.Mutex
	var wg sync.WaitGroup
	for w := 0; w < s.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range inputChannel {
				if failed.Load() {
					continue
				}
				normalized, err := s.processImage(paths[i])
				results[i] = processResult{image: normalized, err: err}
				if err != nil {
					failed.Store(true)
					continue
				}

				mux.Lock()
				s.reporter.Update(progressName, int(processed.Add(1)), len(paths))
				mux.Unlock()
			}
		}()
	}
	wg.Wait()

	batch := apitype.NewImageBatch(outputSize, len(paths))
	for i, result := range results {
		if result.err != nil {
			return nil, result.err
		}
		if result.image == nil {
			// Skipped after an earlier failure, which is reported at its own index.
			continue
		}
		if err := batch.Append(paths[i], result.image); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

func (s *Processor) processImage(path string) (*apitype.Image, error) {
	startTime := time.Now()
	decoded, err := s.imageLoader.LoadImage(path)
	if err != nil {
		logger.Error.Printf("Could not load image '%s'", path)
		var decodeErr *apitype.DecodeError
		if !errors.As(err, &decodeErr) {
			err = &apitype.DecodeError{Path: path, Err: err}
		}
		return nil, err
	}
	normalized := s.normalizer.Normalize(apitype.ImageFromGo(decoded))
	logger.Trace.Printf("'%s': Processed in %s", path, time.Since(startTime))
	return normalized, nil
}
