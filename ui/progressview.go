package ui

import (
	"github.com/schollz/progressbar/v3"
	"io"
	"sync"
	"vincit.fi/image-dataset/api"
	"vincit.fi/image-dataset/common/event"
	"vincit.fi/image-dataset/common/logger"
)

// ProgressView renders progress events as a terminal progress bar. A new bar is started
// whenever the name of the reported process changes.
type ProgressView struct {
	writer  io.Writer
	broker  *event.Broker
	handler func(command *api.UpdateProgressCommand)

	mux         sync.Mutex
	progressbar *progressbar.ProgressBar
	name        string
}

func NewProgressView(writer io.Writer) *ProgressView {
	return &ProgressView{
		writer: writer,
	}
}

func (v *ProgressView) Subscribe(broker *event.Broker) error {
	v.broker = broker
	v.handler = v.updateProgress
	return broker.Subscribe(api.ProcessStatusUpdated, v.handler)
}

func (v *ProgressView) updateProgress(command *api.UpdateProgressCommand) {
	v.SetStatus(command.Name, command.Current, command.Total)
}

func (v *ProgressView) SetStatus(name string, status int, total int) {
	v.mux.Lock()
	defer v.mux.Unlock()

	if v.progressbar == nil || v.name != name {
		v.finish()
		v.name = name
		v.progressbar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(v.writer),
			progressbar.OptionSetDescription(name),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionSetPredictTime(true),
		)
	}
	if err := v.progressbar.Set(status); err != nil {
		logger.Warn.Printf("Could not update progress: %s", err)
	}
	if status >= total {
		v.finish()
	}
}

// Close stops listening to progress events and finishes the current bar.
func (v *ProgressView) Close() {
	if v.broker != nil {
		if err := v.broker.Unsubscribe(api.ProcessStatusUpdated, v.handler); err != nil {
			logger.Debug.Printf("Could not unsubscribe progress view: %s", err)
		}
	}
	v.mux.Lock()
	defer v.mux.Unlock()
	v.finish()
}

func (v *ProgressView) finish() {
	if v.progressbar != nil {
		_ = v.progressbar.Finish()
		_, _ = io.WriteString(v.writer, "\n")
		v.progressbar = nil
	}
}
