package api

type Topic string

const (
	ProcessStatusUpdated Topic = "process-status-updated"
	ShowError            Topic = "show-error"
)
