package main

type taskView struct {
	ID              string   `json:"id"`
	GroupID         string   `json:"group_id"`
	GroupTitle      string   `json:"group_title"`
	UnitIDs         []string `json:"unit_ids"`
	Status          string   `json:"status"`
	Progress        float64  `json:"progress"`
	DownloadedBytes int64    `json:"downloaded_bytes"`
	TotalBytes      int64    `json:"total_bytes"`
	ErrorMessage    string   `json:"error_message"`
	EnqueuedAt      string   `json:"enqueued_at"`
	StartedAt       string   `json:"started_at"`
	CompletedAt     string   `json:"completed_at"`
}

type eventView struct {
	ID        int64  `json:"id"`
	TaskID    string `json:"task_id"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

type progressView struct {
	OverallProgress float64        `json:"overall_progress"`
	Active          bool           `json:"active"`
	Counts          map[string]int `json:"counts"`
}

type settingsDoc struct {
	MaxConcurrent     int  `json:"max_concurrent"`
	NetworkRestricted bool `json:"network_restricted"`
}
