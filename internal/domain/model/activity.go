package model

import "time"

// LogEntry — запись журнала t_logs для ленты активности.
type LogEntry struct {
	ID          int64
	UserName    string
	FolderName  string
	WorkContent string
	Result      string
	// Created — nil, если время не записано
	Created *time.Time
}

// LabelCount — подпись и счётчик для графиков дашборда.
type LabelCount struct {
	Label string
	Count int64
}
