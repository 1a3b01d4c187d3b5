package dto

// CronResult 定时任务执行结果
type CronResult struct {
	Job        string `json:"job"`
	Processed  int    `json:"processed"`
	DurationMS int64  `json:"duration_ms"`
}
