package dto

// NotificationItem 站内通知
type NotificationItem struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// NotificationList 通知列表附带未读数
type NotificationList struct {
	List     []*NotificationItem `json:"list"`
	Total    int64               `json:"total"`
	Unread   int64               `json:"unread"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}
