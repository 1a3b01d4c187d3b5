package model

import (
	"time"
)

// EmailTemplate 通知模板，Body/Subject 中使用 {{var}} 占位符
type EmailTemplate struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"size:100;uniqueIndex;not null" json:"key"`
	Subject   string    `gorm:"size:200;not null" json:"subject"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (EmailTemplate) TableName() string {
	return "email_templates"
}

type Notification struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"size:100;not null" json:"type"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	IsRead    bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// 模板 key
const (
	TemplateWelcome               = "welcome"
	TemplateVerifyEmail           = "verify-email"
	TemplateSpotlightStatus       = "spotlight-status"
	TemplateProsperityStatus      = "prosperity-status"
	TemplateGoalReminder          = "goal-reminder"
	TemplatePaymentFailed         = "payment-failed"
	TemplateSubscriptionActivated = "subscription-activated"
	TemplateSubscriptionCancelled = "subscription-cancelled"
	TemplateChallengeCertificate  = "challenge-certificate"
	TemplateChallengeEnrollment   = "challenge-enrollment"
)

// DefaultTemplates 初始通知模板
func DefaultTemplates() []EmailTemplate {
	return []EmailTemplate{
		{Key: TemplateWelcome, Subject: "Welcome to MyThriveBuddy, {{username}}", Body: "<p>Hi {{username}}, glad to have you.</p>"},
		{Key: TemplateVerifyEmail, Subject: "Verify your email", Body: "<p>Hi {{username}}, open {{link}} to verify your email.</p>"},
		{Key: TemplateSpotlightStatus, Subject: "Your spotlight application is {{status}}", Body: "<p>Your spotlight application \"{{headline}}\" is now {{status}}.</p>"},
		{Key: TemplateProsperityStatus, Subject: "Your prosperity drop application is {{status}}", Body: "<p>Your application \"{{title}}\" is now {{status}}.</p>"},
		{Key: TemplateGoalReminder, Subject: "Set your goal for {{group}}", Body: "<p>The current cycle of {{group}} ends on {{end_date}}. Add your goal.</p>"},
		{Key: TemplatePaymentFailed, Subject: "Payment failed", Body: "<p>We could not charge your {{plan}} subscription.</p>"},
		{Key: TemplateSubscriptionActivated, Subject: "Subscription active", Body: "<p>Your {{plan}} subscription is active until {{end_date}}.</p>"},
		{Key: TemplateSubscriptionCancelled, Subject: "Subscription cancelled", Body: "<p>Your {{plan}} subscription has been cancelled.</p>"},
		{Key: TemplateChallengeCertificate, Subject: "You completed {{challenge}}", Body: "<p>Congratulations! Your certificate: {{url}}</p>"},
		{Key: TemplateChallengeEnrollment, Subject: "New participant in {{challenge}}", Body: "<p>{{username}} joined {{challenge}}.</p>"},
	}
}
