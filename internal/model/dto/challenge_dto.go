package dto

// CreateChallengeRequest 创建挑战
type CreateChallengeRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=200"`
	Description string `json:"description" binding:"max=5000"`
	JoiningFee  int64  `json:"joining_fee" binding:"gte=0"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
}

// ChallengeItem 挑战
type ChallengeItem struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	JoiningFee   int64           `json:"joining_fee"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	Status       string          `json:"status"`
	Creator      *PublicUser     `json:"creator,omitempty"`
	IsCreator    bool            `json:"is_creator"`
	MyEnrollment *EnrollmentItem `json:"my_enrollment,omitempty"`
}

// EnrollmentItem 报名记录
type EnrollmentItem struct {
	ID             int64       `json:"id"`
	ChallengeID    int64       `json:"challenge_id"`
	Status         string      `json:"status"`
	CertificateURL string      `json:"certificate_url,omitempty"`
	User           *PublicUser `json:"user,omitempty"`
	CompletedAt    string      `json:"completed_at,omitempty"`
	CreatedAt      string      `json:"created_at"`
}
