package service

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/oss"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
)

var (
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrChallengeClosed     = errors.New("challenge is not open for enrollment")
	ErrChallengeDates      = errors.New("invalid challenge dates")
	ErrChallengePermission = errors.New("only the challenge creator can do this")
	ErrCreatorEnroll       = errors.New("you cannot join your own challenge")
	ErrAlreadyEnrolled     = errors.New("already enrolled in this challenge")
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrAlreadyCompleted    = errors.New("participant already completed this challenge")
)

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Certificate of Completion</title></head>
<body style="font-family: Georgia, serif; text-align: center; padding: 60px;">
  <h1>Certificate of Completion</h1>
  <p>This certifies that</p>
  <h2>{{.Username}}</h2>
  <p>has successfully completed the challenge</p>
  <h3>{{.Title}}</h3>
  <p>{{.StartDate}} &ndash; {{.EndDate}}</p>
  <p>Awarded on {{.CompletedAt}} by {{.Creator}}</p>
</body>
</html>
`))

type certificateData struct {
	Username    string
	Title       string
	Creator     string
	StartDate   string
	EndDate     string
	CompletedAt string
}

type ChallengeService struct {
	db            *gorm.DB
	challengeRepo *repository.ChallengeRepository
	userRepo      *repository.UserRepository
	ledger        *LedgerService
	storage       oss.Storage
	notifier      Notifier
	now           func() time.Time
	log           *logrus.Entry
}

func NewChallengeService(
	db *gorm.DB,
	challengeRepo *repository.ChallengeRepository,
	userRepo *repository.UserRepository,
	ledger *LedgerService,
	storage oss.Storage,
	notifier Notifier,
) *ChallengeService {
	return &ChallengeService{
		db:            db,
		challengeRepo: challengeRepo,
		userRepo:      userRepo,
		ledger:        ledger,
		storage:       storage,
		notifier:      notifier,
		now:           func() time.Time { return time.Now().UTC() },
		log:           logger.Component("challenge"),
	}
}

// Create 创建挑战
func (s *ChallengeService) Create(userID int64, req *dto.CreateChallengeRequest) (*dto.ChallengeItem, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, ErrChallengeDates
	}
	end, err := parseDate(req.EndDate)
	if err != nil || end.Before(start) {
		return nil, ErrChallengeDates
	}

	c := &model.Challenge{
		CreatorID:   userID,
		Title:       req.Title,
		Description: req.Description,
		JoiningFee:  req.JoiningFee,
		StartDate:   start,
		EndDate:     end,
		Status:      model.ChallengeOpen,
	}
	if err := s.challengeRepo.Create(c); err != nil {
		return nil, err
	}
	return s.Get(c.ID, userID)
}

// Get 挑战详情；viewerID 为 0 表示未登录，否则附带当前用户的报名状态
func (s *ChallengeService) Get(id, viewerID int64) (*dto.ChallengeItem, error) {
	c, err := s.getChallenge(id)
	if err != nil {
		return nil, err
	}
	item := challengeItem(c)
	if viewerID == 0 {
		return item, nil
	}

	item.IsCreator = c.CreatorID == viewerID
	e, err := s.challengeRepo.GetEnrollment(id, viewerID)
	switch {
	case err == nil:
		item.MyEnrollment = enrollmentItem(e)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return item, nil
}

// ListOpen 开放中的挑战
func (s *ChallengeService) ListOpen(page, pageSize int) ([]*dto.ChallengeItem, int64, error) {
	list, total, err := s.challengeRepo.ListOpen(page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	items := make([]*dto.ChallengeItem, len(list))
	for i, c := range list {
		items[i] = challengeItem(c)
	}
	return items, total, nil
}

// Enroll 报名；有报名费时在同一事务内从参与者转给创建者
func (s *ChallengeService) Enroll(ctx context.Context, userID, challengeID int64) (*dto.EnrollmentItem, error) {
	c, err := s.getChallenge(challengeID)
	if err != nil {
		return nil, err
	}
	if c.Status != model.ChallengeOpen {
		return nil, ErrChallengeClosed
	}
	if c.CreatorID == userID {
		return nil, ErrCreatorEnroll
	}

	enrollment := &model.ChallengeEnrollment{
		ChallengeID: challengeID,
		UserID:      userID,
		Status:      model.EnrollmentEnrolled,
	}
	err = s.ledger.Atomic(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := s.challengeRepo.WithTx(tx).CreateEnrollment(enrollment); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyEnrolled
			}
			return err
		}
		if c.JoiningFee <= 0 {
			return nil
		}
		_, err := s.ledger.Transfer(ctx, tx, userID, c.CreatorID,
			model.ActivityChallengeJoiningFee, model.ActivityChallengeFeeEarned, c.JoiningFee)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"challenge_id": challengeID,
		"user_id":      userID,
		"fee":          c.JoiningFee,
	}).Info("challenge enrollment created")

	enrollment, err = s.challengeRepo.GetEnrollment(challengeID, userID)
	if err != nil {
		return nil, err
	}
	vars := map[string]string{"challenge": c.Title}
	if enrollment.User != nil {
		vars["username"] = enrollment.User.Username
	}
	NotifyQuietly(ctx, s.notifier, s.log, c.CreatorID, model.TemplateChallengeEnrollment, vars)

	return enrollmentItem(enrollment), nil
}

// ListEnrollments 创建者查看报名列表
func (s *ChallengeService) ListEnrollments(userID, challengeID int64) ([]*dto.EnrollmentItem, error) {
	c, err := s.getChallenge(challengeID)
	if err != nil {
		return nil, err
	}
	if c.CreatorID != userID {
		return nil, ErrChallengePermission
	}
	list, err := s.challengeRepo.ListEnrollments(challengeID)
	if err != nil {
		return nil, err
	}
	items := make([]*dto.EnrollmentItem, len(list))
	for i, e := range list {
		items[i] = enrollmentItem(e)
	}
	return items, nil
}

// CompleteParticipant 创建者确认参与者完成：奖励 JP，生成证书上传到对象存储
func (s *ChallengeService) CompleteParticipant(ctx context.Context, creatorID, challengeID, userID int64) (*dto.EnrollmentItem, error) {
	c, err := s.getChallenge(challengeID)
	if err != nil {
		return nil, err
	}
	if c.CreatorID != creatorID {
		return nil, ErrChallengePermission
	}

	enrollment, err := s.challengeRepo.GetEnrollment(challengeID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}

	completedAt := s.now()
	err = s.ledger.Atomic(ctx, func(ctx context.Context, tx *gorm.DB) error {
		ok, err := s.challengeRepo.WithTx(tx).MarkCompleted(enrollment.ID, completedAt)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyCompleted
		}
		_, err = s.ledger.AssignJP(ctx, tx, userID, model.ActivityChallengeCompleted, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	enrollment.Status = model.EnrollmentCompleted
	enrollment.CompletedAt = &completedAt

	// 奖励已提交，证书失败只记录日志
	url, err := s.issueCertificate(c, enrollment)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"challenge_id": challengeID,
			"user_id":      userID,
		}).Error("failed to issue certificate")
	} else {
		enrollment.CertificateURL = url
	}

	NotifyQuietly(ctx, s.notifier, s.log, userID, model.TemplateChallengeCertificate, map[string]string{
		"challenge": c.Title,
		"url":       enrollment.CertificateURL,
	})
	return enrollmentItem(enrollment), nil
}

func (s *ChallengeService) issueCertificate(c *model.Challenge, e *model.ChallengeEnrollment) (string, error) {
	if s.storage == nil {
		return "", errors.New("object storage not configured")
	}

	data := certificateData{
		Title:       c.Title,
		StartDate:   c.StartDate.UTC().Format("January 2, 2006"),
		EndDate:     c.EndDate.UTC().Format("January 2, 2006"),
		CompletedAt: e.CompletedAt.UTC().Format("January 2, 2006"),
	}
	if e.User != nil {
		data.Username = e.User.Username
	}
	if c.Creator != nil {
		data.Creator = c.Creator.Username
	}

	var buf bytes.Buffer
	if err := certificateTemplate.Execute(&buf, data); err != nil {
		return "", err
	}

	url, err := s.storage.Put(oss.CertificateKey(c.ID, e.UserID), buf.Bytes(), oss.ContentType(".html"))
	if err != nil {
		return "", err
	}
	if err := s.challengeRepo.SetCertificateURL(e.ID, url); err != nil {
		return "", err
	}
	return url, nil
}

func (s *ChallengeService) getChallenge(id int64) (*model.Challenge, error) {
	c, err := s.challengeRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	return c, nil
}

// parseDate 支持 2006-01-02 和 RFC3339
func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func challengeItem(c *model.Challenge) *dto.ChallengeItem {
	return &dto.ChallengeItem{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		JoiningFee:  c.JoiningFee,
		StartDate:   c.StartDate.UTC().Format(time.RFC3339),
		EndDate:     c.EndDate.UTC().Format(time.RFC3339),
		Status:      c.Status,
		Creator:     publicUser(c.Creator),
	}
}

func enrollmentItem(e *model.ChallengeEnrollment) *dto.EnrollmentItem {
	item := &dto.EnrollmentItem{
		ID:             e.ID,
		ChallengeID:    e.ChallengeID,
		Status:         e.Status,
		CertificateURL: e.CertificateURL,
		User:           publicUser(e.User),
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if e.CompletedAt != nil {
		item.CompletedAt = e.CompletedAt.UTC().Format(time.RFC3339)
	}
	return item
}
