package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
)

var (
	ErrCommentNotFound   = errors.New("comment not found")
	ErrCommentPermission = errors.New("no permission to delete this comment")
)

// CommentService 目标评论，只有小组成员可以查看和评论
type CommentService struct {
	commentRepo *repository.CommentRepository
	groupRepo   *repository.GroupRepository
	userRepo    *repository.UserRepository
}

func NewCommentService(
	commentRepo *repository.CommentRepository,
	groupRepo *repository.GroupRepository,
	userRepo *repository.UserRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
	}
}

// Create 创建评论
func (s *CommentService) Create(userID, goalID int64, req *dto.CreateCommentRequest) (*dto.CommentItem, error) {
	goal, err := s.goalForMember(goalID, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	comment := &model.GoalComment{
		GoalID:   goal.ID,
		AuthorID: userID,
		Content:  req.Content,
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, err
	}

	comment.Author = user
	return buildCommentItem(comment), nil
}

// Delete 删除评论，作者或小组管理员可删
func (s *CommentService) Delete(userID, commentID int64) error {
	comment, err := s.commentRepo.GetByIDWithAuthor(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	if comment.AuthorID != userID {
		goal, err := s.groupRepo.GetGoal(comment.GoalID)
		if err != nil {
			return err
		}
		member, err := s.groupRepo.GetMember(goal.GroupID, userID)
		if err != nil || member.Role != model.GroupRoleAdmin {
			return ErrCommentPermission
		}
	}

	return s.commentRepo.Delete(commentID)
}

// ListByGoalID 获取目标的评论列表
func (s *CommentService) ListByGoalID(userID, goalID int64, page, pageSize int) ([]*dto.CommentItem, int64, error) {
	if _, err := s.goalForMember(goalID, userID); err != nil {
		return nil, 0, err
	}

	comments, total, err := s.commentRepo.ListByGoalID(goalID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.CommentItem, len(comments))
	for i, c := range comments {
		items[i] = buildCommentItem(c)
	}
	return items, total, nil
}

func (s *CommentService) goalForMember(goalID, userID int64) (*model.Goal, error) {
	goal, err := s.groupRepo.GetGoal(goalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	if _, err := s.groupRepo.GetMember(goal.GroupID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotGroupMember
		}
		return nil, err
	}
	return goal, nil
}

func buildCommentItem(c *model.GoalComment) *dto.CommentItem {
	return &dto.CommentItem{
		ID:        c.ID,
		Author:    publicUser(c.Author),
		Content:   c.Content,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}
