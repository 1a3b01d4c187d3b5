package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
)

// SeedOptions 控制写入哪些基础数据
type SeedOptions struct {
	DryRun     bool
	Activities bool
	Templates  bool
	Plans      []model.SubscriptionPlan
	AdminEmail string
}

// SeedResult 每类数据新增的条数；已存在的记录不覆盖
type SeedResult struct {
	Activities int
	Templates  int
	Plans      int
	Admin      bool
}

// DefaultPlans 初始订阅套餐，GatewayPlanID 需与支付网关后台一致
func DefaultPlans() []model.SubscriptionPlan {
	return []model.SubscriptionPlan{
		{Name: "Premium Monthly", Tier: model.TierPremium, Price: 9.99, Currency: "USD", IntervalMonths: 1, GatewayPlanID: "premium_monthly", Active: true},
		{Name: "Premium Yearly", Tier: model.TierPremium, Price: 99, Currency: "USD", IntervalMonths: 12, GatewayPlanID: "premium_yearly", Active: true},
	}
}

// Seed 幂等写入活动目录、通知模板和套餐；DryRun 时只统计
func Seed(db *gorm.DB, opts SeedOptions) (*SeedResult, error) {
	res := &SeedResult{}
	err := db.Transaction(func(tx *gorm.DB) error {
		if opts.Activities {
			for _, a := range model.DefaultActivities() {
				a := a
				created, err := createIfMissing(tx, &a, "kind = ?", a.Kind, opts.DryRun)
				if err != nil {
					return fmt.Errorf("seed activity %s: %w", a.Kind, err)
				}
				if created {
					res.Activities++
				}
			}
		}

		if opts.Templates {
			for _, t := range model.DefaultTemplates() {
				t := t
				created, err := createIfMissing(tx, &t, "`key` = ?", t.Key, opts.DryRun)
				if err != nil {
					return fmt.Errorf("seed template %s: %w", t.Key, err)
				}
				if created {
					res.Templates++
				}
			}
		}

		for _, p := range opts.Plans {
			p := p
			created, err := createIfMissing(tx, &p, "gateway_plan_id = ?", p.GatewayPlanID, opts.DryRun)
			if err != nil {
				return fmt.Errorf("seed plan %s: %w", p.Name, err)
			}
			if created {
				res.Plans++
			}
		}

		if opts.AdminEmail != "" {
			var user model.User
			if err := tx.Where("email = ?", opts.AdminEmail).First(&user).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("admin user %s not found", opts.AdminEmail)
				}
				return err
			}
			if user.Role != model.RoleAdmin {
				res.Admin = true
				if !opts.DryRun {
					if err := tx.Model(&user).Update("role", model.RoleAdmin).Error; err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func createIfMissing(tx *gorm.DB, row interface{}, query string, arg interface{}, dryRun bool) (bool, error) {
	var count int64
	if err := tx.Model(row).Where(query, arg).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	return true, tx.Create(row).Error
}
