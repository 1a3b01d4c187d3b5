package model

// All 需要迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&Activity{},
		&Transaction{},
		&SubscriptionPlan{},
		&Mandate{},
		&Subscription{},
		&Payment{},
		&Purchase{},
		&SpotlightApplication{},
		&ProsperityDropApplication{},
		&Group{},
		&GroupMember{},
		&Cycle{},
		&Goal{},
		&GoalComment{},
		&Challenge{},
		&ChallengeEnrollment{},
		&EmailTemplate{},
		&Notification{},
	}
}
