package domain

import "time"

type ArrangementGroup struct {
	Members []string `json:"members"`
}

type Arrangement struct {
	ID                int64              `json:"id"`
	PreferenceTableID int64              `json:"preferenceTableID"`
	GroupSize         int32              `json:"groupSize"`
	Score             int64              `json:"score"`
	Generations       int32              `json:"generations"` // 手动提交的结果为 0
	Selector          string             `json:"selector"`
	Groups            []ArrangementGroup `json:"groups"`
	CreatedBy         int64              `json:"createdBy"` // 生成或提交该结果的用户
	CreatedAt         time.Time          `json:"createdAt"`
	Version           int32              `json:"-"`
}
