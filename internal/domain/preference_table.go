package domain

import "time"

// PreferenceTableMember: 偏好表中的一行
// Preferences[i] 为第 i+1 列填写的人名
type PreferenceTableMember struct {
	Name        string   `json:"name"`
	Preferences []string `json:"preferences"`
}

type PreferenceTable struct {
	ID          int64                   `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Members     []PreferenceTableMember `json:"members"`
	CreatedBy   int64                   `json:"createdBy"`
	CreatedAt   time.Time               `json:"createdAt"`
	Version     int32                   `json:"-"`
}

// WeightPolicy: 偏好表中各列对应的权重
// 同时出现在正负两类中的列按负权重处理
type WeightPolicy struct {
	PositiveColumns []int `json:"positiveColumns"`
	NegativeColumns []int `json:"negativeColumns"`
	PositiveWeight  int64 `json:"positiveWeight"`
	NegativeWeight  int64 `json:"negativeWeight"`
}
