package dto

import "github.com/shopspring/decimal"

type CreateTaskRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Location     string          `json:"location"`
	Availability string          `json:"availability"`
	TimeOffered  decimal.Decimal `json:"time_offered"`
}

type ReportTimeRequest struct {
	Hours decimal.Decimal `json:"hours"`
}

type AttachmentRequest struct {
	FileURL string `json:"file_url"`
}

type UpdateProfileRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Location     string   `json:"location"`
	SkillSets    []string `json:"skill_sets"`
	Availability string   `json:"availability"`
	AvatarURL    string   `json:"avatar_url"`
}

type PushTokenRequest struct {
	Token string `json:"token"`
}

type OpenTasksQuery struct {
	Keyword      string `query:"q"`
	Location     string `query:"location"`
	Availability string `query:"availability"`
	MinTime      string `query:"min_time"`
	Limit        int    `query:"limit"`
}
