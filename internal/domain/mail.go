package domain

// MailQueue: api 发布、mail 消费的队列
const MailQueue = "email_queue"

const (
	MailTypeCreateUser          = "create_user"
	MailTypeResetPassword       = "reset_password"
	MailTypeArrangementFinished = "arrangement_finished"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetPasswordMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type ArrangementFinishedMailData struct {
	FullName            string             `json:"fullName"`
	PreferenceTableName string             `json:"preferenceTableName"`
	Score               int64              `json:"score"`
	Generations         int32              `json:"generations"`
	Groups              []ArrangementGroup `json:"groups"`
}
