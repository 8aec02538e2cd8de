package dto

// CreateRoomRequest принимает и JSON, и form-data. Правила проверяет сервис.
type CreateRoomRequest struct {
	Name        string  `json:"name" form:"name"`
	Description string  `json:"description" form:"description"`
	MaxMember   int     `json:"maxMember" form:"maxMember"`
	Image       *string `json:"image" form:"image"`
}
