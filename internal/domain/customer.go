package domain

type Customer struct {
	ID      uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	Name    string `json:"name" gorm:"size:255;not null"`
	Email   string `json:"email" gorm:"size:255;not null"`
	Address string `json:"address" gorm:"type:text"`
}
