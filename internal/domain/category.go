package domain

// Category nodes form a tree via ParentID. Acyclicity is enforced by the
// catalog service on every parent assignment, not by the schema.
type Category struct {
	ID       uint64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name     string  `json:"name" gorm:"size:255;not null"`
	ParentID *uint64 `json:"parentId,omitempty" gorm:"index"`
}
