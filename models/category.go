package models

import "time"

// Category represents the abstract_categories table.
type Category struct {
	CategoryID   int        `gorm:"primaryKey;column:category_id" json:"category_id"`
	EventID      int        `gorm:"column:event_id" json:"event_id"`
	CategoryName string     `gorm:"column:category_name" json:"category_name"`
	CreateAt     time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	SubTopics []SubTopic `gorm:"foreignKey:CategoryID" json:"sub_topics,omitempty"`
}

// SubTopic represents the category_sub_topics table.
type SubTopic struct {
	SubTopicID   int        `gorm:"primaryKey;column:sub_topic_id" json:"sub_topic_id"`
	CategoryID   int        `gorm:"column:category_id" json:"category_id"`
	SubTopicName string     `gorm:"column:sub_topic_name" json:"sub_topic_name"`
	CreateAt     time.Time  `gorm:"column:create_at" json:"create_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (Category) TableName() string {
	return "abstract_categories"
}

func (SubTopic) TableName() string {
	return "category_sub_topics"
}
