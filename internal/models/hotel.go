package models

import "time"

type Hotel struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	Address     string `json:"address" yaml:"address"`
	City        string `json:"city" yaml:"city"`
	Country     string `json:"country" yaml:"country"`
	Stars       int    `json:"stars" yaml:"stars"`
	IsActive    bool   `json:"is_active" yaml:"is_active"`

	Rooms []Room `json:"-" yaml:"rooms"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}
