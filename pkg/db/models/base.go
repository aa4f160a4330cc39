package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignID gives rows a client-side UUID so inserts behave the same on
// postgres and on the sqlite databases used in tests.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

func (r *ProductReview) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

func (h *OrderStatusHistory) BeforeCreate(*gorm.DB) error {
	assignID(&h.ID)
	return nil
}

func (n *OrderNote) BeforeCreate(*gorm.DB) error {
	assignID(&n.ID)
	return nil
}

func (j *Job) BeforeCreate(*gorm.DB) error {
	assignID(&j.ID)
	return nil
}

func (a *JobApplication) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}

func (a *Article) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}

func (d *OutboxDLQ) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	return nil
}

// All lists every persisted model; tests AutoMigrate them into sqlite.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&ProductReview{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
		&OrderNote{},
		&Job{},
		&JobApplication{},
		&Article{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
