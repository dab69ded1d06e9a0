// models/lending.go
package models

import "time"

const (
	StudentTable = "lend_students"
	LaptopTable  = "lend_laptops"
	TeacherTable = "lend_teachers"
	BookingTable = "lend_bookings"
)

// Version 字段：每次写入 +1，用于乐观锁
type Student struct {
	ID                uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username          string    `gorm:"size:30;not null" json:"username"` // 唯一（忽略大小写），见 db.Migrate
	FirstName         *string   `gorm:"size:50" json:"firstName,omitempty"`
	LastName          *string   `gorm:"size:50" json:"lastName,omitempty"`
	Email             *string   `gorm:"size:320" json:"email,omitempty"`
	MobilePhoneNumber *string   `gorm:"size:30" json:"mobilePhoneNumber,omitempty"`
	Gender            *string   `gorm:"size:10" json:"gender,omitempty"`
	Version           int64     `gorm:"not null" json:"version"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type Laptop struct {
	ID                   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	IdentificationNumber string    `gorm:"size:50;not null" json:"identificationNumber"`
	Model                string    `gorm:"size:100;not null" json:"model"`
	IsAvailable          bool      `gorm:"not null;index" json:"isAvailable"` // 只由 lending.Ledger 写
	DamageDescription    *string   `gorm:"size:1000" json:"damageDescription,omitempty"`
	Version              int64     `gorm:"not null" json:"version"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

type Teacher struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"size:320;not null" json:"email"`
	Version   int64     `gorm:"not null" json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Booking struct {
	ID        uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID uint     `gorm:"not null;index" json:"studentId"`
	Student   Student  `json:"-"`
	LaptopID  uint     `gorm:"not null;index" json:"laptopId"`
	Laptop    Laptop   `json:"-"`
	TeacherID *uint    `gorm:"index" json:"teacherId,omitempty"`
	Teacher   *Teacher `json:"-"`

	Returned        bool      `gorm:"not null;index" json:"returned"`
	BookingDateTime time.Time `gorm:"not null;index" json:"bookingDateTime"`
	PlannedReturn   time.Time `gorm:"not null" json:"plannedReturn"`
	Comment         *string   `gorm:"size:1000" json:"comment,omitempty"`

	Version   int64     `gorm:"not null" json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Student) TableName() string { return StudentTable }
func (Laptop) TableName() string  { return LaptopTable }
func (Teacher) TableName() string { return TeacherTable }
func (Booking) TableName() string { return BookingTable }
