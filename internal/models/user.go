package models

import (
	"math"
	"strings"
	"time"
)

const (
	RoleTraveler       = "traveler"
	DefaultDisplayName = "Traveler"
)

type User struct {
	ID          string     `bson:"_id" json:"id"`
	UID         string     `bson:"uid,omitempty" json:"uid,omitempty"`
	FullName    string     `bson:"fullName,omitempty" json:"fullName"`
	Email       string     `bson:"email,omitempty" json:"email"`
	PhoneNumber string     `bson:"phoneNumber,omitempty" json:"phoneNumber"`
	Age         *int       `bson:"age,omitempty" json:"age"`
	Gender      string     `bson:"gender,omitempty" json:"gender"`
	Address     string     `bson:"address,omitempty" json:"address"`
	Occupation  string     `bson:"occupation,omitempty" json:"occupation"`
	IncomeLevel string     `bson:"incomeLevel,omitempty" json:"incomeLevel"`
	AvatarURL   string     `bson:"avatarUrl,omitempty" json:"avatarUrl"`
	Role        string     `bson:"role,omitempty" json:"role"`
	CreatedAt   *time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// ProfileUpdate carries the editable profile fields. Nil means "leave untouched".
type ProfileUpdate struct {
	FullName    *string `json:"fullName" validate:"omitempty,max=120"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=32"`
	Age         *int    `json:"age" validate:"omitempty,min=0,max=130"`
	Gender      *string `json:"gender" validate:"omitempty,max=32"`
	Address     *string `json:"address" validate:"omitempty,max=240"`
	Occupation  *string `json:"occupation" validate:"omitempty,max=120"`
	IncomeLevel *string `json:"incomeLevel" validate:"omitempty,max=64"`
	AvatarURL   *string `json:"avatarUrl" validate:"omitempty,url"`
}

// Fields returns the document fields to merge, keyed by stored name.
func (p ProfileUpdate) Fields() map[string]interface{} {
	out := map[string]interface{}{}
	set := func(key string, v *string) {
		if v != nil {
			out[key] = strings.TrimSpace(*v)
		}
	}
	set("fullName", p.FullName)
	set("phoneNumber", p.PhoneNumber)
	set("gender", p.Gender)
	set("address", p.Address)
	set("occupation", p.Occupation)
	set("incomeLevel", p.IncomeLevel)
	set("avatarUrl", p.AvatarURL)
	if p.Age != nil {
		out["age"] = *p.Age
	}
	return out
}

// DisplayName falls back to "Traveler" for missing or placeholder names.
func (u *User) DisplayName() string {
	if u == nil {
		return DefaultDisplayName
	}
	name := strings.TrimSpace(u.FullName)
	if name == "" || name == "Unnamed" {
		return DefaultDisplayName
	}
	return name
}

// Completion is the rounded percentage of filled editable fields,
// not counting email and avatar.
func (u *User) Completion() int {
	if u == nil {
		return 0
	}
	fields := []string{u.FullName, u.PhoneNumber, u.Gender, u.Address, u.Occupation, u.IncomeLevel}
	filled := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			filled++
		}
	}
	if u.Age != nil && *u.Age > 0 {
		filled++
	}
	total := len(fields) + 1
	return int(math.Round(float64(filled) / float64(total) * 100))
}
