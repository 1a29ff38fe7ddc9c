package handler

import (
	"strings"

	"github.com/ngoduykhanh/usermgr/util"
)

// RegisterPayload is the body of registration and admin user creation
type RegisterPayload struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

func (p *RegisterPayload) normalize() {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = util.NormalizeEmail(p.Email)
}

type LoginPayload struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfilePayload updates the caller's own account. Empty fields are left
// unchanged. It carries no admin flag.
type ProfilePayload struct {
	Username string `json:"username" validate:"omitempty,max=100"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"omitempty,maxbytes=72"`
}

func (p *ProfilePayload) normalize() {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = util.NormalizeEmail(p.Email)
}

// UserUpdatePayload is the admin side update of any account
type UserUpdatePayload struct {
	Username string `json:"username" validate:"omitempty,max=100"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	IsAdmin  *bool  `json:"isAdmin"`
}

func (p *UserUpdatePayload) normalize() {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = util.NormalizeEmail(p.Email)
}
