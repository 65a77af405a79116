package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/gpatrack/gpatrack/core"
	"github.com/gpatrack/gpatrack/core/grade"
)

type User struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	IsActive     bool        `json:"is_active"`
	IsAdmin      bool        `json:"is_admin"`
	GPAScale     grade.Scale `json:"gpa_scale"` // display scale for GPA reports and the scale overrides are entered on
	PasswordHash []byte      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
	LastLogin    time.Time   `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// Scale returns the user's GPA scale, defaulting to 4.0 for records saved without one.
func (u User) Scale() grade.Scale {
	if u.GPAScale.IsValid() {
		return u.GPAScale
	}
	return grade.Scale40
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string      `json:"name" validate:"required,notblank"`
	Email           string      `json:"email" validate:"required,email"`
	Password        string      `json:"password" validate:"required"`
	PasswordConfirm string      `json:"password_confirm" validate:"required,eqfield=Password"`
	GPAScale        grade.Scale `json:"gpa_scale" validate:"omitempty,gpascale"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.GPAScale = grade.Scale(core.CleanString(string(nu.GPAScale), true /* lower */))

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty fields are left unchanged.
type UpdateUser struct {
	Name            string      `json:"name"`
	Email           string      `json:"email" validate:"omitempty,email"`
	GPAScale        grade.Scale `json:"gpa_scale" validate:"omitempty,gpascale"`
	IsActive        *bool       `json:"is_active"`
	IsAdmin         *bool       `json:"is_admin"`
	Password        string      `json:"password"`
	PasswordConfirm string      `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if scale := core.CleanString(string(uu.GPAScale), true /* lower */); scale != "" {
		uu.GPAScale = grade.Scale(scale)
	} else {
		uu.GPAScale = origUsr.GPAScale
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	if uu.Email != origUsr.Email {
		return svc.CheckEmailUniqueness(ctx, uu.Email, origUsr)
	}
	return nil
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

// GetFilter selects a single User: by ID if set, else by Email.
type GetFilter struct {
	ID    string
	Email string
}

type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"is_active"`
	IsAdmin  *bool  `query:"is_admin"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.IsActive == nil && qf.IsAdmin == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
