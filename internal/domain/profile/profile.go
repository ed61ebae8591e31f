package profile

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/klaape/klaape-api/internal/domain/identity"
)

var ErrNotFound = errors.New("profile not found")

type Role string

const (
	RoleRegular  Role = "regular"
	RolePro      Role = "pro"
	RoleBusiness Role = "business"
)

func (r Role) Valid() bool {
	switch r {
	case RoleRegular, RolePro, RoleBusiness:
		return true
	}
	return false
}

// Profile is the one-to-one extension of an identity.
//
// Expertise and HourlyRate are meaningful only for RolePro, CompanyName and
// Industry only for RoleBusiness. Nothing enforces that split: any role may
// carry any of them.
type Profile struct {
	ID            int64
	IdentityID    int64
	Role          Role
	Bio           string
	Picture       *string
	Expertise     []int64
	HourlyRate    *float64
	IsVerifiedPro bool
	CompanyName   string
	Industry      string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Owner identity.Identity
}

// New returns the default profile created on first access.
func New(owner identity.Identity, now time.Time) Profile {
	return Profile{
		IdentityID: owner.ID,
		Role:       RoleRegular,
		Expertise:  []int64{},
		CreatedAt:  now,
		UpdatedAt:  now,
		Owner:      owner,
	}
}

// UpdateRequest is a partial update: nil fields are left untouched.
// There is deliberately no verified-pro field here.
type UpdateRequest struct {
	Role        *Role    `json:"role" binding:"omitempty,oneof=regular pro business"`
	Bio         *string  `json:"bio" binding:"omitempty,max=5000"`
	Expertise   *[]int64 `json:"expertise" binding:"omitempty,max=50,dive,gt=0"`
	HourlyRate  Rate     `json:"hourly_rate"`
	CompanyName *string  `json:"company_name" binding:"omitempty,max=255"`
	Industry    *string  `json:"industry" binding:"omitempty,max=255"`
}

func (r UpdateRequest) IsEmpty() bool {
	return r.Role == nil && r.Bio == nil && r.Expertise == nil &&
		!r.HourlyRate.Set && r.CompanyName == nil && r.Industry == nil
}

// Apply copies the provided fields onto p.
func (r UpdateRequest) Apply(p *Profile) {
	if r.Role != nil {
		p.Role = *r.Role
	}
	if r.Bio != nil {
		p.Bio = *r.Bio
	}
	if r.Expertise != nil {
		p.Expertise = dedupe(*r.Expertise)
	}
	if r.HourlyRate.Set {
		if r.HourlyRate.Null {
			p.HourlyRate = nil
		} else {
			v := RoundRate(r.HourlyRate.Value)
			p.HourlyRate = &v
		}
	}
	if r.CompanyName != nil {
		p.CompanyName = *r.CompanyName
	}
	if r.Industry != nil {
		p.Industry = *r.Industry
	}
}

// RoundRate rounds to the two decimal places stored in the database.
func RoundRate(v float64) float64 {
	return math.Round(v*100) / 100
}

const (
	RatePlaces        = 2
	MaxHourlyRate     = 99999999.99
	MaxHourlyRateText = "99999999.99"
)

// Rate is the hourly_rate member of a patch. It tells an absent key (Set
// false) from an explicit null (Null true), and accepts both JSON numbers
// and decimal strings such as "25.00".
type Rate struct {
	Set   bool
	Null  bool
	Value float64

	text string
}

// RateOf is a present, non-null rate.
func RateOf(v float64) Rate {
	return Rate{Set: true, Value: v, text: strconv.FormatFloat(v, 'f', -1, 64)}
}

// ClearRate is an explicit null.
func ClearRate() Rate {
	return Rate{Set: true, Null: true}
}

func (r *Rate) UnmarshalJSON(b []byte) error {
	*r = Rate{Set: true}

	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		r.Null = true
		return nil
	}

	text, kind := raw, jsonKind(raw)
	if kind == "string" {
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || strings.ContainsAny(text, "xX_") || math.IsNaN(v) || math.IsInf(v, 0) {
		return &json.UnmarshalTypeError{Value: kind, Type: reflect.TypeOf(float64(0))}
	}

	r.Value = v
	r.text = text
	return nil
}

func jsonKind(raw string) string {
	switch {
	case strings.HasPrefix(raw, `"`):
		return "string"
	case raw == "true", raw == "false":
		return "bool"
	case strings.HasPrefix(raw, "{"):
		return "object"
	case strings.HasPrefix(raw, "["):
		return "array"
	}
	return "number"
}

// Places counts significant fractional digits as written, so 12.345 is three
// and 12.50 is one.
func (r Rate) Places() int {
	text := r.text
	if text == "" {
		text = strconv.FormatFloat(r.Value, 'f', -1, 64)
	}
	text = strings.TrimLeft(text, "+-")

	mantissa, exp := text, 0
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		mantissa = text[:i]
		exp, _ = strconv.Atoi(text[i+1:])
	}

	places := 0
	if i := strings.IndexByte(mantissa, '.'); i >= 0 {
		places = len(strings.TrimRight(mantissa[i+1:], "0"))
	}
	places -= exp
	if places < 0 {
		return 0
	}
	return places
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type UserView struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type View struct {
	ID             int64    `json:"id"`
	User           UserView `json:"user"`
	Role           Role     `json:"role"`
	Bio            string   `json:"bio"`
	ProfilePicture *string  `json:"profile_picture"`
	DisplayName    string   `json:"display_name"`
	Expertise      []int64  `json:"expertise"`
	HourlyRate     *string  `json:"hourly_rate"`
	IsVerifiedPro  bool     `json:"is_verified_pro"`
	CompanyName    string   `json:"company_name"`
	Industry       string   `json:"industry"`
}

// NewView serializes p. display_name is derived here on every call.
func NewView(p Profile) View {
	expertise := p.Expertise
	if expertise == nil {
		expertise = []int64{}
	}

	var rate *string
	if p.HourlyRate != nil {
		s := strconv.FormatFloat(*p.HourlyRate, 'f', 2, 64)
		rate = &s
	}

	return View{
		ID: p.ID,
		User: UserView{
			ID:        p.Owner.ID,
			Username:  p.Owner.Username,
			Email:     p.Owner.Email,
			FirstName: p.Owner.FirstName,
			LastName:  p.Owner.LastName,
		},
		Role:           p.Role,
		Bio:            p.Bio,
		ProfilePicture: p.Picture,
		DisplayName:    p.Owner.DisplayName(),
		Expertise:      expertise,
		HourlyRate:     rate,
		IsVerifiedPro:  p.IsVerifiedPro,
		CompanyName:    p.CompanyName,
		Industry:       p.Industry,
	}
}
