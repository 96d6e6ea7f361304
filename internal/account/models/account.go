package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Kind is the account role. The numeric values are part of the stored data
// and of the registration API, so they are fixed.
type Kind int

const (
	KindStudent Kind = iota
	KindFaculty
	KindIndustry
	KindAdmin
)

func (k Kind) Valid() bool {
	return k >= KindStudent && k <= KindAdmin
}

// RefreshToken is one entry of the per-account refresh ring, oldest first.
type RefreshToken struct {
	Token    string    `bson:"refresh_token"`
	IssuedAt time.Time `bson:"created_at"`
}

// PasswordResetTicket authorizes a single pending password swap. Token,
// pending hash, and expiry are jointly set or the ticket is absent entirely.
type PasswordResetTicket struct {
	Token       string    `bson:"token"`
	PendingHash string    `bson:"provisional_password"`
	ExpiresAt   time.Time `bson:"expiry"`
}

func (t *PasswordResetTicket) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// EmailChangeTicket authorizes a single pending email swap.
type EmailChangeTicket struct {
	Token        string    `bson:"token"`
	PendingEmail string    `bson:"provisional_email"`
	ExpiresAt    time.Time `bson:"expiry"`
}

func (t *EmailChangeTicket) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Security is the embedded credential sub-document.
type Security struct {
	RefreshTokens []RefreshToken       `bson:"tokens"`
	PasswordReset *PasswordResetTicket `bson:"password_reset,omitempty"`
	EmailChange   *EmailChangeTicket   `bson:"change_email,omitempty"`
}

// ProjectRefs holds the three per-bucket ledger references of a faculty
// account. A nil ref means the bucket's ledger has not been created yet.
type ProjectRefs struct {
	Draft    *bson.ObjectID `bson:"draft,omitempty"`
	Active   *bson.ObjectID `bson:"active,omitempty"`
	Archived *bson.ObjectID `bson:"archived,omitempty"`
}

// FacultyProfile carries the fields only faculty accounts have.
type FacultyProfile struct {
	Projects ProjectRefs `bson:"projects"`
}

// StudentProfile carries the fields only student accounts have.
type StudentProfile struct {
	ApplicationLedger *bson.ObjectID `bson:"applications,omitempty"`
}

// Account is the single mutable document every credential flow guards.
// Exactly one of the role profiles is non-nil, matching Kind; industry and
// admin accounts carry neither.
type Account struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	Email          string        `bson:"email"`
	DisplayName    string        `bson:"name"`
	PasswordHash   string        `bson:"password"`
	EmailConfirmed bool          `bson:"email_confirmed"`
	// EmailTicket is the one-time email confirmation token, cleared once
	// the address is confirmed.
	EmailTicket string          `bson:"email_token,omitempty"`
	Kind        Kind            `bson:"kind"`
	Faculty     *FacultyProfile `bson:"faculty,omitempty"`
	Student     *StudentProfile `bson:"student,omitempty"`
	Security    Security        `bson:"security"`
	CreatedAt   time.Time       `bson:"created_at"`
}

// HasRefreshToken reports whether the given refresh token is still admitted
// in the account's ring. A false answer covers both genuine expiry-driven
// cleanup and eviction by newer logins.
func (a *Account) HasRefreshToken(token string) bool {
	for _, rt := range a.Security.RefreshTokens {
		if rt.Token == token {
			return true
		}
	}
	return false
}
