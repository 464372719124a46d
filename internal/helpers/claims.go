package helpers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/luwas/internal/models"
)

const identityKey = "identity"

// Identity is the caller as resolved once per request by the auth middleware.
// Handlers read it through IdentityFrom and never mutate it.
type Identity struct {
	UID         string `json:"uid,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	Provider    string `json:"provider,omitempty"`
	Anonymous   bool   `json:"anonymous"`
}

func Anonymous() Identity {
	return Identity{DisplayName: "Guest", Role: "guest", Anonymous: true}
}

func (id Identity) IsOwner(userID string) bool {
	return !id.Anonymous && id.UID != "" && id.UID == userID
}

// PayerName is the attribution written on a payment proof.
func (id Identity) PayerName() string {
	if id.Anonymous || strings.TrimSpace(id.DisplayName) == "" {
		return "Guest"
	}
	return id.DisplayName
}

func (id Identity) Payer() models.Payer {
	return models.Payer{UID: id.UID, Name: id.PayerName(), Email: id.Email}
}

func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the anonymous identity when no middleware resolved one.
func IdentityFrom(c *gin.Context) Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return Anonymous()
	}
	id, ok := v.(Identity)
	if !ok {
		return Anonymous()
	}
	return id
}
