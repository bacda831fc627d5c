package handlers

import (
	"github.com/jmoiron/sqlx"

	"storefront/internal/repos"
	"storefront/internal/services"
)

type Deps struct {
	Sessions *services.Sessions
	KV       *repos.KVRepo
	Auth     *services.AuthService

	AuthHandler      *AuthHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	PageHandler      *PageHandler
}

// NewDeps wires session storage and the mock auth collaborator onto db.
func NewDeps(db *sqlx.DB, sc services.SessionConfig) *Deps {
	kv := repos.NewKVRepo(db)
	auth := services.NewAuthService(repos.NewUserRepo(db))

	return &Deps{
		Sessions:         services.NewSessions(kv, sc),
		KV:               kv,
		Auth:             auth,
		AuthHandler:      &AuthHandler{Auth: auth},
		ProductHandler:   &ProductHandler{},
		InventoryHandler: &InventoryHandler{},
		CartHandler:      &CartHandler{},
		OrderHandler:     &OrderHandler{},
		PageHandler:      &PageHandler{},
	}
}
