package handler

import (
	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/storage"
)

// Handler holds the hub, storage and config references the HTTP surface
// needs.
type Handler struct {
	Hub     *chathub.ManagerService
	Storage storage.Storage
	Cfg     *config.Config
}

func NewHandler(hub *chathub.ManagerService, s storage.Storage, cfg *config.Config) *Handler {
	return &Handler{Hub: hub, Storage: s, Cfg: cfg}
}
