package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/mdkeep/internal/pkg/errcode"
	"github.com/xxxsen/mdkeep/internal/pkg/response"
	"github.com/xxxsen/mdkeep/internal/service"
)

type SettingsHandler struct {
	creds *service.CredentialService
}

func NewSettingsHandler(creds *service.CredentialService) *SettingsHandler {
	return &SettingsHandler{creds: creds}
}

type settingsRequest struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
}

func (h *SettingsHandler) Get(c *gin.Context) {
	creds, err := h.creds.Load(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, creds.Masked())
}

func (h *SettingsHandler) Put(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	creds := service.Credentials{APIBaseURL: req.BaseURL, APIKey: req.APIKey}
	if err := h.creds.Save(c.Request.Context(), creds); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *SettingsHandler) Delete(c *gin.Context) {
	if err := h.creds.Clear(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
