package handler

import (
	"github.com/alem-hub/applications-bot/internal/interface/telegram/presenter"
)

// HelpHandler handles the /help command.
type HelpHandler struct {
	presenter *presenter.RegistrationPresenter
}

// NewHelpHandler creates a new HelpHandler.
func NewHelpHandler(p *presenter.RegistrationPresenter) *HelpHandler {
	return &HelpHandler{presenter: p}
}

// Handle returns the static command list.
func (h *HelpHandler) Handle() *Response {
	return ResponseFromView(h.presenter.Help())
}
