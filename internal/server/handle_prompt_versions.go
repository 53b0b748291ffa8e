package server

import (
	"net/http"

	"github.com/sketchduel/api/internal/prompt"
)

// PromptVersionInfo describes one available prompt template.
type PromptVersionInfo struct {
	Version     string `json:"version"`
	Description string `json:"description"`
	IsDefault   bool   `json:"isDefault"`
}

func handlePromptVersions(templates *prompt.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var out []PromptVersionInfo
		for _, v := range templates.Versions() {
			info, _ := templates.Info(v)
			out = append(out, PromptVersionInfo{
				Version:     v,
				Description: info.Description,
				IsDefault:   v == prompt.DefaultVersion,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
