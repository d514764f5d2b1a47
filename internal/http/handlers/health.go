package handlers

import (
	"net/http"
)

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Device      string `json:"device"`
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy"}
	if a.Provider != nil {
		resp.ModelLoaded = a.Provider.Ready()
		resp.Device = a.Provider.Device()
	}
	a.json(w, http.StatusOK, resp)
}
