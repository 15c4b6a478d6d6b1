package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/service"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/stream"
)

type handler struct {
	svc *service.Service
	hub *stream.Hub
}

type startBroadcastRequest struct {
	TruckID string `json:"truckId"`
	Mode    string `json:"mode"`
}

// broadcastResponse describes the owner's broadcast after a command.
type broadcastResponse struct {
	Session     *model.Session     `json:"session"`
	Transitions []model.Transition `json:"transitions,omitempty"`
}

type sendRequestRequest struct {
	UserID   string          `json:"userId"`
	Message  string          `json:"message"`
	Location *model.Location `json:"location,omitempty"`
}

type reviewRequest struct {
	UserID  string `json:"userId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type driverApplicationRequest struct {
	LicenseNumber string `json:"licenseNumber"`
	BusinessName  string `json:"businessName"`
}

type favoriteResponse struct {
	TruckID  string `json:"truckId"`
	Favorite bool   `json:"favorite"`
}

// Trucks

func (h *handler) listTrucks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.ListTrucks(r.URL.Query().Get("owner")))
}

func (h *handler) getTruck(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.GetTruck(mux.Vars(r)["truckID"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (h *handler) listOwnerTrucks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.ListTrucks(mux.Vars(r)["ownerID"]))
}

func (h *handler) addTruck(w http.ResponseWriter, r *http.Request) {
	var t model.Truck
	if err := readJSON(r, &t); err != nil {
		badRequest(w, err)
		return
	}
	added, err := h.svc.AddTruck(r.Context(), mux.Vars(r)["ownerID"], &t)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, added)
}

func (h *handler) updateTruck(w http.ResponseWriter, r *http.Request) {
	var p model.Profile
	if err := readJSON(r, &p); err != nil {
		badRequest(w, err)
		return
	}
	vars := mux.Vars(r)
	t, err := h.svc.UpdateTruck(vars["ownerID"], vars["truckID"], p)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (h *handler) removeTruck(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.RemoveTruck(r.Context(), vars["ownerID"], vars["truckID"]); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Broadcast

func (h *handler) getBroadcast(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, broadcastResponse{Session: h.svc.ActiveSession(mux.Vars(r)["ownerID"])})
}

func (h *handler) startBroadcast(w http.ResponseWriter, r *http.Request) {
	var req startBroadcastRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	mode, err := model.ParseMode(req.Mode)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	res, err := h.svc.StartBroadcast(r.Context(), mux.Vars(r)["ownerID"], req.TruckID, mode)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, broadcastResponse{Session: res.Session, Transitions: res.Transitions})
}

func (h *handler) stopBroadcast(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.StopBroadcast(r.Context(), mux.Vars(r)["ownerID"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, broadcastResponse{Transitions: res.Transitions})
}

// Requests

func (h *handler) sendRequest(w http.ResponseWriter, r *http.Request) {
	var req sendRequestRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	created, err := h.svc.SendRequest(r.Context(), req.UserID, mux.Vars(r)["truckID"], req.Message, req.Location)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *handler) ownerRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.RequestsForOwner(r.Context(), mux.Vars(r)["ownerID"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reqs)
}

func (h *handler) userRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.RequestsForUser(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reqs)
}

func (h *handler) answerRequest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	answer := h.svc.AcknowledgeRequest
	if vars["action"] == "ignore" {
		answer = h.svc.IgnoreRequest
	}
	req, err := answer(r.Context(), vars["ownerID"], vars["requestID"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

// Reviews

func (h *handler) listReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.svc.Reviews(r.Context(), mux.Vars(r)["truckID"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reviews)
}

func (h *handler) submitReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	review, err := h.svc.SubmitReview(r.Context(), req.UserID, mux.Vars(r)["truckID"], req.Rating, req.Comment)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, review)
}

// Users

func (h *handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var u model.User
	if err := readJSON(r, &u); err != nil {
		badRequest(w, err)
		return
	}
	created, err := h.svc.RegisterUser(r.Context(), &u)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetUser(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *handler) favorites(w http.ResponseWriter, r *http.Request) {
	trucks, err := h.svc.Favorites(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, trucks)
}

func (h *handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fav, err := h.svc.ToggleFavorite(r.Context(), vars["userID"], vars["truckID"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, favoriteResponse{TruckID: vars["truckID"], Favorite: fav})
}

func (h *handler) applyForDriver(w http.ResponseWriter, r *http.Request) {
	var req driverApplicationRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	u, err := h.svc.ApplyForDriver(r.Context(), mux.Vars(r)["userID"], req.LicenseNumber, req.BusinessName)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *handler) decideDriver(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	decide := h.svc.ApproveDriver
	if vars["action"] == "reject" {
		decide = h.svc.RejectDriver
	}
	u, err := decide(r.Context(), vars["userID"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *handler) stream(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusNotImplemented, "streaming is disabled")
		return
	}
	h.hub.ServeWS(w, r, mux.Vars(r)["userID"])
}
