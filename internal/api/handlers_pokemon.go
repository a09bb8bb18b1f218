package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/rochacaio/pokemon-backend/internal/api/respond"
	"github.com/rochacaio/pokemon-backend/internal/api/validate"
	"github.com/rochacaio/pokemon-backend/internal/model"
	"github.com/rochacaio/pokemon-backend/internal/services"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 16

// PokemonHandler is a thin HTTP transport over PokemonService.
type PokemonHandler struct {
	svc *services.PokemonService
}

func NewPokemonHandler(svc *services.PokemonService) *PokemonHandler {
	return &PokemonHandler{svc: svc}
}

// Register mounts the Pokemon routes on r.
func (h *PokemonHandler) Register(r *mux.Router) {
	r.HandleFunc("/pokemons", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/pokemons", h.List).Methods(http.MethodGet)
	r.HandleFunc("/pokemons/import/{id}", h.Import).Methods(http.MethodPost)
	r.HandleFunc("/pokemons/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/pokemons/{id}", h.Update).Methods(http.MethodPatch)
	r.HandleFunc("/pokemons/{id}", h.Delete).Methods(http.MethodDelete)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := validate.ID(mux.Vars(r)["id"])
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return 0, false
	}
	return id, true
}

// Create POST /pokemons
func (h *PokemonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePokemon
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.CreatePokemon(req); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	out, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// List GET /pokemons?type=&name=&page=&limit=&sortBy=&sortOrder=
func (h *PokemonHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := validate.ListFilter(r.URL.Query())
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	page, err := h.svc.FindMany(r.Context(), f)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, page)
}

// Get GET /pokemons/{id}
func (h *PokemonHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.FindOne(r.Context(), id)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// Update PATCH /pokemons/{id}
func (h *PokemonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdatePokemon
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.UpdatePokemon(req); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	p, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// Delete DELETE /pokemons/{id}
func (h *PokemonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import POST /pokemons/import/{id}
func (h *PokemonHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.ImportByID(r.Context(), id)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}
