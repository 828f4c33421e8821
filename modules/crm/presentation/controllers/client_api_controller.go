package controllers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
	"github.com/clientdesk/clientdesk/modules/crm/services"
	"github.com/clientdesk/clientdesk/pkg/application"
	"github.com/clientdesk/clientdesk/pkg/composables"
	"github.com/clientdesk/clientdesk/pkg/configuration"
	"github.com/clientdesk/clientdesk/pkg/middleware"
)

type ClientAPIController struct {
	app      application.Application
	clients  *services.ClientService
	basePath string
}

func NewClientAPIController(app application.Application) application.Controller {
	return &ClientAPIController{
		app:      app,
		clients:  app.Service(services.ClientService{}).(*services.ClientService),
		basePath: "/crm/api",
	}
}

func (c *ClientAPIController) Key() string {
	return c.basePath
}

func (c *ClientAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.ProvideUser())

	router.HandleFunc("/clients", c.List).Methods(http.MethodGet)
	router.HandleFunc("/clients", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/clients/export", c.Export).Methods(http.MethodGet)
	router.HandleFunc("/clients/statuses", c.Statuses).Methods(http.MethodGet)
	router.HandleFunc("/clients/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/clients/{id}", c.Update).Methods(http.MethodPatch, http.MethodPut)
	router.HandleFunc("/clients/{id}", c.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/clients/{id}/status", c.ChangeStatus).Methods(http.MethodPost)
}

func (c *ClientAPIController) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	offset := 0
	if v := strings.TrimSpace(r.URL.Query().Get("offset")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	items, total, err := c.clients.GetPaginated(r.Context(), &client.FindParams{Q: q, Limit: limit, Offset: offset})
	if err != nil {
		writeInternalError(w, r, "CLIENT_INTERNAL", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}

// Statuses lists the contact statuses a client may carry, in funnel order,
// for status pickers.
func (c *ClientAPIController) Statuses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"statuses": client.ContactStatuses()})
}

func (c *ClientAPIController) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entity, err := c.clients.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "CLIENT_NOT_FOUND", "client not found")
			return
		}
		writeInternalError(w, r, "CLIENT_INTERNAL", err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (c *ClientAPIController) Create(w http.ResponseWriter, r *http.Request) {
	var dto client.CreateDTO
	if err := decodeJSONBody(w, r, &dto); err != nil {
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "CLIENT_VALIDATION_FAILED", firstValidationMessage(errs, "Name", "Email"))
		return
	}

	created, err := c.clients.Create(r.Context(), &dto, c.requestUser(r))
	if err != nil {
		if errors.Is(err, client.ErrDuplicateKey) {
			writeAPIError(w, r, http.StatusConflict, "CLIENT_CONFLICT", "client with this identity already exists")
			return
		}
		writeInternalError(w, r, "CLIENT_INTERNAL", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (c *ClientAPIController) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var dto client.UpdateDTO
	if err := decodeJSONBody(w, r, &dto); err != nil {
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "CLIENT_VALIDATION_FAILED", firstValidationMessage(errs, "Name", "Email"))
		return
	}

	updated, err := c.clients.Update(r.Context(), id, &dto, c.requestUser(r))
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "CLIENT_NOT_FOUND", "client not found")
			return
		}
		writeInternalError(w, r, "CLIENT_INTERNAL", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (c *ClientAPIController) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var dto client.ChangeStatusDTO
	if err := decodeJSONBody(w, r, &dto); err != nil {
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "CLIENT_VALIDATION_FAILED", firstValidationMessage(errs, "Status"))
		return
	}

	updated, err := c.clients.ChangeStatus(r.Context(), id, &dto, c.requestUser(r))
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "CLIENT_NOT_FOUND", "client not found")
			return
		}
		writeInternalError(w, r, "CLIENT_INTERNAL", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (c *ClientAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := c.clients.Delete(r.Context(), id, c.requestUser(r)); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "CLIENT_NOT_FOUND", "client not found")
			return
		}
		writeInternalError(w, r, "CLIENT_INTERNAL", err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// Export streams all clients as CSV. Payment data is limited to the masked
// display fields; tokenized methods never leave the store through this path.
func (c *ClientAPIController) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="clients-%s.csv"`, time.Now().Format("2006-01-02")))

	cw := csv.NewWriter(w)
	header := []string{
		"id", "externalId", "name", "email", "phone", "address", "city", "state",
		"postalCode", "website", "industry", "companyType", "contactStatus",
		"forecastedAmount", "interactionCount", "ownedBy", "createdAt",
	}
	if err := cw.Write(header); err != nil {
		return
	}

	err := c.clients.ForEach(r.Context(), func(entity *client.Client) error {
		return cw.Write([]string{
			entity.ID,
			entity.ExternalID,
			entity.Name,
			entity.Email,
			entity.Phone,
			entity.Address,
			entity.City,
			entity.State,
			entity.PostalCode,
			entity.Website,
			entity.Industry,
			entity.CompanyType,
			string(entity.ContactStatus),
			strconv.FormatFloat(entity.ForecastedAmount, 'f', -1, 64),
			strconv.Itoa(entity.InteractionCount),
			entity.OwnedBy,
			entity.CreatedAt.UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("client export interrupted")
		return
	}
	cw.Flush()
}

// requestUser resolves the acting identity, falling back to the configured
// service account when the request carries none.
func (c *ClientAPIController) requestUser(r *http.Request) string {
	if email, err := composables.UseUser(r.Context()); err == nil {
		return email
	}
	return configuration.Use().ServiceAccountEmail
}
