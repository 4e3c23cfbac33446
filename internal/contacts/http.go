// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package contacts

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vberko/kontakta/internal/platform/middleware"
	requestutil "github.com/vberko/kontakta/internal/platform/request"
	"github.com/vberko/kontakta/internal/platform/respond"
	"github.com/vberko/kontakta/internal/platform/sec"
	"github.com/vberko/kontakta/internal/platform/validate"
	"github.com/vberko/kontakta/pkg/pagination"
)

// # Route Quotas & Bounds

// The expensive routes (search, birthdays, create) get one request per five
// seconds; plain list routes a looser budget.
var (
	quotaTight = middleware.Quota{Requests: 1, Window: 5 * time.Second}
	quotaList  = middleware.Quota{Requests: 30, Window: time.Minute}
)

var listBounds = pagination.Bounds{Default: 10, Min: 10, Max: 500}

// Handler implements contact management HTTP endpoints.
type Handler struct {
	contactService *Service
	counters       middleware.CounterStore
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, counters middleware.CounterStore) *Handler {
	return &Handler{contactService: service, counters: counters}
}

// Routes returns a [chi.Router] configured with contact routes.
//
// Every route requires authentication; /all additionally requires the
// moderator or admin role.
//
// # Endpoints
//   - GET    /          : Page of the caller's contacts.
//   - GET    /all       : Page across all owners (moderator/admin).
//   - GET    /search    : Filtered lookup, at least one criterion.
//   - GET    /birthdays : Contacts with birthdays in the next N days.
//   - POST   /          : Create a contact.
//   - GET    /{id}      : Fetch one contact.
//   - PUT    /{id}      : Update a contact.
//   - DELETE /{id}      : Delete a contact.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.With(middleware.RateLimit(handler.counters, "contacts_list", quotaList)).
		Get("/", handler.list)
	router.With(
		middleware.RequireRoles(sec.RoleModerator, sec.RoleAdmin),
		middleware.RateLimit(handler.counters, "contacts_list_all", quotaList),
	).Get("/all", handler.listAll)
	router.With(middleware.RateLimit(handler.counters, "contacts_search", quotaTight)).
		Get("/search", handler.search)
	router.With(middleware.RateLimit(handler.counters, "contacts_birthdays", quotaTight)).
		Get("/birthdays", handler.birthdays)
	router.With(middleware.RateLimit(handler.counters, "contacts_create", quotaTight)).
		Post("/", handler.create)

	router.Get("/{id}", handler.get)
	router.Put("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)

	return router
}

// # Request Payloads

type contactRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Birthday  string `json:"birthday"`
	Notes     string `json:"notes"`
}

func (payload contactRequest) toInput() ContactInput {
	return ContactInput{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Birthday:  payload.Birthday,
		Notes:     payload.Notes,
	}
}

/*
List returns a page of the caller's contacts.

GET /api/v1/contacts/?limit=&offset=

Response:
  - 200: Paginated contacts with limit/offset/total metadata
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request, listBounds)
	results, total, err := handler.contactService.List(request.Context(), identity.UserID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, results, pagination.Meta{
		Limit:  params.Limit,
		Offset: params.Offset,
		Total:  total,
	})
}

/*
ListAll returns a page of every user's contacts.

GET /api/v1/contacts/all?limit=&offset=

Description: Reserved for moderators and admins; the role gate runs before
this handler.

Response:
  - 200: Paginated contacts across all owners
  - 403: ErrForbidden: Caller lacks the required role
*/
func (handler *Handler) listAll(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request, listBounds)

	results, total, err := handler.contactService.ListAll(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, results, pagination.Meta{
		Limit:  params.Limit,
		Offset: params.Offset,
		Total:  total,
	})
}

/*
Search performs a filtered lookup over the caller's contacts.

GET /api/v1/contacts/search?first_name=&last_name=&email=

Response:
  - 200: Paginated matches
  - 400: ErrValidation: No search parameter given
*/
func (handler *Handler) search(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	query := request.URL.Query()
	filter := Filter{
		FirstName: query.Get(FieldFirstName),
		LastName:  query.Get(FieldLastName),
		Email:     query.Get(FieldEmail),
	}

	params := pagination.FromRequest(request, listBounds)
	results, total, err := handler.contactService.Search(request.Context(), identity.UserID, filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, results, pagination.Meta{
		Limit:  params.Limit,
		Offset: params.Offset,
		Total:  total,
	})
}

/*
Birthdays returns contacts with a birthday in the next N days.

GET /api/v1/contacts/birthdays?limit=N

Description: N defaults to 7 and is clamped to [7, 100]. Year boundaries
wrap correctly.

Response:
  - 200: Matching contacts
*/
func (handler *Handler) birthdays(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	days := BirthdayDaysDefault
	if raw := request.URL.Query().Get(FieldLimit); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			days = parsed
		}
	}

	results, err := handler.contactService.UpcomingBirthdays(request.Context(), identity.UserID, days)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, results)
}

/*
Create adds a new contact to the caller's address book.

POST /api/v1/contacts/

Response:
  - 201: Contact: Created entity
  - 400: ErrValidation: Bad input
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload contactRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	contact, err := handler.contactService.Create(request.Context(), identity.UserID, payload.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, contact)
}

/*
Get fetches a single contact owned by the caller.

GET /api/v1/contacts/{id}

Response:
  - 200: Contact
  - 404: ErrNotFound: Unknown id or foreign owner
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.IntParam(request, "id", "Contact")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	contact, err := handler.contactService.Get(request.Context(), identity.UserID, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, contact)
}

/*
Update replaces the writable fields of a contact owned by the caller.

PUT /api/v1/contacts/{id}

Response:
  - 200: Contact: Updated entity
  - 404: ErrNotFound: Unknown id or foreign owner
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.IntParam(request, "id", "Contact")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload contactRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	contact, err := handler.contactService.Update(request.Context(), identity.UserID, id, payload.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, contact)
}

/*
Delete removes a contact owned by the caller.

DELETE /api/v1/contacts/{id}

Response:
  - 204: No Content
  - 404: ErrNotFound: Unknown id or foreign owner
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.IntParam(request, "id", "Contact")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.contactService.Delete(request.Context(), identity.UserID, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
