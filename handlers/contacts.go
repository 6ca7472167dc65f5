package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/saneax/telephone-book/datastores"
)

type Contacts struct {
	Store        ds.ContactsStore
	ErrorHandler func(context.Context, error)
}

const (
	msgNotFound      = "Contact not found"
	msgMissingFields = "Name and phone are required"
	msgEmptyField    = "Name and phone must not be empty"
	msgEmptyQuery    = "Search query is required"
	msgDeleted       = "Contact deleted"
)

type ContactModel struct {
	ID    ds.ContactID `json:"id"    readOnly:"true" example:"12"`
	Name  string       `json:"name"                  example:"John Smith"`
	Phone string       `json:"phone"                 example:"555-0100"`
}

func contactModel(c *ds.Contact) ContactModel {
	return ContactModel{ID: c.ID, Name: c.Name, Phone: c.Phone}
}

func contactModels(contacts []*ds.Contact) []ContactModel {
	body := make([]ContactModel, 0, len(contacts))
	for _, contact := range contacts {
		body = append(body, contactModel(contact))
	}
	return body
}

// storeError maps store sentinels to responses. Unknown errors are
// returned as is and become 500s.
func storeError(err error) error {
	switch {
	case errors.Is(err, ds.ErrObjectNotFound):
		return NewError(http.StatusNotFound, msgNotFound, err)
	case errors.Is(err, ds.ErrMissingFields):
		return NewError(http.StatusBadRequest, msgMissingFields, err)
	case errors.Is(err, ds.ErrEmptyField):
		return NewError(http.StatusBadRequest, msgEmptyField, err)
	case errors.Is(err, ds.ErrEmptyQuery):
		return NewError(http.StatusBadRequest, msgEmptyQuery, err)
	default:
		return err
	}
}

func (h *Contacts) RegisterList(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/contacts",
		handlerWithErrorHandler(h.list, h.ErrorHandler),
		opSummary("List contacts"),
		opErrors(http.StatusUnauthorized, http.StatusInternalServerError),
	)
}

type ContactsListOutput struct {
	Body []ContactModel
}

func (h *Contacts) list(ctx context.Context, _ *struct{}) (*ContactsListOutput, error) {
	contacts, err := h.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ContactsListOutput{Body: contactModels(contacts)}, nil
}

func (h *Contacts) RegisterSearch(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/contacts/search",
		handlerWithErrorHandler(h.search, h.ErrorHandler),
		opSummary("Search contacts by name or phone"),
		opErrors(http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError),
	)
}

func (h *Contacts) search(ctx context.Context, input *struct {
	Query string `query:"q" example:"smi" doc:"Case-insensitive substring of the name or substring of the phone"`
}) (*ContactsListOutput, error) {
	contacts, err := h.Store.Search(ctx, input.Query)
	if err != nil {
		return nil, storeError(err)
	}
	return &ContactsListOutput{Body: contactModels(contacts)}, nil
}

func (h *Contacts) RegisterGet(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/contacts/{id}",
		handlerWithErrorHandler(h.get, h.ErrorHandler),
		opSummary("Get a contact"),
		opErrors(http.StatusNotFound, http.StatusUnauthorized, http.StatusInternalServerError),
	)
}

type ContactsGetOutput struct {
	Body ContactModel
}

func (h *Contacts) get(ctx context.Context, input *struct {
	ID ds.ContactID `path:"id" example:"12" doc:"ID of the contact to get"`
}) (*ContactsGetOutput, error) {
	contact, err := h.Store.Get(ctx, input.ID)
	if err != nil {
		return nil, storeError(err)
	}
	return &ContactsGetOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterCreate(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/contacts",
		handlerWithErrorHandler(h.create, h.ErrorHandler),
		opSummary("Create a contact"),
		opStatus(http.StatusCreated),
		opErrors(http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError),
	)
}

func (h *Contacts) create(ctx context.Context, input *struct {
	Body struct {
		_     struct{} `json:"-" additionalProperties:"true"`
		Name  string   `json:"name,omitempty"  example:"John Smith"`
		Phone string   `json:"phone,omitempty" example:"555-0100"`
	} `required:"false"`
}) (*ContactsGetOutput, error) {
	contact, err := h.Store.Create(ctx, input.Body.Name, input.Body.Phone)
	if err != nil {
		return nil, storeError(err)
	}
	return &ContactsGetOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterUpdate(api huma.API) { // called by [huma.AutoRegister]
	huma.Put(api, "/contacts/{id}",
		handlerWithErrorHandler(h.update, h.ErrorHandler),
		opSummary("Update some fields of a contact"),
		opErrors(http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized, http.StatusInternalServerError),
	)
}

func (h *Contacts) update(ctx context.Context, input *struct {
	ID   ds.ContactID `path:"id" example:"12" doc:"ID of the contact to update"`
	Body struct {
		_     struct{} `json:"-" additionalProperties:"true"`
		Name  *string  `json:"name,omitempty"  example:"John Smith" doc:"Kept when absent"`
		Phone *string  `json:"phone,omitempty" example:"555-0100"   doc:"Kept when absent"`
	} `required:"false"`
}) (*ContactsGetOutput, error) {
	contact, err := h.Store.Update(ctx, input.ID, ds.ContactPatch{
		Name:  input.Body.Name,
		Phone: input.Body.Phone,
	})
	if err != nil {
		return nil, storeError(err)
	}
	return &ContactsGetOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterDelete(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/contacts/{id}",
		handlerWithErrorHandler(h.del, h.ErrorHandler),
		opSummary("Delete a contact"),
		opErrors(http.StatusNotFound, http.StatusUnauthorized, http.StatusInternalServerError),
	)
}

type ContactsDeleteOutput struct {
	Body struct {
		Message string `json:"message" example:"Contact deleted"`
	}
}

func (h *Contacts) del(ctx context.Context, input *struct {
	ID ds.ContactID `path:"id" example:"12" doc:"ID of the contact to delete"`
}) (*ContactsDeleteOutput, error) {
	err := h.Store.Delete(ctx, input.ID)
	if err != nil {
		return nil, storeError(err)
	}
	out := &ContactsDeleteOutput{}
	out.Body.Message = msgDeleted
	return out, nil
}
