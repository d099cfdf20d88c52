package app

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/anthurium-ai/personal-finance/internal/model"
)

// categoryInput is the writable part of a category.
type categoryInput struct {
	Name         string           `json:"name"`
	Color        string           `json:"color"`
	MonthlyLimit *decimal.Decimal `json:"monthly_limit"`
}

func (in categoryInput) apply(c *model.Category) {
	c.Name = in.Name
	c.Color = in.Color
	c.MonthlyLimit = in.MonthlyLimit
}

func (a *App) handleListCategories(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	page, err := a.Store.ListCategories(r.Context(), userID(r), limit, offset)
	if err == nil {
		err = pageInRange(page.Count, offset)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *App) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in categoryInput
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	c := &model.Category{UserID: userID(r)}
	in.apply(c)
	if err := c.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Store.CreateCategory(r.Context(), c); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *App) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.Store.Category(r.Context(), userID(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *App) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.Store.Category(r.Context(), userID(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in categoryInput
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	in.apply(c)
	if err := c.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Store.UpdateCategory(r.Context(), c); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *App) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Store.DeleteCategory(r.Context(), userID(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
