package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"order-board/internal/board"
	"order-board/internal/web"
)

// PagesHandler serves the HTML orders page. Each browser gets its own board,
// keyed by the session cookie. Every mutation answers with a 303 to /orders,
// which renders the board as it is without re-fetching.
type PagesHandler struct {
	boards    *board.Registry
	maxUpload int64
}

func NewPagesHandler(boards *board.Registry, maxUpload int64) *PagesHandler {
	return &PagesHandler{
		boards:    boards,
		maxUpload: maxUpload,
	}
}

func (h *PagesHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/", h.Index)
	router.GET("/orders", h.Show)
	router.GET("/orders/new", h.NewOrder)
	router.GET("/orders/:id/edit", h.EditOrder)
	router.GET("/orders/:id/inline", h.InlineEdit)
	router.POST("/orders", h.CreateOrder)
	router.POST("/orders/:id", h.UpdateOrder)
	router.POST("/orders/form/close", h.CloseForm)
	router.POST("/orders/:id/delete", h.RequestDelete)
	router.POST("/orders/:id/delete/confirm", h.ConfirmDelete)
	router.POST("/orders/delete/cancel", h.CancelDelete)
}

// Index is the page mount: it always fetches the collection.
func (h *PagesHandler) Index(c *gin.Context) {
	_ = h.session(c).Load(c.Request.Context())
	h.render(c, http.StatusOK, "")
}

func (h *PagesHandler) Show(c *gin.Context) {
	b := h.session(c)
	if !b.Loaded() {
		_ = b.Load(c.Request.Context())
	}
	h.render(c, http.StatusOK, "")
}

func (h *PagesHandler) NewOrder(c *gin.Context) {
	h.session(c).OpenNew()
	h.render(c, http.StatusOK, "")
}

func (h *PagesHandler) EditOrder(c *gin.Context) {
	h.openEdit(c, false)
}

func (h *PagesHandler) InlineEdit(c *gin.Context) {
	h.openEdit(c, true)
}

func (h *PagesHandler) openEdit(c *gin.Context, inline bool) {
	if err := h.session(c).OpenEdit(c.Param("id"), inline); err != nil {
		h.render(c, http.StatusNotFound, err.Error())
		return
	}
	h.render(c, http.StatusOK, "")
}

func (h *PagesHandler) CreateOrder(c *gin.Context) {
	h.save(c, "")
}

func (h *PagesHandler) UpdateOrder(c *gin.Context) {
	h.save(c, c.Param("id"))
}

func (h *PagesHandler) save(c *gin.Context, id string) {
	input, upload, err := ParseOrderForm(c, h.maxUpload)
	if err != nil {
		h.render(c, formStatus(err), err.Error())
		return
	}
	defer closeUpload(upload)

	// failures are recorded on the board and shown after the redirect
	_ = h.session(c).Save(c.Request.Context(), id, input, upload)
	h.redirect(c)
}

func (h *PagesHandler) CloseForm(c *gin.Context) {
	h.session(c).CloseForm()
	h.redirect(c)
}

func (h *PagesHandler) RequestDelete(c *gin.Context) {
	if err := h.session(c).RequestDelete(c.Param("id")); err != nil {
		h.render(c, http.StatusNotFound, err.Error())
		return
	}
	h.redirect(c)
}

func (h *PagesHandler) ConfirmDelete(c *gin.Context) {
	err := h.session(c).ConfirmDelete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, board.ErrNothingToDelete) {
		h.render(c, http.StatusConflict, err.Error())
		return
	}
	h.redirect(c)
}

func (h *PagesHandler) CancelDelete(c *gin.Context) {
	h.session(c).CancelDelete()
	h.redirect(c)
}

func (h *PagesHandler) render(c *gin.Context, status int, flash string) {
	c.HTML(status, web.PageTemplate, web.Page{
		View:  h.session(c).View(),
		Flash: flash,
	})
}

func (h *PagesHandler) redirect(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/orders")
}

// session returns the caller's board, issuing a session cookie on first visit.
func (h *PagesHandler) session(c *gin.Context) *board.Board {
	if v, ok := c.Get(board.SessionCookie); ok {
		return h.boards.Get(v.(string))
	}

	id, err := c.Cookie(board.SessionCookie)
	if err != nil || id == "" {
		id = board.NewSessionID()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(board.SessionCookie, id, 0, "/", "", false, true)
	}
	c.Set(board.SessionCookie, id)
	return h.boards.Get(id)
}
