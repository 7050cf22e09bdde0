package api

import (
	"net/http"
	"strconv"

	"stockwatch/models"
	"stockwatch/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type itemView struct {
	ID     uint   `json:"id"`
	Ticker string `json:"ticker"`
	Name   string `json:"name,omitempty"`
}

type watchlistView struct {
	ID    uint       `json:"id"`
	User  uint       `json:"user"`
	Name  string     `json:"name"`
	Items []itemView `json:"items"`
}

func newItemView(it models.WatchlistItem) itemView {
	return itemView{ID: it.ID, Ticker: it.Ticker, Name: it.Name}
}

func newWatchlistView(w *models.Watchlist) watchlistView {
	v := watchlistView{ID: w.ID, User: w.UserID, Name: w.Name, Items: make([]itemView, 0, len(w.Items))}
	for _, it := range w.Items {
		v.Items = append(v.Items, newItemView(it))
	}
	return v
}

type watchlistNameRequest struct {
	Name string `json:"name" binding:"required,max=150"`
}

type addTickerRequest struct {
	Ticker string `json:"ticker" binding:"required"`
	Name   string `json:"name" binding:"max=60"`
}

type removeTickerRequest struct {
	WatchlistID uint   `json:"watchlist_id" form:"watchlist_id" binding:"required"`
	Ticker      string `json:"ticker" form:"ticker" binding:"required"`
}

// watchlistID parses the :id path segment. A malformed id cannot match any watchlist.
func watchlistID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NotFound("watchlist not found")
	}
	return uint(id), nil
}

func (s *Server) createWatchlistHandler(c *gin.Context) {
	var req watchlistNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	w, err := s.watchlists.Create(c.Request.Context(), identity(c).UserID, req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	success(c, http.StatusCreated, newWatchlistView(w))
}

func (s *Server) listWatchlistsHandler(c *gin.Context) {
	lists, err := s.watchlists.List(c.Request.Context(), identity(c).UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]watchlistView, 0, len(lists))
	for i := range lists {
		out = append(out, newWatchlistView(&lists[i]))
	}
	success(c, http.StatusOK, out)
}

func (s *Server) getWatchlistHandler(c *gin.Context) {
	id, err := watchlistID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	w, err := s.watchlists.Get(c.Request.Context(), identity(c).UserID, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	success(c, http.StatusOK, newWatchlistView(w))
}

func (s *Server) renameWatchlistHandler(c *gin.Context) {
	id, err := watchlistID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req watchlistNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	w, err := s.watchlists.Rename(c.Request.Context(), identity(c).UserID, id, req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	success(c, http.StatusOK, newWatchlistView(w))
}

func (s *Server) deleteWatchlistHandler(c *gin.Context) {
	id, err := watchlistID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.watchlists.Delete(c.Request.Context(), identity(c).UserID, id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) addTickerHandler(c *gin.Context) {
	id, err := watchlistID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req addTickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	item, err := s.watchlists.AddItem(c.Request.Context(), identity(c).UserID, id, req.Ticker, req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	success(c, http.StatusCreated, newItemView(*item))
}

// removeTickerHandler accepts watchlist_id and ticker from the query string or a JSON body.
func (s *Server) removeTickerHandler(c *gin.Context) {
	var req removeTickerRequest
	var err error
	if c.ContentType() == binding.MIMEJSON {
		err = c.ShouldBindJSON(&req)
	} else {
		err = c.ShouldBindQuery(&req)
	}
	if err != nil {
		s.bindError(c, err)
		return
	}
	if err := s.watchlists.RemoveItem(c.Request.Context(), identity(c).UserID, req.WatchlistID, req.Ticker); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
