package http

import (
	"errors"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/delivery"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/logging"
)

// PagesHandler serves the checkout landing pages and the signed
// download endpoint. Everything else about payments happens in chat.
type PagesHandler struct {
	links    *delivery.Signer
	filesDir string
}

func NewPagesHandler(links *delivery.Signer, filesDir string) *PagesHandler {
	return &PagesHandler{links: links, filesDir: filesDir}
}

// Success is the checkout success_url target. It reminds the buyer to
// confirm in chat; the session is only trusted after reconciliation.
func (h *PagesHandler) Success(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.String(http.StatusBadRequest, "Missing session_id.")
		return
	}
	c.String(http.StatusOK,
		"Payment received!\n\nGo back to Discord and type:\n\n    !paid %s\n\nto get your ebook.", sessionID)
}

func (h *PagesHandler) Cancel(c *gin.Context) {
	c.String(http.StatusOK, "Checkout cancelled. Nothing was charged.")
}

// File serves one ebook file, gated on a valid signed token whose slug
// claim matches the requested file name.
func (h *PagesHandler) File(c *gin.Context) {
	name := c.Param("name")
	token := c.Query("token")
	if token == "" {
		c.String(http.StatusUnauthorized, "Missing token.")
		return
	}

	buyerID, slug, err := h.links.Verify(token)
	if err != nil {
		if errors.Is(err, delivery.ErrLinkExpired) {
			c.String(http.StatusForbidden, "This download link has expired. Type !orders in Discord to get a fresh one.")
			return
		}
		c.String(http.StatusForbidden, "Invalid download link.")
		return
	}

	if slug+".pdf" != name || strings.Contains(name, "..") {
		c.String(http.StatusForbidden, "Invalid download link.")
		return
	}

	full := filepath.Join(h.filesDir, path.Clean(name))
	logging.From(c).Info("ebook download", "buyer", buyerID, "file", name)
	c.FileAttachment(full, name)
}
