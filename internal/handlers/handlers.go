// Package handlers contains the HTTP handlers. Page responses are JSON
// view contexts (template name, context data, pagination meta) for the
// rendering front end; navigation outcomes are real 302 redirects so the
// redirect contracts hold byte for byte.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pulseapp/pulse-server/internal/feed"
)

// renderPage responds with a page descriptor: the template to render and
// its context.
func renderPage(c echo.Context, envelope echo.Map) error {
	return c.JSON(http.StatusOK, envelope)
}

// pageEnvelope builds the standard response envelope for a template and
// its context. A nil feed page omits pagination meta.
func pageEnvelope(template string, data echo.Map, pg *feed.Page) echo.Map {
	envelope := echo.Map{
		"success":  true,
		"template": template,
		"data":     data,
	}
	if pg != nil {
		envelope["meta"] = echo.Map{
			"currentPage":     pg.Number,
			"totalPages":      pg.TotalPages,
			"totalItems":      pg.TotalItems,
			"itemsPerPage":    pg.Size,
			"hasNextPage":     pg.HasNext,
			"hasPreviousPage": pg.HasPrevious,
		}
	}
	return envelope
}

func postDetailURL(postID uint) string {
	return fmt.Sprintf("/posts/%d/", postID)
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}
