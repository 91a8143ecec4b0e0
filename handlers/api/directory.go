package api

import (
	"strings"

	"commhub/resolver"

	"github.com/gofiber/fiber/v2"
)

// DirectoryHandler serves recipient typeahead over the LMS user and group
// directory. Queries are debounced and deduplicated by the resolver; the
// handler always answers with the candidates of the latest query.
type DirectoryHandler struct {
	resolver *resolver.Resolver
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(r *resolver.Resolver) *DirectoryHandler {
	return &DirectoryHandler{resolver: r}
}

// HandleSearch runs a typeahead query. The response carries the candidates
// for whichever query is most recent, which may be a newer one than this
// request's if the user kept typing.
func (h *DirectoryHandler) HandleSearch(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))

	h.resolver.Search(query)
	h.resolver.Wait()

	candidates, err := h.resolver.Candidates()
	if err != nil {
		return backendError("Directory search failed", err)
	}
	return c.JSON(candidates)
}
