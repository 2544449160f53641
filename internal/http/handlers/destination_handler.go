// README: Destination suggestion handler; grouping table first, Places and Gemini as optional enrichers.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campool/internal/ai"
	"campool/internal/destgroup"
	"campool/internal/maps"
)

type DestinationHandler struct {
	groups     *destgroup.Table
	places     *maps.PlacesService
	normalizer *ai.Normalizer
}

// NewDestinationHandler builds the suggestion endpoint. places and normalizer
// may be nil when the corresponding API keys are not configured.
func NewDestinationHandler(groups *destgroup.Table, places *maps.PlacesService, normalizer *ai.Normalizer) *DestinationHandler {
	return &DestinationHandler{groups: groups, places: places, normalizer: normalizer}
}

func (h *DestinationHandler) Suggest(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		writeError(c, http.StatusBadRequest, "missing query")
		return
	}

	suggestions := h.groups.Suggest(query)

	// optional: let Gemini resolve nicknames and typos onto known names
	if len(suggestions) == 0 && h.normalizer != nil {
		if name, err := h.normalizer.Normalize(c.Request.Context(), query, h.groups.Destinations()); err == nil && name != "" {
			suggestions = []string{name}
		}
	}

	resp := gin.H{"suggestions": suggestions}

	// optional: surface nearby places for destinations off the known list
	if len(suggestions) == 0 && h.places != nil {
		if places, err := h.places.SearchNearby(c.Request.Context(), query); err == nil {
			resp["places"] = places
		}
	}

	writeJSON(c, http.StatusOK, resp)
}
