// README: SSE stream of lifecycle events for role dashboards.
package handlers

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"tableside/internal/coordinator"
	"tableside/internal/events"
)

type EventsHandler struct {
	coord *coordinator.Service
}

func NewEventsHandler(coord *coordinator.Service) *EventsHandler {
	return &EventsHandler{coord: coord}
}

// Stream serves server-sent events. An optional comma-separated "types"
// query narrows the subscription (e.g. ?types=orderReady,newOrder for the
// kitchen display). Clients that fall behind miss events and should
// re-fetch state on reconnect.
func (h *EventsHandler) Stream(c *gin.Context) {
	var filter []events.Type
	if raw := c.Query("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			filter = append(filter, events.Type(strings.TrimSpace(t)))
		}
	}

	ch, cancel := h.coord.Subscribe(filter...)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Type), e)
			return true
		}
	})
}
