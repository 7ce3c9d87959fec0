package scanfeed

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HistoryHandler serves a scan's recorded feed over plain HTTP for
// clients that missed the live stream.
func HistoryHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		scanID := strings.TrimSpace(c.Param("scanID"))
		if scanID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scan id required"})
			return
		}

		c.JSON(http.StatusOK, hub.History(scanID))
	}
}

// WSHandler attaches a watcher to a scan's feed. The replayed history goes
// out first, then live messages until the peer disconnects. Watchers are
// read-only; anything they send is discarded.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		scanID := strings.TrimSpace(c.Param("scanID"))
		if scanID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scan id required"})
			return
		}

		user := strings.TrimSpace(c.Query("user"))
		if user == "" {
			user = "anon"
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		hub.Join(scanID, ws, user)

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.Leave(scanID, ws)
	}
}
