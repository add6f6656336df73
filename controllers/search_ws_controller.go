package controllers

import (
	"net/http"
	"sync"
	"time"

	"proteinid/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
)

const (
	wsPingInterval = 25 * time.Second
	wsWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SearchWSController streams search-as-you-type results. The client sends
// {"query": "..."} on every keystroke and receives a SearchUpdate for the
// latest query once typing pauses.
type SearchWSController struct {
	Searcher services.FoodSearcher
	Options  services.SearchSessionOptions
	Log      hclog.Logger
}

func NewSearchWSController(searcher services.FoodSearcher, opts services.SearchSessionOptions, log hclog.Logger) *SearchWSController {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &SearchWSController{Searcher: searcher, Options: opts, Log: log.Named("search-ws")}
}

type searchMessage struct {
	Query string `json:"query"`
}

// GET /food/search/ws
func (h *SearchWSController) Stream(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	write := func(fn func() error) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return fn()
	}

	session := services.NewSearchSession(c.Request.Context(), h.Searcher, func(u services.SearchUpdate) {
		if err := write(func() error { return conn.WriteJSON(u) }); err != nil {
			h.Log.Debug("write failed", "user_id", uid, "error", err)
		}
	}, h.Options)
	defer session.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(wsPingInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := write(func() error { return conn.WriteMessage(websocket.PingMessage, nil) }); err != nil {
					return
				}
			}
		}
	}()

	// read loop ends on client close/error
	for {
		var msg searchMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		session.Submit(msg.Query)
	}
}
