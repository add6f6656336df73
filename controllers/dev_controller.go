package controllers

import (
	"net/http"

	"proteinid/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultTestTitle = "Test notification"
	defaultTestBody  = "Push delivery works."
)

// DevController is mounted only when the server runs with debug logging.
type DevController struct {
	notifier services.Notifier
}

func NewDevController(n services.Notifier) *DevController {
	return &DevController{notifier: n}
}

type pushTestRequest struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

// POST /dev/push-test
// Responds with the number of the caller's devices that accepted the message.
func (h *DevController) PushTest(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var in pushTestRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	title, body := in.Title, in.Body
	if title == "" {
		title = defaultTestTitle
	}
	if body == "" {
		body = defaultTestBody
	}
	data := map[string]string{"type": "test"}
	for k, v := range in.Data {
		data[k] = v
	}

	n := h.notifier.PushToUser(c.Request.Context(), uid, title, body, data)
	c.JSON(http.StatusOK, gin.H{"devices": n})
}
