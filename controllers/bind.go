package controllers

import (
	"net/http"
	"time"

	"github.com/computersciencehouse/quickpoll/validation"
	"github.com/gin-gonic/gin"
)

const invalidBodyMessage = "request body must be a JSON object"

// bindShape decodes the JSON body and checks it against shape. On failure it
// writes a 422 with every violation and returns false.
func bindShape(g *gin.Context, shape validation.Shape) (map[string]any, bool) {
	var record map[string]any
	if err := g.ShouldBindJSON(&record); err != nil {
		g.JSON(http.StatusUnprocessableEntity, []string{invalidBodyMessage})
		return nil, false
	}

	if errs := shape.Validate(record); len(errs) > 0 {
		g.JSON(http.StatusUnprocessableEntity, errs)
		return nil, false
	}

	return record, true
}

func stringField(record map[string]any, name string) string {
	s, _ := record[name].(string)
	return s
}

// expireAtField keeps a string as sent and reads a number as epoch milliseconds.
// Any other value falls back to the default expiration.
func expireAtField(record map[string]any) string {
	switch v := record["expireAt"].(type) {
	case string:
		return v
	case float64:
		return time.UnixMilli(int64(v)).Format(validation.DateTimeLayout)
	default:
		return ""
	}
}
