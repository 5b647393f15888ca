package testing

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
)

// PerformRequest Helper for performing requests in tests. A string body is sent verbatim,
// anything else is encoded as JSON.
func PerformRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	reqBody := &bytes.Buffer{}
	switch b := body.(type) {
	case nil:
	case string:
		reqBody.WriteString(b)
	default:
		jsonBytes, err := json.Marshal(b)
		if err != nil {
			panic("failed to marshal request body: " + err.Error())
		}
		reqBody.Write(jsonBytes)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}
