package response

import "github.com/gin-gonic/gin"

// Envelope estándar de la API: status success|fail|error, con message
// y data opcionales.
type Body struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success: 2xx con datos.
func Success(c *gin.Context, code int, data interface{}) {
	c.JSON(code, Body{Status: "success", Data: data})
}

// Fail: 4xx, el cliente hizo algo inválido.
func Fail(c *gin.Context, code int, message string) {
	c.JSON(code, Body{Status: "fail", Message: message})
}

// Error: 5xx, falla del servidor; el detalle queda en los logs.
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Body{Status: "error", Message: message})
}
