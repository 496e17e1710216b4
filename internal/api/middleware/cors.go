package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"stockpulse/internal/proxy"
)

var (
	AllowedMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
	AllowedHeaders = []string{
		"Content-Type", "Authorization",
		proxy.HeaderUserID, proxy.HeaderStoreID, proxy.HeaderAccessToken, proxy.HeaderShopDomain,
	}
)

// CORS allows any origin with a fixed method and header list. Every OPTIONS
// request is answered here with 204, before authentication runs.
func CORS() gin.HandlerFunc {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: AllowedMethods,
		AllowedHeaders: AllowedHeaders,
		ExposedHeaders: []string{"Link"},
		MaxAge:         86400,
	})
	methods := strings.Join(AllowedMethods, ", ")
	headers := strings.Join(AllowedHeaders, ", ")

	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)

		if ctx.Request.Method != http.MethodOptions {
			ctx.Next()
			return
		}
		// rs/cors only decorates real preflights; plain OPTIONS probes get the list too.
		h := ctx.Writer.Header()
		if h.Get("Access-Control-Allow-Origin") == "" {
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
		}
		ctx.AbortWithStatus(http.StatusNoContent)
	}
}
