package middleware

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/searchktools/duplex-server/core/http"
)

// SecurityHeaders sets the standard browser-hardening headers on every
// response and always continues.
func SecurityHeaders() Handler {
	return func(req *http.RequestCtx, res *http.ResponseCtx) bool {
		res.SetHeader("X-XSS-Protection", "1; mode=block")
		res.SetHeader("X-Content-Type-Options", "nosniff")
		res.SetHeader("X-Frame-Options", "SAMEORIGIN")
		res.SetHeader("Referrer-Policy", "same-origin")
		res.SetHeader("Content-Security-Policy", "default-src 'self'")
		return true
	}
}

// CORSOptions configures the CORS middleware.
type CORSOptions struct {
	AllowOrigin      string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
}

// CORS answers cross-origin headers from configuration and short-circuits
// preflight OPTIONS requests with 204.
func CORS(opts CORSOptions) Handler {
	if opts.AllowOrigin == "" {
		opts.AllowOrigin = "*"
	}
	if len(opts.AllowMethods) == 0 {
		opts.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(opts.AllowHeaders) == 0 {
		opts.AllowHeaders = []string{"Content-Type", "Authorization"}
	}

	methods := strings.Join(opts.AllowMethods, ", ")
	headers := strings.Join(opts.AllowHeaders, ", ")

	return func(req *http.RequestCtx, res *http.ResponseCtx) bool {
		res.SetHeader("Access-Control-Allow-Origin", opts.AllowOrigin)
		res.SetHeader("Access-Control-Allow-Methods", methods)
		res.SetHeader("Access-Control-Allow-Headers", headers)
		if opts.AllowCredentials {
			res.SetHeader("Access-Control-Allow-Credentials", "true")
		}

		if req.Method() == "OPTIONS" {
			res.SetStatus(204)
			res.Close()
			return false
		}
		return true
	}
}

// RequestID tags every response with a unique id.
func RequestID() Handler {
	return func(req *http.RequestCtx, res *http.ResponseCtx) bool {
		res.SetHeader("X-Request-ID", uuid.NewString())
		return true
	}
}

// AccessLog logs every request entering the pipeline.
func AccessLog(logger *zap.Logger) Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(req *http.RequestCtx, res *http.ResponseCtx) bool {
		logger.Info("request",
			zap.String("method", req.Method()),
			zap.String("path", req.Path()),
			zap.Time("at", time.Now()))
		return true
	}
}
