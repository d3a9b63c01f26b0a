package middleware

import (
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// HeaderSubject carries the verified token subject to downstream handlers.
const HeaderSubject = "X-Subject"

// TokenVerifier returns the subject of a valid bearer token.
type TokenVerifier interface {
	Enabled() bool
	Verify(token string) (string, error)
}

// JWTAuth rejects requests without a valid bearer token. With no secret
// configured it lets every request through.
func JWTAuth(verifier TokenVerifier, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if verifier == nil || !verifier.Enabled() {
		logger.Warn("JWT_SECRET not set; API is unauthenticated")
		return func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			subject, err := verifier.Verify(tokenString)
			if err != nil {
				logger.Warn("invalid jwt token", zap.Error(err))
				unauthorized(ctx, "invalid token")
				return
			}

			ctx.Request.Header.Set(HeaderSubject, subject)
			next(ctx)
		}
	}
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBodyString(`{"status":"error","code":"UNAUTHORIZED","error":{"message":"` + message + `"}}`)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return header
}
