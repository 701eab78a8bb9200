package middleware

import (
	"errors"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/token"
	"github.com/tasknest/backend/repository"
)

// BearerAuth verifies the Authorization bearer token and forwards the
// authenticated user ID to handlers via the X-User-ID header. When a session
// repository is supplied, the token's session mirror must still exist: a
// deleted session revokes the token before its expiry. A session store outage
// does not lock users out, since the signature check already passed.
func BearerAuth(tokens *token.Manager, sessions repository.SessionRepository, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			userID, tokenID, err := tokens.Verify(tokenString)
			if err != nil {
				logger.Warn("invalid bearer token", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			if sessions != nil {
				if _, err := sessions.Get(ctx, tokenID); err != nil {
					if errors.Is(err, domain.ErrSessionNotFound) {
						ctx.SetStatusCode(fasthttp.StatusUnauthorized)
						return
					}
					logger.Warn("session lookup failed", zap.Error(err))
				}
			}

			// Never trust client-supplied values for these headers.
			ctx.Request.Header.Set("X-User-ID", userID)
			ctx.Request.Header.Set("X-Token-ID", tokenID)
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
