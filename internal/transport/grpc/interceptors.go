package grpc

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"roombook/backend/internal/auth"
	"roombook/backend/internal/domain"
	"roombook/backend/internal/ratelimit"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

// publicMethods may be called without credentials.
var publicMethods = map[string]bool{
	"/" + roomsServiceName + "/ListRooms":       true,
	"/" + roomsServiceName + "/GetRoom":         true,
	"/" + roomsServiceName + "/ListBusyPeriods": true,
}

type tokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

type rateLimiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
	Key(principalID int64, method string) string
}

// RequestTimeout applies a default deadline to calls that arrive without one.
func RequestTimeout(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

// Authenticate resolves the bearer token in the authorization metadata and
// attaches the principal to the context. A token that is present but invalid
// is rejected even on public methods.
func Authenticate(v tokenVerifier, log *slog.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "grpc.auth"))

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			return handler(ctx, req)
		}

		header := firstMetadata(ctx, "authorization")
		if header == "" {
			if publicMethods[info.FullMethod] {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "authentication required")
		}

		token, ok := auth.BearerToken(header)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "authorization must be a bearer token")
		}
		p, err := v.Verify(token)
		if err != nil {
			log.Info("token rejected", slog.String("method", info.FullMethod), slog.Any("err", err))
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		return handler(auth.WithPrincipal(ctx, p), req)
	}
}

// RateLimit spends one token per call from the caller's bucket for the
// method. Limiter failures let the call through.
func RateLimit(l rateLimiter, log *slog.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "grpc.ratelimit"))

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			return handler(ctx, req)
		}

		key := l.Key(auth.PrincipalFrom(ctx).ID, info.FullMethod)
		d, err := l.Allow(ctx, key)
		if err != nil {
			log.Warn("rate limiter unavailable", slog.String("key", key), slog.Any("err", err))
			return handler(ctx, req)
		}
		if !d.Allowed {
			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			_ = grpc.SetHeader(ctx, metadata.Pairs("retry-after", strconv.Itoa(secs)))
			log.Info("rate limited", slog.String("key", key), slog.Duration("retry_after", d.RetryAfter))
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func idempotencyKey(ctx context.Context) string {
	if key := firstMetadata(ctx, "idempotency-key"); key != "" {
		return key
	}
	return firstMetadata(ctx, "x-idempotency-key")
}
