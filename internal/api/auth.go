package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"blinklean/internal/config"
	"blinklean/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

const (
	apiKeyHeaderDefault = "x-api-key"
	authorizationHeader = "authorization"
	platformHeader      = "platform"
	clientKeyUnknown    = "unknown"

	// PermWriteRates allows changing scrap rates.
	PermWriteRates = "write:rates"
	// PermWritePayments allows closing out gateway orders.
	PermWritePayments = "write:payments"
)

// Claims carries the requester phone number verified at login.
type Claims struct {
	Phone string `json:"phone"`
	jwt.RegisteredClaims
}

// TokenAuth signs and verifies HS256 requester tokens.
type TokenAuth struct {
	secret []byte
}

func NewTokenAuth(secret string) *TokenAuth {
	return &TokenAuth{secret: []byte(secret)}
}

func (a *TokenAuth) Issue(phone string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Phone: phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   phone,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Requester returns the phone number of a valid bearer token.
func (a *TokenAuth) Requester(authHeader string) (string, error) {
	raw := bearerToken(authHeader)
	if raw == "" {
		return "", domain.UnauthorizedError{Msg: "missing bearer token"}
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.UnauthorizedError{Msg: "token expired"}
		}
		return "", domain.UnauthorizedError{Msg: "invalid token"}
	}
	if strings.TrimSpace(claims.Phone) == "" {
		return "", domain.UnauthorizedError{Msg: "token has no phone claim"}
	}
	return claims.Phone, nil
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

type requesterKey struct{}

func withRequester(ctx context.Context, phone string) context.Context {
	return context.WithValue(ctx, requesterKey{}, phone)
}

// RequesterFrom returns the authenticated phone number stored by the auth layer.
func RequesterFrom(ctx context.Context) string {
	phone, _ := ctx.Value(requesterKey{}).(string)
	return phone
}

// KeyAuth checks operator API keys for privileged endpoints.
type KeyAuth struct {
	header  string
	clients []config.APIClientKey
}

func NewKeyAuth(cfg config.APIAuthConfig) *KeyAuth {
	header := strings.ToLower(strings.TrimSpace(cfg.HeaderAPIKey))
	if header == "" {
		header = apiKeyHeaderDefault
	}
	return &KeyAuth{header: header, clients: cfg.APIKeys}
}

func (k *KeyAuth) Header() string { return k.header }

// Authorize returns the client name for a key holding permission.
// An empty permission list on a key allows everything.
func (k *KeyAuth) Authorize(key, permission string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", domain.UnauthorizedError{Msg: "missing api key"}
	}

	for _, client := range k.clients {
		if subtle.ConstantTimeCompare([]byte(client.Key), []byte(key)) != 1 {
			continue
		}
		if len(client.Permissions) == 0 {
			return client.Name, nil
		}
		for _, p := range client.Permissions {
			if strings.TrimSpace(p) == permission {
				return client.Name, nil
			}
		}
		return "", domain.UnauthorizedError{Msg: "permission denied", Forbidden: true}
	}
	return "", domain.UnauthorizedError{Msg: "invalid api key"}
}

type methodPolicy struct {
	requester bool
}

var methodPolicies = map[string]methodPolicy{
	methodCheckEligibility: {},
	methodEstimateValue:    {requester: true},
	methodCreateOrder:      {requester: true},
	methodVerifyPayment:    {requester: true},
}

// AuthInterceptor authenticates settlement RPCs and applies per-client rate limits.
type AuthInterceptor struct {
	tokens  *TokenAuth
	limiter *rateLimiter
}

func NewAuthInterceptor(cfg config.APIConfig, tokens *TokenAuth) *AuthInterceptor {
	return &AuthInterceptor{tokens: tokens, limiter: newRateLimiter(cfg.RateLimit)}
}

func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		policy, ok := methodPolicies[info.FullMethod]
		if !ok {
			return handler(ctx, req)
		}

		if policy.requester {
			md, _ := metadata.FromIncomingContext(ctx)
			phone, err := a.tokens.Requester(first(md.Get(authorizationHeader)))
			if err != nil {
				return nil, toStatus(err)
			}
			ctx = withRequester(ctx, phone)
		}

		if !a.limiter.allow(grpcClientKey(ctx)) {
			return nil, toStatus(errRateLimited)
		}
		return handler(ctx, req)
	}
}

func grpcClientKey(ctx context.Context) string {
	if phone := RequesterFrom(ctx); phone != "" {
		return "user:" + phone
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		host := p.Addr.String()
		if i := strings.LastIndex(host, ":"); i > 0 {
			host = host[:i]
		}
		return "ip:" + host
	}
	return clientKeyUnknown
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}
