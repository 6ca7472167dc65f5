package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/saneax/telephone-book/credentials"
	"github.com/saneax/telephone-book/handlers"
)

type AuthOptions struct {
	CredentialsFile string `doc:"yaml file mapping usernames to secret hashes"`
	AuthRealm       string `doc:"realm announced to clients"                  default:"telephone-book"`
}

// Authenticator checks a username and secret, see [credentials.Set].
type Authenticator interface {
	Authenticate(username, secret string) (credentials.Identity, error)
}

func LoadCredentials(options *AuthOptions) (*credentials.Set, error) {
	if options.CredentialsFile == "" {
		return nil, errors.New("a credentials file is required")
	}
	return credentials.LoadFile(options.CredentialsFile)
}

// authMiddleware returns a middleware that requires HTTP basic credentials
// accepted by gate. Rejected requests are answered with 401 and never
// reach the operation. Accepted requests get the username added to the
// [slog.Logger] in the [context.Context].
func (key ctxlog) authMiddleware(
	fallback *slog.Logger,
	gate Authenticator,
	realm string,
	count func(accepted bool),
) func(huma.Context, func(huma.Context)) {
	challenge := "Basic realm=" + strconv.Quote(realm)

	return func(ctx huma.Context, next func(huma.Context)) {
		logger := key.logger(ctx.Context(), fallback)

		identity, err := credentials.Identity{}, credentials.ErrRejected
		username, secret, ok := basicAuth(ctx.Header("Authorization"))
		if ok {
			identity, err = gate.Authenticate(username, secret)
		}
		count(err == nil)
		if err != nil {
			logger.LogAttrs(ctx.Context(), slog.LevelWarn, "authentication rejected",
				slog.String("user", username), slog.Any("err", err))
			ctx.SetHeader("WWW-Authenticate", challenge)
			ctx.SetHeader("Content-Type", "application/json")
			ctx.SetStatus(http.StatusUnauthorized)
			err = json.NewEncoder(ctx.BodyWriter()).Encode(handlers.NewError(http.StatusUnauthorized, "Unauthorized"))
			if err != nil {
				logger.LogAttrs(ctx.Context(), slog.LevelError, "could not write response", slog.Any("err", err))
			}
			return
		}

		next(huma.WithValue(ctx, key, logger.With("user", identity.Username)))
	}
}

// basicAuth parses an Authorization header value the way [http.Request.BasicAuth] does.
func basicAuth(header string) (username, secret string, ok bool) {
	if header == "" {
		return "", "", false
	}
	r := http.Request{Header: http.Header{"Authorization": {header}}}
	return r.BasicAuth()
}
