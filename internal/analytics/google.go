package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"

	"github.com/droverhq/drover/internal/errors"
	"github.com/droverhq/drover/internal/httpx"
)

// googleScopes grants read-only access to the Google reporting APIs.
var googleScopes = []string{ //nolint:gochecknoglobals // Fixed scope set
	"https://www.googleapis.com/auth/analytics.readonly",
	"https://www.googleapis.com/auth/webmasters.readonly",
}

// GoogleCredentials carries service-account credentials for the Google
// reporting APIs, either as a key file path or inline.
type GoogleCredentials struct {
	// KeyFile is a path to a service-account JSON key. Takes precedence
	// over the inline fields.
	KeyFile string

	// ClientEmail and PrivateKey are inline service-account credentials,
	// used when KeyFile is empty.
	ClientEmail string
	PrivateKey  string
}

// TokenSource builds a cached bearer-token source from the credentials.
func (c GoogleCredentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if c.KeyFile != "" {
		data, err := os.ReadFile(c.KeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "reading service account key")
		}
		cfg, err := google.JWTConfigFromJSON(data, googleScopes...)
		if err != nil {
			return nil, errors.Wrap(err, "parsing service account key")
		}
		return cfg.TokenSource(ctx), nil
	}

	if c.ClientEmail != "" && c.PrivateKey != "" {
		cfg := &jwt.Config{
			Email:      c.ClientEmail,
			PrivateKey: []byte(c.PrivateKey),
			Scopes:     googleScopes,
			TokenURL:   google.JWTTokenURL,
		}
		return cfg.TokenSource(ctx), nil
	}

	return nil, errors.Wrap(errors.ErrAnalyticsAuth,
		"google credentials require a key file or client email and private key")
}

// googleCall performs one authenticated JSON call against a Google API and
// decodes the response into out.
func googleCall(ctx context.Context, hc *httpx.Client, tokens oauth2.TokenSource, method, url string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "encoding google request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return errors.Wrap(err, "building google request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := tokens.Token()
	if err != nil {
		return errors.Wrap(errors.ErrAnalyticsAuth, err.Error())
	}
	token.SetAuthHeader(req)

	resp, err := hc.DoOK(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding google response")
	}
	return nil
}

// googleDate formats a range bound the way the Google reporting APIs expect.
func googleDate(t time.Time) string {
	return t.Format("2006-01-02")
}
