package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/logger"

	"github.com/gin-gonic/gin"
)

const headerTwilioSignature = "X-Twilio-Signature"

// ComputeSignature returns the X-Twilio-Signature value for a request:
// base64(HMAC-SHA1(authToken, url + sorted key/value pairs)).
func ComputeSignature(authToken, fullURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		for _, v := range params[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// RequireSignature rejects webhook calls whose signature does not match.
// publicBaseURL overrides scheme and host when the service sits behind a proxy.
func RequireSignature(authToken, publicBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sig := c.GetHeader(headerTwilioSignature)
		if sig == "" {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		expected := ComputeSignature(authToken, requestURL(c.Request, publicBaseURL), c.Request.PostForm)
		if !hmac.Equal([]byte(sig), []byte(expected)) {
			logger.FromGin(c).Warn("webhook signature mismatch", "path", c.Request.URL.Path)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

func requestURL(r *http.Request, publicBaseURL string) string {
	if publicBaseURL != "" {
		return publicBaseURL + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
