package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

// bodyRecorder tees the response body so it can be cached after the handler
// runs.
type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache is a middleware for in-memory caching of GET responses. Mutations go
// through other verbs and are never cached; sync cycles refresh the cache
// TTL-naturally.
func Cache(store *cache.Cache, duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if resp, found := store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = rec

		c.Next()

		// Only cache successful responses
		if rec.Status() >= 200 && rec.Status() < 300 {
			store.Set(key, cachedResponse{
				status:  rec.Status(),
				headers: rec.Header().Clone(),
				body:    rec.body.Bytes(),
			}, duration)
		}
	}
}
