package api

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
)

// maxOffset keeps offset+limit within int
const maxOffset = math.MaxInt - MaxPageSize

var errInvalidPage = errors.New("invalid page")

func positiveQuery(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func pageSize(c *gin.Context) int {
	limit, ok := positiveQuery(c, "limit")
	if !ok {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// numberPage reads page/limit. A page that is not a positive integer is
// rejected; whether it is past the end is checked by checkPageRange.
func numberPage(c *gin.Context) (service.Page, int, error) {
	limit := pageSize(c)
	number := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > math.MaxInt/limit {
			return service.Page{}, 0, errInvalidPage
		}
		number = n
	}
	return service.Page{Limit: limit, Offset: (number - 1) * limit}, number, nil
}

// checkPageRange rejects pages past the last one. The first page is always
// valid, even when empty.
func checkPageRange(number int, limit int, total int64) error {
	if number == 1 {
		return nil
	}
	if int64((number-1)*limit) >= total {
		return errInvalidPage
	}
	return nil
}

func respondInvalidPage(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": "Invalid page."})
}

// numberPageResponse builds the envelope with ?page= links
func numberPageResponse[T any](c *gin.Context, number, limit int, total int64, results []T) types.PageResponse[T] {
	resp := types.PageResponse[T]{Count: total, Results: results}
	if int64(number*limit) < total {
		resp.Next = pageLink(c, func(q url.Values) { q.Set("page", strconv.Itoa(number+1)) })
	}
	if number > 1 {
		resp.Previous = pageLink(c, func(q url.Values) {
			if number == 2 {
				q.Del("page")
			} else {
				q.Set("page", strconv.Itoa(number-1))
			}
		})
	}
	return resp
}

// offsetPage reads limit/offset, falling back to page when offset is absent.
// Offsets past maxOffset are clamped; they are past any real result set.
func offsetPage(c *gin.Context) service.Page {
	limit := pageSize(c)
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = min(n, maxOffset)
		} else if errors.Is(err, strconv.ErrRange) && raw[0] != '-' {
			offset = maxOffset
		}
	} else if number, ok := positiveQuery(c, "page"); ok {
		if number-1 > maxOffset/limit {
			offset = maxOffset
		} else {
			offset = (number - 1) * limit
		}
	}
	return service.Page{Limit: limit, Offset: offset}
}

// offsetPageResponse builds the envelope with ?limit=&offset= links
func offsetPageResponse[T any](c *gin.Context, page service.Page, total int64, results []T) types.PageResponse[T] {
	resp := types.PageResponse[T]{Count: total, Results: results}
	if int64(page.Offset+page.Limit) < total {
		resp.Next = pageLink(c, func(q url.Values) {
			q.Del("page")
			q.Set("limit", strconv.Itoa(page.Limit))
			q.Set("offset", strconv.Itoa(page.Offset+page.Limit))
		})
	}
	if page.Offset > 0 {
		resp.Previous = pageLink(c, func(q url.Values) {
			q.Del("page")
			q.Set("limit", strconv.Itoa(page.Limit))
			if prev := page.Offset - page.Limit; prev > 0 {
				q.Set("offset", strconv.Itoa(prev))
			} else {
				q.Del("offset")
			}
		})
	}
	return resp
}

// pageLink returns the absolute URL of the current request with its query
// rewritten by edit
func pageLink(c *gin.Context, edit func(url.Values)) *string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	q := c.Request.URL.Query()
	edit(q)
	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: q.Encode(),
	}
	link := u.String()
	return &link
}
