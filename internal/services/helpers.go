package services

import (
	"errors"
	"net/url"

	"github.com/summer-camp-school/camp-service/internal/repositories"
)

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || repositories.IsNotFoundError(err)
}

// withQuery appends key=value to rawURL, keeping any existing query
func withQuery(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
