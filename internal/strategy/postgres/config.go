package postgres

import (
	"fmt"
	"net/url"

	appErr "github.com/branchstack/engine/pkg/errors"
)

// connectionString extracts the required connectionString field from a
// strategy configuration document.
func connectionString(configuration map[string]any) (string, error) {
	cs, _ := configuration["connectionString"].(string)
	if cs == "" {
		return "", appErr.New(appErr.CodeInvalid,
			"Required field 'connectionString' is missing from configuration")
	}
	return cs, nil
}

// databaseURL returns the connection string pointed at the given database.
func databaseURL(cs, database string) (string, error) {
	u, err := url.Parse(cs)
	if err != nil {
		return "", fmt.Errorf("parse connection string: %w", err)
	}
	u.Path = "/" + database
	return u.String(), nil
}
