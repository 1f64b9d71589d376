package cli

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/getmockd/idmclient/pkg/datastore"
)

// Common CLI errors
var (
	ErrNoMatch = errors.New("path matched nothing")
)

// FormatError returns a user-friendly message for err, with suggestions
// for the failures users can fix themselves.
func FormatError(err error) string {
	var rerr *datastore.ResourceError
	if errors.As(err, &rerr) {
		switch rerr.Status {
		case http.StatusNotFound:
			return fmt.Sprintf(`resource not found: %s

Suggestions:
  • Check the href with: idmctl list <collection-href>
  • Verify the base URL with: idmctl config show`, rerr.Href)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Sprintf(`%s

Suggestions:
  • Set IDM_API_KEY_ID and IDM_API_KEY_SECRET
  • Or point apiKeyFile at an apiKey.properties file`, rerr.Error())
		}
		return rerr.Error()
	}

	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Sprintf(`cannot reach %s: %v

Suggestions:
  • Check that the identity service is running
  • Verify the base URL with: idmctl config show`, uerr.URL, uerr.Err)
	}
	return err.Error()
}
