package sharepoint

import (
	"regexp"

	"github.com/BlackMission/spauth/internal/domain"
)

// AccountFilter rejects a profile by returning an error.
type AccountFilter func(domain.RemoteUserProfile) error

// testAccountPattern matches the reserved internal test/service mailboxes.
var testAccountPattern = regexp.MustCompile(`(?i)st0[a-z0-9]+@`)

// RejectTestAccounts refuses profiles whose email belongs to a test account.
func RejectTestAccounts(p domain.RemoteUserProfile) error {
	if testAccountPattern.MatchString(p.Email) {
		return domain.NewAuthenticationError("please sign in with your personal account", nil)
	}
	return nil
}
