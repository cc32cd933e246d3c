package sharepoint

import (
	"strings"

	"github.com/BlackMission/spauth/internal/domain"
)

// Policy holds the normalization choices that differ between deployments.
type Policy struct {
	NameSplit   domain.NameSplitPolicy
	AccessToken domain.AccessTokenPolicy
}

// Normalize maps a SharePoint profile onto the canonical user record.
// callerToken is the token the caller authenticated with.
func Normalize(p domain.RemoteUserProfile, callerToken string, policy Policy) domain.CanonicalUser {
	first, last := splitName(p.Name, policy.NameSplit)

	token := domain.PlaceholderAccessToken
	if policy.AccessToken == domain.AccessTokenCaller {
		token = callerToken
	}

	return domain.CanonicalUser{
		ID:          p.Account,
		Email:       p.Email,
		AccessToken: token,
		FirstName:   first,
		LastName:    last,
	}
}

func splitName(name string, policy domain.NameSplitPolicy) (string, string) {
	if policy == domain.NameSplitNone {
		return name, ""
	}
	first, last, _ := strings.Cut(name, " ")
	return first, last
}
