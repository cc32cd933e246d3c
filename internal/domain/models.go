package domain

import "time"

// LoginMode selects what Login does.
type LoginMode string

const (
	// LoginModeDirect authenticates synchronously inside Login.
	LoginModeDirect LoginMode = "direct"
	// LoginModeRedirect sends the user to the configured redirect URL and
	// completes authentication later through Endpoint.
	LoginModeRedirect LoginMode = "redirect"
)

// NameSplitPolicy controls how a display name becomes first and last name.
type NameSplitPolicy string

const (
	// NameSplitFirstSpace splits on the first space; no space leaves LastName empty.
	NameSplitFirstSpace NameSplitPolicy = "first_space"
	// NameSplitNone stores the whole display name as FirstName.
	NameSplitNone NameSplitPolicy = "none"
)

// AccessTokenPolicy controls the AccessToken reported on a CanonicalUser.
type AccessTokenPolicy string

const (
	// AccessTokenPlaceholder reports PlaceholderAccessToken.
	AccessTokenPlaceholder AccessTokenPolicy = "placeholder"
	// AccessTokenCaller reports the token the caller supplied.
	AccessTokenCaller AccessTokenPolicy = "caller"
)

// PlaceholderAccessToken is the opaque value used under AccessTokenPlaceholder.
const PlaceholderAccessToken = "token"

// StrategySettings configures a SharePoint strategy. Fields tagged required
// are checked when the strategy is constructed.
type StrategySettings struct {
	URL         string `json:"url" validate:"required,url"`
	Path        string `json:"path"`
	ACS         string `json:"acs" validate:"required"`
	ClientID    string `json:"client_id" validate:"required"`
	Secret      string `json:"secret" validate:"required"`
	RedirectURL string `json:"redirect_url" validate:"required_if=LoginMode redirect"`

	LoginMode         LoginMode         `json:"login_mode" validate:"omitempty,oneof=direct redirect"`
	NameSplit         NameSplitPolicy   `json:"name_split" validate:"omitempty,oneof=first_space none"`
	AccessToken       AccessTokenPolicy `json:"access_token" validate:"omitempty,oneof=placeholder caller"`
	TestAccountFilter bool              `json:"test_account_filter"`
}

// RemoteUserProfile is the raw profile returned by SharePoint.
type RemoteUserProfile struct {
	Account string `json:"account"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// CanonicalUser is the normalized user handed to the host application.
type CanonicalUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
}

// Request carries the per-call arguments of a strategy operation.
type Request struct {
	AccessToken string
}

// LoginResult holds either an authenticated user or a redirect target, never both.
type LoginResult struct {
	User        *CanonicalUser `json:"user,omitempty"`
	RedirectURL string         `json:"redirect_url,omitempty"`
}

// StatePayload is the data embedded in the HMAC-signed login state token.
type StatePayload struct {
	Strategy  string    `json:"stg"`
	ReturnTo  string    `json:"ret,omitempty"`
	Nonce     string    `json:"nce"`
	ExpiresAt time.Time `json:"exp"`
}
