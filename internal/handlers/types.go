package handlers

const contentTypeText = "text/plain; charset=utf-8"

// TextResponse is a plain-text body.
type TextResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func text(s string) *TextResponse {
	return &TextResponse{ContentType: contentTypeText, Body: []byte(s)}
}

// ShortenRequest is the request for creating or refreshing a short URL.
type ShortenRequest struct {
	Authorization string `doc:"Bearer access token"                                   header:"Authorization"`
	URL           string `doc:"The URL to shorten"                                    example:"https://example.com/very/long/path" query:"url"`
	ExpireMinutes int64  `doc:"Minutes until the link expires, 0 uses the default"   example:"5"                                  query:"expireMinutes"`
}

// ResolveRequest is the request for resolving a short code.
type ResolveRequest struct {
	ShortCode string `doc:"The short code" example:"1" path:"shortCode"`
}

// UpdateExpirationRequest is the request for moving a link's expiry.
type UpdateExpirationRequest struct {
	Authorization string `doc:"Bearer access token"               header:"Authorization"`
	ShortCode     string `doc:"The short code"                    example:"1"            path:"shortCode"`
	Minutes       int64  `doc:"Minutes from now until expiry"     example:"10"           query:"minutes"`
}

// CredentialsRequest carries a username and password.
type CredentialsRequest struct {
	Body struct {
		Username string `doc:"Account name" example:"alice"  json:"username"`
		Password string `doc:"Password"     example:"s3cret" json:"password"`
	}
}

// LoginResponse returns an access token.
type LoginResponse struct {
	Body struct {
		Token string `doc:"Bearer access token" json:"token"`
	}
}
