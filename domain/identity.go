package domain

// Identity is the opaque caller identity supplied by the identity provider.
type Identity struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
}
