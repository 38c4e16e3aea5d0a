package auth

import "github.com/AnshulAlgoS/StudyChamp-sub000/domain"

// Provider resolves a bearer token into a stable caller identity. The arena
// treats id and display name as opaque strings; where they come from is the
// provider's business.
type Provider interface {
	Verify(token string) (domain.Identity, error)
}
