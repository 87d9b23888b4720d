package driven

import (
	"time"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

// AuthAdapter issues and verifies API tokens.
// Tokens are self-contained; there is no session storage.
type AuthAdapter interface {
	// Issue signs a token for subject with the given role and lifetime
	Issue(subject string, role domain.Role, ttl time.Duration) (string, error)

	// Verify validates a token; failures wrap domain.ErrUnauthorized
	Verify(token string) (*domain.Principal, error)
}
