package server

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	entitlementdomain "github.com/smallbiznis/creditgate/internal/entitlement/domain"
)

const maxFeatureSlugLength = 128

// GetFeatureCredit returns the credit price and allocation of a feature for
// the caller. Unknown values are null. The slug is matched as the vendor
// spells it, so any non-blank printable value is accepted.
func (s *Server) GetFeatureCredit(c *gin.Context) {
	featureSlug := strings.TrimSpace(c.Param("slug"))
	if err := validateFeatureSlug(featureSlug); err != nil {
		AbortWithError(c, err)
		return
	}
	// normalized for request logs and spans only
	c.Set(featureKey, slug.Make(featureSlug))

	credit, err := s.entitlementSvc.FeatureCredit(c.Request.Context(), entitlementdomain.FeatureCreditRequest{
		CustomerID:  userIDFrom(c),
		FeatureSlug: featureSlug,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, credit)
}

func validateFeatureSlug(featureSlug string) error {
	switch {
	case featureSlug == "":
		return newValidationError("feature_slug", "required", "feature slug is required")
	case len(featureSlug) > maxFeatureSlugLength:
		return newValidationError("feature_slug", "too_long", "feature slug is too long")
	case strings.IndexFunc(featureSlug, unicode.IsControl) >= 0:
		return newValidationError("feature_slug", "invalid_feature", "feature slug contains control characters")
	}
	return nil
}
