package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	atlasdomain "github.com/smallbiznis/creditgate/internal/atlas/domain"
	obscontext "github.com/smallbiznis/creditgate/internal/observability/context"
	obslogger "github.com/smallbiznis/creditgate/internal/observability/logger"
	obstracing "github.com/smallbiznis/creditgate/internal/observability/tracing"
	"go.uber.org/zap"
)

const (
	featureKey = obscontext.GinFeatureKey

	featureOutcomeAllowed = "allowed"
	featureOutcomeDenied  = "denied"
	featureOutcomeError   = "error"
)

// featureGate describes a credit-gated action. Each successful call
// consumes one unit of the feature.
type featureGate struct {
	Slug           string
	DeniedCode     string
	DeniedMessage  string
	FailureMessage string
}

var (
	aiInsightsFeature = featureGate{
		Slug:           "ai-insights",
		DeniedCode:     "INSUFFICIENT_CREDITS",
		DeniedMessage:  "Not enough credits to generate insights.",
		FailureMessage: "Unable to generate insights right now.",
	}
	leadGenAgentFeature = featureGate{
		Slug:           "lead-gen-agent2",
		DeniedCode:     "FEATURE_NOT_ALLOWED",
		DeniedMessage:  "Lead generation agent is not available for this account.",
		FailureMessage: "Unable to start lead generation agent right now.",
	}
)

type featureErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func withFeature(slug string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(featureKey, slug)
		c.Request = c.Request.WithContext(obscontext.WithFeature(c.Request.Context(), slug))
		c.Next()
	}
}

func (s *Server) gatedRoute(gate featureGate) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		withFeature(gate.Slug),
		s.FeatureRateLimit(),
		s.useFeature(gate),
	}
}

// useFeature asks the vendor whether the caller may use the feature and, when
// allowed, records one usage event and flushes it before answering.
func (s *Server) useFeature(gate featureGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := obstracing.StartFeatureSpan(c.Request.Context(), gate.Slug)
		userID := userIDFrom(c)
		log := obslogger.WithContext(ctx, s.log)

		verdict, err := s.atlas.AreFeaturesAllowed(ctx, userID, []string{gate.Slug})
		if err != nil {
			log.Error("feature check failed", zap.Error(err))
			s.obsMetrics.RecordFeatureCheck(ctx, gate.Slug, featureOutcomeError)
			obstracing.EndFeatureSpan(span, featureOutcomeError, err)
			c.JSON(http.StatusInternalServerError, featureErrorResponse{Error: gate.FailureMessage})
			return
		}
		if !verdict.Allowed(gate.Slug) {
			log.Info("feature denied", zap.Bool("ok", verdict.OK))
			s.obsMetrics.RecordFeatureCheck(ctx, gate.Slug, featureOutcomeDenied)
			obstracing.EndFeatureSpan(span, featureOutcomeDenied, nil)
			c.JSON(http.StatusForbidden, featureErrorResponse{
				Error: gate.DeniedMessage,
				Code:  gate.DeniedCode,
			})
			return
		}
		s.obsMetrics.RecordFeatureCheck(ctx, gate.Slug, featureOutcomeAllowed)

		event := atlasdomain.FeatureEvents{
			FeatureIDs: []string{gate.Slug},
			CustomerID: userID,
			Quantity:   1,
		}
		if err := s.atlas.EnqueueFeatureEvents(ctx, event); err != nil {
			log.Error("enqueue usage event failed", zap.Error(err))
			obstracing.EndFeatureSpan(span, featureOutcomeError, err)
			c.JSON(http.StatusInternalServerError, featureErrorResponse{Error: gate.FailureMessage})
			return
		}
		if err := s.atlas.FlushEvents(ctx); err != nil {
			log.Error("flush usage events failed", zap.Error(err))
			obstracing.EndFeatureSpan(span, featureOutcomeError, err)
			c.JSON(http.StatusInternalServerError, featureErrorResponse{Error: gate.FailureMessage})
			return
		}
		s.obsMetrics.RecordUsageEvent(ctx, gate.Slug, event.Quantity)
		obstracing.EndFeatureSpan(span, featureOutcomeAllowed, nil)

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
